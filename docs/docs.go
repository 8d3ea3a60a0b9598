// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/summaries": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "List stored summaries, newest first",
                "produces": ["application/json"],
                "tags": ["summaries"],
                "summary": "List summaries",
                "parameters": [
                    {"type": "integer", "default": 0, "description": "Offset for pagination", "name": "offset", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Limit for pagination (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "List of summaries", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            },
            "post": {
                "description": "Upload one or more PDF reports and receive a structured summary envelope.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["summaries"],
                "summary": "Summarize medical reports",
                "parameters": [
                    {"type": "file", "description": "PDF report (repeatable; legacy field name: file)", "name": "files", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Summary envelope", "schema": {"$ref": "#/definitions/domain.SummaryEnvelope"}},
                    "400": {"description": "No file provided or no extractable text", "schema": {"$ref": "#/definitions/domain.SummaryEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/domain.SummaryEnvelope"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/domain.SummaryEnvelope"}}
                }
            }
        },
        "/summaries/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["summaries"],
                "summary": "Get a summary",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Summary ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Summary", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid summary ID", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "404": {"description": "Summary not found", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/summaries/{id}/labs.xlsx": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["summaries"],
                "summary": "Export lab values",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Summary ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "XLSX workbook", "schema": {"type": "file"}},
                    "404": {"description": "Summary not found", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "domain.SummaryEnvelope": {
            "type": "object",
            "properties": {
                "patient_profile": {"type": "object"},
                "summary": {"type": "string"},
                "key_findings": {"type": "array", "items": {"type": "object"}},
                "medications": {"type": "array", "items": {"type": "object"}},
                "timeline": {"type": "array", "items": {"type": "object"}},
                "lab_data": {"type": "array", "items": {"type": "object"}},
                "charts": {"type": "array", "items": {"type": "object"}},
                "guidance": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"},
                "rawSummary": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.PagMeta": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "handler.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"$ref": "#/definitions/handler.PagMeta"},
                "success": {"type": "boolean", "example": true}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.APIError"},
                "success": {"type": "boolean", "example": false}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "medbrief API",
	Description:      "Summarizes uploaded medical report PDFs into a structured envelope.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
