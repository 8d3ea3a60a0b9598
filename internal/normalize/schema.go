package normalize

// envelopeSchema is the JSON Schema a structured summary is expected to follow.
// Nullable scalars are accepted because models often emit null for absent values.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["patient_profile", "summary", "key_findings", "medications", "timeline", "lab_data", "charts", "guidance"],
  "definitions": {
    "text": {"type": ["string", "null"]},
    "pages": {"type": "array", "items": {"type": "integer"}}
  },
  "properties": {
    "patient_profile": {
      "type": "object",
      "properties": {
        "name": {"$ref": "#/definitions/text"},
        "age": {"type": ["string", "integer", "null"]},
        "gender": {"$ref": "#/definitions/text"},
        "report_date": {"$ref": "#/definitions/text"}
      }
    },
    "summary": {"type": "string"},
    "key_findings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text"],
        "properties": {
          "text": {"type": "string"},
          "pages": {"$ref": "#/definitions/pages"}
        }
      }
    },
    "medications": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "dosage": {"$ref": "#/definitions/text"},
          "frequency": {"$ref": "#/definitions/text"},
          "pages": {"$ref": "#/definitions/pages"}
        }
      }
    },
    "timeline": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["event"],
        "properties": {
          "date": {"$ref": "#/definitions/text"},
          "event": {"type": "string"},
          "pages": {"$ref": "#/definitions/pages"}
        }
      }
    },
    "lab_data": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["test", "value"],
        "properties": {
          "test": {"type": "string"},
          "value": {"type": ["string", "number", "null"]},
          "unit": {"$ref": "#/definitions/text"},
          "reference_range": {"$ref": "#/definitions/text"},
          "flag": {"$ref": "#/definitions/text"},
          "date": {"$ref": "#/definitions/text"},
          "pages": {"$ref": "#/definitions/pages"}
        }
      }
    },
    "charts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "points"],
        "properties": {
          "title": {"type": "string"},
          "type": {"$ref": "#/definitions/text"},
          "unit": {"$ref": "#/definitions/text"},
          "points": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["label", "value"],
              "properties": {
                "label": {"type": "string"},
                "value": {"type": "number"}
              }
            }
          }
        }
      }
    },
    "guidance": {"type": "array", "items": {"type": "string"}}
  }
}`
