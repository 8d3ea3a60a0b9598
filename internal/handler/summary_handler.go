package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medbrief/internal/config"
	"medbrief/internal/domain"
	"medbrief/internal/middleware"
	"medbrief/internal/normalize"
	"medbrief/internal/service"
)

// Response headers describing how an envelope was produced.
const (
	HeaderSummaryID       = "X-Summary-ID"
	HeaderSummaryKind     = "X-Summary-Kind"
	HeaderSummaryAttempts = "X-Summary-Attempts"
	HeaderSummarySchema   = "X-Summary-Schema"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartOverhead is the allowance for part headers and boundaries on top of file bytes.
const multipartOverhead = 1 << 20

// SummaryHandler handles summarization and history endpoints.
type SummaryHandler struct {
	summaryService service.SummaryService
	uploadCfg      *config.UploadConfig
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService service.SummaryService, uploadCfg *config.UploadConfig) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService, uploadCfg: uploadCfg}
}

// Create handles POST /api/v1/summaries and the legacy POST /api/upload/
// @Summary Summarize medical reports
// @Description Upload one or more PDF reports and receive a structured summary envelope.
// @Description Upstream failures still return 200 with a fallback envelope carrying "error".
// @Tags summaries
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "PDF report (repeatable; legacy field name: file)"
// @Success 200 {object} domain.SummaryEnvelope "Summary envelope"
// @Failure 400 {object} domain.SummaryEnvelope "No file provided or no extractable text"
// @Failure 413 {object} domain.SummaryEnvelope "File too large"
// @Failure 500 {object} domain.SummaryEnvelope "Internal error"
// @Router /summaries [post]
func (h *SummaryHandler) Create(c *gin.Context) {
	h.limitBody(c)
	files, err := h.readUploadedFiles(c)
	if err != nil {
		respondEnvelopeError(c, err)
		return
	}

	result, err := h.summaryService.Summarize(c.Request.Context(), service.SummarizeInput{Files: files})
	if err != nil {
		respondEnvelopeError(c, err)
		return
	}

	schema := "conforming"
	if !result.Conforms {
		schema = "nonconforming"
	}
	c.Header(HeaderSummaryID, result.ID.String())
	c.Header(HeaderSummaryKind, string(result.Kind))
	c.Header(HeaderSummaryAttempts, strconv.Itoa(result.Attempts))
	c.Header(HeaderSummarySchema, schema)
	c.Data(http.StatusOK, "application/json", result.Body)
}

// List handles GET /api/v1/summaries
// @Summary List summaries
// @Description List stored summaries, newest first
// @Tags summaries
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.SummaryRecord,meta=PagMeta} "List of summaries"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /summaries [get]
func (h *SummaryHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	logAccess(c, "list", "")

	records, total, err := h.summaryService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if records == nil {
		records = []domain.SummaryRecord{}
	}

	RespondPaginated(c, records, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/summaries/:id
// @Summary Get a summary
// @Description Get one stored summary with its envelope
// @Tags summaries
// @Produce json
// @Param id path string true "Summary ID" format(uuid)
// @Success 200 {object} Response{data=domain.SummaryRecord} "Summary"
// @Failure 400 {object} ErrorResponseBody "Invalid summary ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Summary not found"
// @Security BearerAuth
// @Router /summaries/{id} [get]
func (h *SummaryHandler) GetByID(c *gin.Context) {
	id, ok := parseSummaryID(c)
	if !ok {
		return
	}
	logAccess(c, "get", id.String())

	record, err := h.summaryService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, record)
}

// ExportLabs handles GET /api/v1/summaries/:id/labs.xlsx
// @Summary Export lab values
// @Description Download the lab values of a stored summary as an XLSX workbook
// @Tags summaries
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Summary ID" format(uuid)
// @Success 200 {file} file "XLSX workbook"
// @Failure 400 {object} ErrorResponseBody "Invalid summary ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Summary not found"
// @Security BearerAuth
// @Router /summaries/{id}/labs.xlsx [get]
func (h *SummaryHandler) ExportLabs(c *gin.Context) {
	id, ok := parseSummaryID(c)
	if !ok {
		return
	}
	logAccess(c, "export_labs", id.String())

	export, err := h.summaryService.ExportLabs(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	c.Data(http.StatusOK, xlsxContentType, export.Data)
}

// limitBody caps the request body at MaxFiles full-size files plus multipart overhead.
func (h *SummaryHandler) limitBody(c *gin.Context) {
	maxBytes := h.uploadCfg.MaxFileBytes()
	if maxBytes <= 0 || h.uploadCfg.MaxFiles <= 0 {
		return
	}
	limit := int64(h.uploadCfg.MaxFiles)*maxBytes + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
}

// readUploadedFiles collects the "files" form field, falling back to the legacy
// "file" field. Count and size limits are checked before any file is read.
func (h *SummaryHandler) readUploadedFiles(c *gin.Context) ([]service.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.ErrFileTooLarge
		}
		return nil, domain.ErrNoFileProvided
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return nil, domain.ErrNoFileProvided
	}
	if h.uploadCfg.MaxFiles > 0 && len(headers) > h.uploadCfg.MaxFiles {
		return nil, domain.ErrTooManyFiles
	}
	maxBytes := h.uploadCfg.MaxFileBytes()
	for _, fh := range headers {
		if maxBytes > 0 && fh.Size > maxBytes {
			return nil, domain.ErrFileTooLarge
		}
	}

	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			return nil, fmt.Errorf("reading upload %q: %w", fh.Filename, err)
		}
		files = append(files, service.UploadedFile{Name: fh.Filename, Size: fh.Size, Data: data})
	}
	return files, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// respondEnvelopeError answers the upload endpoint with a fallback envelope so
// clients always receive the same JSON shape.
func respondEnvelopeError(c *gin.Context, err error) {
	status, _, msg := MapDomainError(err)
	logServerError(c, status, err)
	result := normalize.Fallback(msg)
	c.Header(HeaderSummaryKind, string(result.Kind))
	c.Data(status, "application/json", result.Body)
}

// logAccess records who read stored summaries. The subject is empty when auth is disabled.
func logAccess(c *gin.Context, action, summaryID string) {
	zap.L().Info("summaryHandler: history access",
		zap.String("request_id", c.GetString(middleware.ContextKeyRequestID)),
		zap.String("subject", middleware.GetSubject(c)),
		zap.String("action", action),
		zap.String("summary_id", summaryID))
}

func parseSummaryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid summary ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts offset and limit from query params with defaults.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
