package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"medbrief/internal/config"
	"medbrief/internal/domain"
	"medbrief/internal/handler"
	"medbrief/internal/middleware"
	"medbrief/internal/service"
	"medbrief/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const pdfBytes = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n"

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func testUploadConfig() *config.UploadConfig {
	return &config.UploadConfig{MaxFileSizeMB: 1, MaxFiles: 2}
}

func newSummaryRouter(svc service.SummaryService) *gin.Engine {
	h := handler.NewSummaryHandler(svc, testUploadConfig())
	r := gin.New()
	r.POST("/summaries", h.Create)
	r.GET("/summaries", h.List)
	r.GET("/summaries/:id", h.GetByID)
	r.GET("/summaries/:id/labs.xlsx", h.ExportLabs)
	return r
}

func postFiles(t *testing.T, r http.Handler, files ...formFile) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, "/summaries", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSummaryHandler_Create_Success(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	id := uuid.New()
	svc.On("Summarize", mock.Anything, mock.MatchedBy(func(in service.SummarizeInput) bool {
		return len(in.Files) == 2 && in.Files[0].Name == "a.pdf" && string(in.Files[1].Data) == pdfBytes
	})).Return(&service.SummarizeResult{
		ID:       id,
		Body:     json.RawMessage(`{"summary":"ok"}`),
		Kind:     domain.EnvelopeStructured,
		Conforms: false,
		Attempts: 3,
	}, nil)

	w := postFiles(t, newSummaryRouter(svc),
		formFile{"files", "a.pdf", pdfBytes},
		formFile{"files", "b.pdf", pdfBytes})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"ok"}`, w.Body.String())
	assert.Equal(t, id.String(), w.Header().Get(handler.HeaderSummaryID))
	assert.Equal(t, "structured", w.Header().Get(handler.HeaderSummaryKind))
	assert.Equal(t, "3", w.Header().Get(handler.HeaderSummaryAttempts))
	assert.Equal(t, "nonconforming", w.Header().Get(handler.HeaderSummarySchema))
	svc.AssertExpectations(t)
}

func TestSummaryHandler_Create_LegacyFileField(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	svc.On("Summarize", mock.Anything, mock.MatchedBy(func(in service.SummarizeInput) bool {
		return len(in.Files) == 1 && in.Files[0].Name == "legacy.pdf"
	})).Return(&service.SummarizeResult{
		ID:       uuid.New(),
		Body:     json.RawMessage(`{"summary":"ok"}`),
		Kind:     domain.EnvelopeStructured,
		Conforms: true,
		Attempts: 1,
	}, nil)

	w := postFiles(t, newSummaryRouter(svc), formFile{"file", "legacy.pdf", pdfBytes})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "conforming", w.Header().Get(handler.HeaderSummarySchema))
	svc.AssertExpectations(t)
}

func TestSummaryHandler_Create_NoFile(t *testing.T) {
	svc := new(mocks.MockSummaryService)

	w := postFiles(t, newSummaryRouter(svc))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "No file provided", env["error"])
	assert.Contains(t, env["summary"], "No file provided")
	assert.Equal(t, []interface{}{}, env["lab_data"])
	svc.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestSummaryHandler_Create_NotMultipart(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	req := httptest.NewRequest(http.MethodPost, "/summaries", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	newSummaryRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file provided", decodeEnvelope(t, w)["error"])
}

func TestSummaryHandler_Create_ServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"no text", domain.ErrNoExtractableText, http.StatusBadRequest, "Could not extract text from any of the PDFs"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "File exceeds maximum allowed size"},
		{"too many", domain.ErrTooManyFiles, http.StatusBadRequest, "Too many files in one upload"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "an internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockSummaryService)
			svc.On("Summarize", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := postFiles(t, newSummaryRouter(svc), formFile{"files", "a.pdf", pdfBytes})

			assert.Equal(t, tt.status, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tt.message, env["error"])
			assert.Equal(t, "fallback", w.Header().Get(handler.HeaderSummaryKind))
		})
	}
}

func TestSummaryHandler_Create_OversizedPartRejectedBeforeRead(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	big := pdfBytes + strings.Repeat("x", (1<<20)+512)

	w := postFiles(t, newSummaryRouter(svc), formFile{"files", "big.pdf", big})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "File exceeds maximum allowed size", decodeEnvelope(t, w)["error"])
	svc.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestSummaryHandler_Create_BodyOverCapRejected(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	// 2 files x 1 MiB plus overhead is the cap; 5 MiB overflows it while parsing
	huge := pdfBytes + strings.Repeat("x", 5<<20)

	w := postFiles(t, newSummaryRouter(svc), formFile{"files", "huge.pdf", huge})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	svc.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestSummaryHandler_Create_TooManyFiles(t *testing.T) {
	svc := new(mocks.MockSummaryService)

	w := postFiles(t, newSummaryRouter(svc),
		formFile{"files", "a.pdf", pdfBytes},
		formFile{"files", "b.pdf", pdfBytes},
		formFile{"files", "c.pdf", pdfBytes})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Too many files in one upload", decodeEnvelope(t, w)["error"])
	svc.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestSummaryHandler_List(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	records := []domain.SummaryRecord{{ID: uuid.New(), Kind: domain.EnvelopeStructured, CreatedAt: time.Now()}}
	svc.On("List", mock.Anything, 10, 5).Return(records, 11, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/summaries?offset=10&limit=5", http.NoBody)
	newSummaryRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, handler.PagMeta{Total: 11, Offset: 10, Limit: 5}, *resp.Meta)
	svc.AssertExpectations(t)
}

func TestSummaryHandler_GetByID_LogsSubject(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	id := uuid.New()
	svc := new(mocks.MockSummaryService)
	svc.On("Get", mock.Anything, id).Return(&domain.SummaryRecord{ID: id}, nil)

	h := handler.NewSummaryHandler(svc, testUploadConfig())
	r := gin.New()
	r.GET("/summaries/:id", func(c *gin.Context) {
		c.Set(middleware.ContextKeySubject, "ward-7")
		c.Next()
	}, h.GetByID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summaries/"+id.String(), http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	entries := logs.FilterMessage("summaryHandler: history access").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ward-7", fields["subject"])
	assert.Equal(t, "get", fields["action"])
	assert.Equal(t, id.String(), fields["summary_id"])
}

func TestSummaryHandler_List_DefaultPagination(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	svc.On("List", mock.Anything, 0, 20).Return(nil, 0, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/summaries?limit=1000&offset=-3", http.NoBody)
	newSummaryRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
	svc.AssertExpectations(t)
}

func TestSummaryHandler_GetByID(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(&domain.SummaryRecord{
		ID:       id,
		Kind:     domain.EnvelopeWrapped,
		Envelope: json.RawMessage(`{"summary":"x"}`),
	}, nil)

	w := httptest.NewRecorder()
	newSummaryRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summaries/"+id.String(), http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
	assert.Contains(t, w.Body.String(), `"envelope":{"summary":"x"}`)
}

func TestSummaryHandler_GetByID_NotFound(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(nil, domain.ErrSummaryNotFound)

	w := httptest.NewRecorder()
	newSummaryRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summaries/"+id.String(), http.NoBody))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "SUMMARY_NOT_FOUND")
}

func TestSummaryHandler_GetByID_InvalidID(t *testing.T) {
	svc := new(mocks.MockSummaryService)

	w := httptest.NewRecorder()
	newSummaryRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summaries/not-a-uuid", http.NoBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ID")
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestSummaryHandler_ExportLabs(t *testing.T) {
	svc := new(mocks.MockSummaryService)
	id := uuid.New()
	svc.On("ExportLabs", mock.Anything, id).Return(&service.LabExport{
		Filename: "report_labs_2024-03-05.xlsx",
		Data:     []byte("PK-xlsx"),
	}, nil)

	w := httptest.NewRecorder()
	newSummaryRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summaries/"+id.String()+"/labs.xlsx", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="report_labs_2024-03-05.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Equal(t, "PK-xlsx", w.Body.String())
}
