package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medbrief/internal/config"
	"medbrief/internal/domain"
	"medbrief/internal/labexport"
	"medbrief/internal/normalize"
	"medbrief/internal/port"
	"medbrief/internal/prompt"
)

// UploadedFile is one file taken from the upload request.
type UploadedFile struct {
	Name string
	Size int64
	Data []byte
}

// SummarizeInput is the DTO for summary requests.
type SummarizeInput struct {
	Files []UploadedFile
}

// SummarizeResult is the normalized envelope plus how it was produced.
type SummarizeResult struct {
	ID        uuid.UUID
	Body      json.RawMessage
	Kind      domain.EnvelopeKind
	Conforms  bool
	Provider  string
	Model     string
	Attempts  int
	PageCount int
}

// LabExport is a rendered lab workbook.
type LabExport struct {
	Filename string
	Data     []byte
}

// SummaryService defines the summarization contract.
type SummaryService interface {
	Summarize(ctx context.Context, input SummarizeInput) (*SummarizeResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.SummaryRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.SummaryRecord, int, error)
	ExportLabs(ctx context.Context, id uuid.UUID) (*LabExport, error)
}

type summaryService struct {
	extractor  port.TextExtractor
	completer  port.Completer
	normalizer *normalize.Normalizer
	repo       port.SummaryRepository
	storage    port.ObjectStorage
	template   prompt.Template
	uploadCfg  *config.UploadConfig
	timeout    time.Duration
}

// NewSummaryService creates a new SummaryService implementation.
func NewSummaryService(
	extractor port.TextExtractor,
	completer port.Completer,
	normalizer *normalize.Normalizer,
	repo port.SummaryRepository,
	storage port.ObjectStorage,
	uploadCfg *config.UploadConfig,
	completionCfg *config.CompletionConfig,
) SummaryService {
	return &summaryService{
		extractor:  extractor,
		completer:  completer,
		normalizer: normalizer,
		repo:       repo,
		storage:    storage,
		template:   prompt.DefaultTemplate(),
		uploadCfg:  uploadCfg,
		timeout:    completionCfg.RequestTimeout(),
	}
}

func (s *summaryService) Summarize(ctx context.Context, input SummarizeInput) (*SummarizeResult, error) {
	if len(input.Files) == 0 {
		return nil, domain.ErrNoFileProvided
	}
	if s.uploadCfg.MaxFiles > 0 && len(input.Files) > s.uploadCfg.MaxFiles {
		return nil, domain.ErrTooManyFiles
	}
	maxBytes := s.uploadCfg.MaxFileBytes()
	for _, f := range input.Files {
		size := f.Size
		if size == 0 {
			size = int64(len(f.Data))
		}
		if maxBytes > 0 && size > maxBytes {
			return nil, domain.ErrFileTooLarge
		}
	}

	id := uuid.New()
	var (
		chunks      []domain.Chunk
		fileNames   []string
		archiveKeys []string
	)
	for i, f := range input.Files {
		idPrefix := ""
		if len(input.Files) > 1 {
			idPrefix = fmt.Sprintf("D%d-", i+1)
		}

		if detected := http.DetectContentType(f.Data); detected != domain.PDFContentType {
			zap.L().Warn("summaryService.Summarize: skipping non-PDF upload",
				zap.String("file", f.Name), zap.String("detected", detected))
			continue
		}

		fileChunks, err := s.extractor.Extract(ctx, f.Data, idPrefix)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			zap.L().Warn("summaryService.Summarize: extraction failed",
				zap.String("file", f.Name), zap.Error(err))
			continue
		}
		fileNames = append(fileNames, f.Name)
		chunks = append(chunks, fileChunks...)

		if key := s.archive(ctx, id, i+1, f); key != "" {
			archiveKeys = append(archiveKeys, key)
		}
	}

	if len(chunks) == 0 {
		return nil, domain.ErrNoExtractableText
	}

	zap.L().Info("summaryService.Summarize: requesting completion",
		zap.String("summary_id", id.String()),
		zap.Int("files", len(fileNames)),
		zap.Int("chunks", len(chunks)))

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	outcome := s.completer.Complete(cctx, prompt.Build(chunks, s.template))
	result := s.normalizer.FromOutcome(outcome)

	if outcome.Succeeded() {
		zap.L().Info("summaryService.Summarize: completion succeeded",
			zap.String("summary_id", id.String()),
			zap.String("provider", outcome.Provider),
			zap.String("model", outcome.Model),
			zap.Int("attempts", outcome.Attempts),
			zap.String("kind", string(result.Kind)))
	} else {
		zap.L().Error("summaryService.Summarize: completion exhausted",
			zap.String("summary_id", id.String()),
			zap.Int("attempts", outcome.Attempts),
			zap.String("last_error", outcome.LastError))
	}

	s.record(ctx, &domain.SummaryRecord{
		ID:          id,
		FileNames:   fileNames,
		PageCount:   len(chunks),
		Provider:    outcome.Provider,
		Model:       outcome.Model,
		Attempts:    outcome.Attempts,
		Kind:        result.Kind,
		Envelope:    result.Body,
		ArchiveKeys: archiveKeys,
	})

	return &SummarizeResult{
		ID:        id,
		Body:      result.Body,
		Kind:      result.Kind,
		Conforms:  result.Conforms(),
		Provider:  outcome.Provider,
		Model:     outcome.Model,
		Attempts:  outcome.Attempts,
		PageCount: len(chunks),
	}, nil
}

// archive stores the original upload. Failures are logged and do not affect the summary.
func (s *summaryService) archive(ctx context.Context, id uuid.UUID, n int, f UploadedFile) string {
	if s.storage == nil {
		return ""
	}
	key := fmt.Sprintf("uploads/%s/%d-%s", id, n, path.Base(f.Name))
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Key:         key,
		Body:        bytes.NewReader(f.Data),
		ContentType: domain.PDFContentType,
		Size:        int64(len(f.Data)),
	})
	if err != nil {
		zap.L().Warn("summaryService.archive: upload failed",
			zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

// record persists the summary. Failures are logged and do not affect the response;
// archived uploads of a record that could not be stored are removed again.
func (s *summaryService) record(ctx context.Context, rec *domain.SummaryRecord) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		zap.L().Warn("summaryService.record: failed to store summary",
			zap.String("summary_id", rec.ID.String()), zap.Error(err))
		s.discardArchive(ctx, rec.ArchiveKeys)
	}
}

func (s *summaryService) discardArchive(ctx context.Context, keys []string) {
	if s.storage == nil {
		return
	}
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			zap.L().Warn("summaryService.discardArchive: delete failed",
				zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *summaryService) Get(ctx context.Context, id uuid.UUID) (*domain.SummaryRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *summaryService) List(ctx context.Context, offset, limit int) ([]domain.SummaryRecord, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *summaryService) ExportLabs(ctx context.Context, id uuid.UUID) (*LabExport, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := labexport.BuildWorkbook(rec)
	if err != nil {
		return nil, fmt.Errorf("building lab workbook: %w", err)
	}
	return &LabExport{Filename: labexport.BuildFilename(rec), Data: data}, nil
}
