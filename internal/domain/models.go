package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chunk is one page's extracted text plus its position in the upload batch.
type Chunk struct {
	ChunkID string `json:"chunk_id"`
	Page    int    `json:"page"`
	Text    string `json:"text"`
}

// CompletionRequest is the rendered input for one attempt loop.
type CompletionRequest struct {
	SystemInstructions string
	UserPayload        string
	ResponseFormat     ResponseFormat
}

// CompletionOutcome is the single result of an attempt loop. On success RawText
// holds the model output; on failure LastError holds the most recent error.
type CompletionOutcome struct {
	Status    OutcomeStatus
	RawText   string
	LastError string
	Provider  string
	Model     string
	Attempts  int
}

// Succeeded reports whether the outcome carries model text.
func (o CompletionOutcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// SuccessOutcome builds a success outcome.
func SuccessOutcome(text, provider, model string, attempts int) CompletionOutcome {
	return CompletionOutcome{
		Status:   OutcomeSuccess,
		RawText:  text,
		Provider: provider,
		Model:    model,
		Attempts: attempts,
	}
}

// FailureOutcome builds a failure outcome.
func FailureOutcome(lastErr string, attempts int) CompletionOutcome {
	return CompletionOutcome{
		Status:    OutcomeFailure,
		LastError: lastErr,
		Attempts:  attempts,
	}
}

// SummaryRecord is one stored summarization result.
type SummaryRecord struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	FileNames   StringList      `db:"file_names" json:"file_names"`
	PageCount   int             `db:"page_count" json:"page_count"`
	Provider    string          `db:"provider" json:"provider"`
	Model       string          `db:"model" json:"model"`
	Attempts    int             `db:"attempts" json:"attempts"`
	Kind        EnvelopeKind    `db:"kind" json:"kind"`
	Envelope    json.RawMessage `db:"envelope" json:"envelope"`
	ArchiveKeys StringList      `db:"archive_keys" json:"archive_keys"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// StringList is a string slice stored as a JSONB array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList: unsupported scan type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringList: %w", err)
	}
	*l = out
	return nil
}
