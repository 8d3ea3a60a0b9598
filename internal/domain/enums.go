package domain

// ResponseFormat tells the completion provider what shape of text to produce.
type ResponseFormat string

const (
	FormatFreeText   ResponseFormat = "free_text"
	FormatJSONObject ResponseFormat = "json_object"
)

// OutcomeStatus tags a CompletionOutcome.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// EnvelopeKind records how a response envelope was produced.
type EnvelopeKind string

const (
	// EnvelopeStructured is the model's JSON object passed through unchanged.
	EnvelopeStructured EnvelopeKind = "structured"
	// EnvelopeWrapped carries model text that failed to parse as a JSON object.
	EnvelopeWrapped EnvelopeKind = "wrapped"
	// EnvelopeFallback replaces the narrative with an error message.
	EnvelopeFallback EnvelopeKind = "fallback"
)

// PDFContentType is the only upload type the extractor accepts.
const PDFContentType = "application/pdf"
