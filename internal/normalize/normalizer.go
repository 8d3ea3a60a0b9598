package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"medbrief/internal/domain"
)

// WrappedNote is attached to envelopes built around unstructured model output.
const WrappedNote = "upstream did not return strict structured data"

// Result is a normalized response body ready to send to the client.
type Result struct {
	Body json.RawMessage
	Kind domain.EnvelopeKind
	// SchemaErr is set when a structured body does not follow the envelope
	// schema. The body is never altered because of it.
	SchemaErr error
}

// Conforms reports whether the body passed schema validation.
func (r Result) Conforms() bool {
	return r.SchemaErr == nil
}

// Normalizer turns completion outcomes into stable-shaped envelopes.
type Normalizer struct {
	schema *jsonschema.Schema
}

// New compiles the envelope schema.
func New() (*Normalizer, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("summary.schema.json", strings.NewReader(envelopeSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("summary.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Normalizer{schema: schema}, nil
}

// MustNew is New for process start-up; it panics if the embedded schema is invalid.
func MustNew() *Normalizer {
	n, err := New()
	if err != nil {
		panic(err)
	}
	return n
}

// Normalize parses raw as a JSON object. A JSON object is returned unchanged;
// anything else is wrapped so the original text is kept.
func (n *Normalizer) Normalize(raw string) Result {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		if _, ok := v.(map[string]interface{}); ok {
			res := Result{Body: json.RawMessage(raw), Kind: domain.EnvelopeStructured}
			if err := n.schema.Validate(v); err != nil {
				res.SchemaErr = fmt.Errorf("json does not match schema: %w", err)
				zap.L().Warn("normalize.Normalize: nonconforming structured output", zap.Error(err))
			}
			return res
		}
	}

	env := domain.NewEnvelope()
	env.Summary = strings.TrimSpace(raw)
	env.RawSummary = raw
	env.Note = WrappedNote
	return Result{Body: mustMarshal(env), Kind: domain.EnvelopeWrapped}
}

// FromOutcome normalizes a completion outcome. Failures become the fallback envelope.
func (n *Normalizer) FromOutcome(outcome domain.CompletionOutcome) Result {
	if !outcome.Succeeded() {
		return Fallback(outcome.LastError)
	}
	return n.Normalize(outcome.RawText)
}

// Fallback builds the fixed-shape envelope carrying an error message.
func Fallback(msg string) Result {
	env := domain.NewEnvelope()
	env.Summary = "Summary unavailable: " + msg
	env.Error = msg
	return Result{Body: mustMarshal(env), Kind: domain.EnvelopeFallback}
}

func mustMarshal(env domain.SummaryEnvelope) json.RawMessage {
	b, err := json.Marshal(env)
	if err != nil {
		// SummaryEnvelope holds only strings, numbers and slices of them.
		panic(fmt.Sprintf("marshal envelope: %v", err))
	}
	return b
}
