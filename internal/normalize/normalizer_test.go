package normalize_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbrief/internal/domain"
	"medbrief/internal/normalize"
)

const conformingBody = `{
  "patient_profile": {"name": "A. Rao", "age": "54", "gender": "F", "report_date": "2024-03-02"},
  "summary": "CBC and metabolic panel.",
  "key_findings": [{"text": "Hemoglobin is 9.8 g/dL", "pages": [2]}],
  "medications": [],
  "timeline": [],
  "lab_data": [{"test": "Hemoglobin", "value": 9.8, "unit": "g/dL", "reference_range": "12-15", "flag": "low", "date": null, "pages": [2]}],
  "charts": [],
  "guidance": ["Discuss these results with your doctor."]
}`

func decode(t *testing.T, body json.RawMessage) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func assertFixedShape(t *testing.T, body json.RawMessage) map[string]interface{} {
	t.Helper()
	m := decode(t, body)
	for _, f := range domain.EnvelopeFields {
		v, ok := m[f]
		require.True(t, ok, "missing field %s", f)
		require.NotNil(t, v, "field %s is null", f)
	}
	for _, f := range []string{"key_findings", "medications", "timeline", "lab_data", "charts", "guidance"} {
		_, ok := m[f].([]interface{})
		assert.True(t, ok, "field %s should be a list", f)
	}
	return m
}

func TestNormalize_StructuredPassesThroughUnchanged(t *testing.T) {
	n := normalize.MustNew()

	res := n.Normalize(conformingBody)

	assert.Equal(t, domain.EnvelopeStructured, res.Kind)
	assert.Equal(t, conformingBody, string(res.Body))
	assert.True(t, res.Conforms())
}

func TestNormalize_Idempotent(t *testing.T) {
	n := normalize.MustNew()

	once := n.Normalize(conformingBody)
	twice := n.Normalize(string(once.Body))

	assert.Equal(t, once.Body, twice.Body)
	assert.Equal(t, domain.EnvelopeStructured, twice.Kind)
}

func TestNormalize_WrappedIsIdempotent(t *testing.T) {
	n := normalize.MustNew()

	wrapped := n.Normalize("plain text summary")
	again := n.Normalize(string(wrapped.Body))

	assert.Equal(t, wrapped.Body, again.Body)
	assert.Equal(t, domain.EnvelopeStructured, again.Kind)
}

func TestNormalize_NonConformingStillUnchanged(t *testing.T) {
	n := normalize.MustNew()
	raw := `{"summary":[{"section":"Key Findings","points":[{"text":"x","pages":[1]}]}]}`

	res := n.Normalize(raw)

	assert.Equal(t, domain.EnvelopeStructured, res.Kind)
	assert.Equal(t, raw, string(res.Body))
	assert.False(t, res.Conforms())
	assert.Error(t, res.SchemaErr)
}

func TestNormalize_MalformedIsWrapped(t *testing.T) {
	n := normalize.MustNew()
	raw := "Here is the summary:\n```json\n{\"summary\": \"x\"}\n```"

	res := n.Normalize(raw)

	assert.Equal(t, domain.EnvelopeWrapped, res.Kind)
	m := assertFixedShape(t, res.Body)
	assert.Equal(t, raw, m["rawSummary"])
	assert.Equal(t, normalize.WrappedNote, m["note"])
	_, hasErr := m["error"]
	assert.False(t, hasErr)
}

func TestNormalize_NonObjectJSONIsWrapped(t *testing.T) {
	n := normalize.MustNew()

	for _, raw := range []string{`["a","b"]`, `"just a string"`, `42`, `null`} {
		t.Run(raw, func(t *testing.T) {
			res := n.Normalize(raw)
			assert.Equal(t, domain.EnvelopeWrapped, res.Kind)
			m := assertFixedShape(t, res.Body)
			assert.Equal(t, raw, m["rawSummary"])
		})
	}
}

func TestFromOutcome_FailureIsFallback(t *testing.T) {
	n := normalize.MustNew()

	res := n.FromOutcome(domain.FailureOutcome("No credentials configured", 0))

	assert.Equal(t, domain.EnvelopeFallback, res.Kind)
	m := assertFixedShape(t, res.Body)
	assert.Equal(t, "Summary unavailable: No credentials configured", m["summary"])
	assert.Equal(t, "No credentials configured", m["error"])
	assert.Empty(t, m["lab_data"])
	assert.Empty(t, m["key_findings"])
}

func TestFromOutcome_SuccessIsNormalized(t *testing.T) {
	n := normalize.MustNew()

	res := n.FromOutcome(domain.SuccessOutcome(conformingBody, "openai", "llama-3.1-8b-instant", 1))

	assert.Equal(t, domain.EnvelopeStructured, res.Kind)
	assert.JSONEq(t, conformingBody, string(res.Body))
}

func TestFallback_Shape(t *testing.T) {
	res := normalize.Fallback("Could not extract text from any of the PDFs")

	assert.Equal(t, domain.EnvelopeFallback, res.Kind)
	m := assertFixedShape(t, res.Body)
	assert.Equal(t, "Could not extract text from any of the PDFs", m["error"])
	profile := m["patient_profile"].(map[string]interface{})
	assert.Equal(t, "", profile["name"])
}
