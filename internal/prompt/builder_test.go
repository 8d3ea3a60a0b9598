package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbrief/internal/domain"
	"medbrief/internal/prompt"
)

func sampleChunks() []domain.Chunk {
	return []domain.Chunk{
		{ChunkID: "P1-C1", Page: 1, Text: "Patient: A. Rao, 54 F"},
		{ChunkID: "P2-C1", Page: 2, Text: "Hemoglobin is 9.8 g/dL (ref 12-15)"},
		{ChunkID: "P3-C1", Page: 3, Text: "Metformin 500 mg twice daily"},
	}
}

func TestBuild_ContainsEveryChunkVerbatimInOrder(t *testing.T) {
	req := prompt.Build(sampleChunks(), prompt.DefaultTemplate())

	last := -1
	for _, c := range sampleChunks() {
		idx := strings.Index(req.UserPayload, c.Text)
		require.GreaterOrEqual(t, idx, 0, "chunk %s missing", c.ChunkID)
		assert.Greater(t, idx, last, "chunk %s out of order", c.ChunkID)
		last = idx
	}
}

func TestBuild_ChunkBlockFormat(t *testing.T) {
	req := prompt.Build(sampleChunks()[1:2], prompt.DefaultTemplate())

	assert.Contains(t, req.UserPayload, "[Chunk ID: P2-C1]\n[Page: 2]\nText:\nHemoglobin is 9.8 g/dL (ref 12-15)\n")
}

func TestBuild_EmbedsSchemaVerbatim(t *testing.T) {
	tmpl := prompt.DefaultTemplate()
	req := prompt.Build(sampleChunks(), tmpl)

	assert.Contains(t, req.UserPayload, prompt.SummarySchema)
	assert.Contains(t, req.UserPayload, prompt.TaskInstructions)
	assert.Equal(t, prompt.SystemRules, req.SystemInstructions)
	assert.Equal(t, domain.FormatJSONObject, req.ResponseFormat)
}

func TestBuild_DoesNotDeduplicate(t *testing.T) {
	dup := []domain.Chunk{
		{ChunkID: "D1-P1-C1", Page: 1, Text: "same text"},
		{ChunkID: "D2-P1-C1", Page: 1, Text: "same text"},
	}

	req := prompt.Build(dup, prompt.DefaultTemplate())

	assert.Equal(t, 2, strings.Count(req.UserPayload, "same text"))
	assert.Less(t, strings.Index(req.UserPayload, "D1-P1-C1"), strings.Index(req.UserPayload, "D2-P1-C1"))
}

func TestBuild_Deterministic(t *testing.T) {
	a := prompt.Build(sampleChunks(), prompt.DefaultTemplate())
	b := prompt.Build(sampleChunks(), prompt.DefaultTemplate())
	assert.Equal(t, a, b)
}

func TestBuild_CustomTemplate(t *testing.T) {
	tmpl := prompt.Template{System: "sys", Instructions: "do the thing", Format: domain.FormatFreeText}

	req := prompt.Build(sampleChunks()[:1], tmpl)

	assert.Equal(t, "sys", req.SystemInstructions)
	assert.True(t, strings.HasPrefix(req.UserPayload, "do the thing"))
	assert.NotContains(t, req.UserPayload, "OUTPUT FORMAT")
	assert.Equal(t, domain.FormatFreeText, req.ResponseFormat)
}

func TestDefaultTemplate_NamesEveryEnvelopeField(t *testing.T) {
	for _, f := range domain.EnvelopeFields {
		assert.Contains(t, prompt.SummarySchema, `"`+f+`"`)
	}
}
