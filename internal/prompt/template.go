package prompt

import "medbrief/internal/domain"

// Template is the fixed instruction text sent with every summary request.
type Template struct {
	System       string
	Instructions string
	OutputSchema string
	Format       domain.ResponseFormat
}

// SystemRules constrains the model to summarising stated facts only.
const SystemRules = `You are a medical document summarization assistant.

STRICT RULES:
- DO NOT diagnose any condition
- DO NOT suggest treatments or medications
- DO NOT infer missing medical information
- DO NOT add medical opinions
- ONLY summarize facts explicitly present in the text
- If information is unclear, do NOT guess

Your task is ONLY to extract and summarize existing information.

All output MUST be factual, neutral, and verifiable.`

// TaskInstructions precedes the output schema in the user payload.
const TaskInstructions = `You are given redacted medical document chunks.

TASK:
- Create a structured summary of the documents
- Every finding, medication, timeline event and lab value MUST reference its source page numbers
- ONLY include information explicitly present in the chunks
- Use an empty string or empty list when a field is not stated
- Lab values: copy the value, unit and reference range exactly as written; set "flag" to "high", "low" or "normal" only when the document states it
- Charts: only propose a chart when the same lab test has two or more dated numeric values
- Guidance: only general, non-clinical next steps such as discussing the report with a doctor

Return ONLY valid JSON with no markdown formatting, no code fences and no explanation.`

// SummarySchema is the output shape requested from the model.
const SummarySchema = `{
  "patient_profile": {
    "name": "",
    "age": "",
    "gender": "",
    "report_date": ""
  },
  "summary": "Short neutral narrative of the documents",
  "key_findings": [
    {"text": "Factual statement here", "pages": [2]}
  ],
  "medications": [
    {"name": "", "dosage": "", "frequency": "", "pages": [1]}
  ],
  "timeline": [
    {"date": "", "event": "", "pages": [1]}
  ],
  "lab_data": [
    {"test": "", "value": "", "unit": "", "reference_range": "", "flag": "", "date": "", "pages": [1]}
  ],
  "charts": [
    {"title": "", "type": "line", "unit": "", "points": [{"label": "", "value": 0}]}
  ],
  "guidance": [""]
}`

// DefaultTemplate returns the template used by the upload endpoint.
func DefaultTemplate() Template {
	return Template{
		System:       SystemRules,
		Instructions: TaskInstructions,
		OutputSchema: SummarySchema,
		Format:       domain.FormatJSONObject,
	}
}
