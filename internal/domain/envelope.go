package domain

// SummaryEnvelope is the stable response shape returned to the presentation
// layer. Every list field is always present, empty rather than null.
type SummaryEnvelope struct {
	PatientProfile PatientProfile  `json:"patient_profile"`
	Summary        string          `json:"summary"`
	KeyFindings    []Finding       `json:"key_findings"`
	Medications    []Medication    `json:"medications"`
	Timeline       []TimelineEvent `json:"timeline"`
	LabData        []LabValue      `json:"lab_data"`
	Charts         []Chart         `json:"charts"`
	Guidance       []string        `json:"guidance"`

	Error      string `json:"error,omitempty"`
	RawSummary string `json:"rawSummary,omitempty"`
	Note       string `json:"note,omitempty"`
}

// EnvelopeFields lists the top-level keys every envelope carries.
var EnvelopeFields = []string{
	"patient_profile",
	"summary",
	"key_findings",
	"medications",
	"timeline",
	"lab_data",
	"charts",
	"guidance",
}

// PatientProfile holds the demographic details stated in the report.
type PatientProfile struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	ReportDate string `json:"report_date"`
}

// Finding is one factual statement with the pages it was taken from.
type Finding struct {
	Text  string `json:"text"`
	Pages []int  `json:"pages"`
}

// Medication is a drug mentioned in the report.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Pages     []int  `json:"pages"`
}

// TimelineEvent is a dated event mentioned in the report.
type TimelineEvent struct {
	Date  string `json:"date"`
	Event string `json:"event"`
	Pages []int  `json:"pages"`
}

// LabValue is a single lab test result.
type LabValue struct {
	Test           string `json:"test"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"reference_range"`
	Flag           string `json:"flag"`
	Date           string `json:"date"`
	Pages          []int  `json:"pages"`
}

// Chart describes a series the front end may plot.
type Chart struct {
	Title  string       `json:"title"`
	Type   string       `json:"type"`
	Unit   string       `json:"unit"`
	Points []ChartPoint `json:"points"`
}

// ChartPoint is a single labelled value in a Chart.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// NewEnvelope returns an envelope with every list initialised to empty.
func NewEnvelope() SummaryEnvelope {
	return SummaryEnvelope{
		KeyFindings: []Finding{},
		Medications: []Medication{},
		Timeline:    []TimelineEvent{},
		LabData:     []LabValue{},
		Charts:      []Chart{},
		Guidance:    []string{},
	}
}
