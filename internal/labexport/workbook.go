package labexport

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"medbrief/internal/domain"
)

const (
	labSheet    = "Lab Results"
	sourceSheet = "Source"
)

// columns defines the lab sheet header row.
var columns = []string{
	"Test",
	"Value",
	"Unit",
	"Reference Range",
	"Flag",
	"Date",
	"Pages",
}

// LabRows decodes the lab_data list from a stored envelope. Entries are read
// leniently: numbers become strings and unexpected shapes are skipped.
func LabRows(envelope json.RawMessage) ([]domain.LabValue, error) {
	var env struct {
		LabData json.RawMessage `json:"lab_data"`
	}
	if err := json.Unmarshal(envelope, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	var raw []map[string]interface{}
	if len(env.LabData) == 0 || json.Unmarshal(env.LabData, &raw) != nil {
		return []domain.LabValue{}, nil
	}

	rows := make([]domain.LabValue, 0, len(raw))
	for _, m := range raw {
		lv := domain.LabValue{
			Test:           str(m["test"]),
			Value:          str(m["value"]),
			Unit:           str(m["unit"]),
			ReferenceRange: str(m["reference_range"]),
			Flag:           str(m["flag"]),
			Date:           str(m["date"]),
			Pages:          pages(m["pages"]),
		}
		if lv.Test == "" && lv.Value == "" {
			continue
		}
		rows = append(rows, lv)
	}
	return rows, nil
}

// BuildWorkbook renders the record's lab values as an XLSX workbook.
func BuildWorkbook(rec *domain.SummaryRecord) ([]byte, error) {
	labs, err := LabRows(rec.Envelope)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), labSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(labSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(labSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}

	for i := range labs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := labToRow(&labs[i])
		if err := f.SetSheetRow(labSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(labSheet, "A", "A", 28)
	_ = f.SetColWidth(labSheet, "B", lastCol, 16)

	if _, err := f.NewSheet(sourceSheet); err != nil {
		return nil, fmt.Errorf("creating source sheet: %w", err)
	}
	source := [][]interface{}{
		{"Summary ID", rec.ID.String()},
		{"Files", strings.Join(rec.FileNames, ", ")},
		{"Pages", rec.PageCount},
		{"Model", strings.Trim(rec.Provider+"/"+rec.Model, "/")},
		{"Created At", rec.CreatedAt.Format(time.RFC3339)},
	}
	for i := range source {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sourceSheet, cell, &source[i]); err != nil {
			return nil, fmt.Errorf("writing source row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// labToRow converts a lab value to a sheet row. Numeric values are written as
// numbers so they can be charted.
func labToRow(lv *domain.LabValue) []interface{} {
	var value interface{} = lv.Value
	if f, err := strconv.ParseFloat(strings.TrimSpace(lv.Value), 64); err == nil {
		value = f
	}
	pageList := make([]string, len(lv.Pages))
	for i, p := range lv.Pages {
		pageList[i] = strconv.Itoa(p)
	}
	return []interface{}{
		lv.Test,
		value,
		lv.Unit,
		lv.ReferenceRange,
		lv.Flag,
		lv.Date,
		strings.Join(pageList, ", "),
	}
}

func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func pages(v interface{}) []int {
	list, ok := v.([]interface{})
	if !ok {
		return []int{}
	}
	out := make([]int, 0, len(list))
	for _, p := range list {
		if f, ok := p.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans an uploaded file name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns the attachment name for a record's lab export.
// Format: {sanitized_first_file}_labs_{YYYY-MM-DD}.xlsx
func BuildFilename(rec *domain.SummaryRecord) string {
	base := "summary"
	if len(rec.FileNames) > 0 {
		if s := SanitizeFilename(strings.TrimSuffix(rec.FileNames[0], ".pdf")); s != "" {
			base = s
		}
	}
	return fmt.Sprintf("%s_labs_%s.xlsx", base, rec.CreatedAt.Format("2006-01-02"))
}
