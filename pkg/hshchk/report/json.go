package report

import (
	"bytes"
	"encoding/json"
)

// jsonReport adds a printable duration to Report.
type jsonReport struct {
	Report
	Duration string `json:"duration"`
}

// JSONFormatter writes the report as one indented JSON object.
type JSONFormatter struct{}

// Format writes the report to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{Report: *r, Duration: r.Duration.String()})
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
