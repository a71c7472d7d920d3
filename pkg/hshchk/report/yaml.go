package report

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// yamlReport adds a printable duration to Report.
type yamlReport struct {
	Report   `yaml:",inline"`
	Duration string `yaml:"duration"`
}

// YAMLFormatter writes the report as YAML with the same fields as JSON.
type YAMLFormatter struct{}

// Format writes the report to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(yamlReport{Report: *r, Duration: r.Duration.String()}); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

var _ Formatter = (*YAMLFormatter)(nil)
