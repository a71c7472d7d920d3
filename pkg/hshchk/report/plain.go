package report

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// PlainFormatter writes a key/value header followed by an anomaly table.
type PlainFormatter struct{}

// Format writes the report to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	rows := [][2]string{
		{"Root:", r.Root},
		{"Mode:", r.Mode},
		{"Algorithm:", r.Algorithm},
		{"Manifest:", r.Manifest},
		{"Result:", r.Result},
		{"Files:", humanize.Comma(r.Totals.FilesProcessed)},
		{"Hashed:", humanize.IBytes(r.Totals.BytesHashed)},
		{"Duration:", r.Duration.String()},
		{"Errors:", fmt.Sprint(r.Totals.Errors)},
		{"Warnings:", fmt.Sprint(r.Totals.Warnings)},
	}
	if r.RunID != "" {
		rows = append([][2]string{{"Run:", r.RunID}}, rows...)
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Anomalies) == 0 {
		return nil
	}

	w.WriteByte('\n')
	tw = tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if _, err := tw.Write([]byte("STATE\tPATH\n")); err != nil {
		return err
	}
	for _, a := range r.Anomalies {
		state := a.State
		if a.Error != "" {
			state = fmt.Sprintf("%s(%s)", a.State, a.Error)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", state, a.Path); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
