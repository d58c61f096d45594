package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/parkvision/vehiclecount/counter"
)

// CSVWriter writes crossing events to a semicolon separated file, one row
// per unit crossing plus a terminal summary row.
type CSVWriter struct {
	f      *os.File
	w      *csv.Writer
	labels []string
}

// NewCSVWriter creates the CSV file, writes the run metadata rows and the
// column header.  labels fixes the per label column order for the whole
// file.
func NewCSVWriter(path string, labels []string, meta Metadata) (*CSVWriter, error) {

	f, err := os.Create(path)

	if err != nil {
		return nil, fmt.Errorf("error creating report file: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'

	cw := &CSVWriter{
		f:      f,
		w:      w,
		labels: labels,
	}

	// run metadata rows
	metaRows := [][]string{
		{"session", meta.Session},
		{"source", meta.Source},
		{"model", meta.Model},
		{"confidence", strconv.FormatFloat(float64(meta.Confidence), 'f', 2, 32)},
		{"orientation", meta.Orientation},
		{"line_position", strconv.FormatFloat(meta.LinePosition, 'f', 2, 64)},
		{"inverted", strconv.FormatBool(meta.Inverted)},
	}

	for _, row := range metaRows {
		if err := w.Write(row); err != nil {
			f.Close()
			return nil, fmt.Errorf("error writing metadata: %w", err)
		}
	}

	// column header
	header := []string{"time", "frame", "label", "direction"}

	for _, label := range labels {
		header = append(header,
			label+"_in", label+"_out", label+"_inv")
	}

	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return cw, nil
}

// WriteCrossing writes a crossing event row with the counter state after
// the event.
func (cw *CSVWriter) WriteCrossing(ts time.Time, frame int, ev Crossing,
	snap counter.Snapshot) error {

	row := []string{
		ts.Format(time.RFC3339),
		strconv.Itoa(frame),
		ev.Label,
		string(ev.Direction),
	}

	row = append(row, cw.totalColumns(snap)...)

	if err := cw.w.Write(row); err != nil {
		return fmt.Errorf("error writing crossing row: %w", err)
	}

	return nil
}

// WriteSummary writes the terminal summary row with the final counter
// state.
func (cw *CSVWriter) WriteSummary(ts time.Time, frames int,
	snap counter.Snapshot) error {

	row := []string{
		ts.Format(time.RFC3339),
		strconv.Itoa(frames),
		"SUMMARY",
		"",
	}

	row = append(row, cw.totalColumns(snap)...)

	if err := cw.w.Write(row); err != nil {
		return fmt.Errorf("error writing summary row: %w", err)
	}

	return nil
}

// Close flushes buffered rows and closes the file.
func (cw *CSVWriter) Close() error {

	cw.w.Flush()

	if err := cw.w.Error(); err != nil {
		cw.f.Close()
		return fmt.Errorf("error flushing report: %w", err)
	}

	return cw.f.Close()
}

// totalColumns renders the per label count columns in header order.
func (cw *CSVWriter) totalColumns(snap counter.Snapshot) []string {

	var cols []string

	for _, label := range cw.labels {
		totals := snap[label]
		cols = append(cols,
			strconv.Itoa(totals.In),
			strconv.Itoa(totals.Out),
			strconv.Itoa(totals.Inventory))
	}

	return cols
}
