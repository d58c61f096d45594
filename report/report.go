// Package report persists crossing events, to CSV files for spreadsheet
// use and to a SQLite database for later querying.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/parkvision/vehiclecount/counter"
)

// Direction of a crossing event relative to the counting line.
type Direction string

const (
	DirIn  Direction = "in"
	DirOut Direction = "out"
)

// Crossing is a single unit crossing event.
type Crossing struct {
	Label     string
	Direction Direction
}

// Metadata describes the run configuration recorded with the report.
type Metadata struct {
	Session      string
	Source       string
	Model        string
	Confidence   float32
	Orientation  string
	LinePosition float64
	Inverted     bool
}

// CrossingsFromDelta expands a snapshot delta into unit crossing events,
// one per counted vehicle.  Labels are emitted in the map's iteration
// order, callers needing stable order sort the result.
func CrossingsFromDelta(delta counter.Snapshot) []Crossing {

	var events []Crossing

	for label, totals := range delta {

		for i := 0; i < totals.In; i++ {
			events = append(events, Crossing{Label: label, Direction: DirIn})
		}

		for i := 0; i < totals.Out; i++ {
			events = append(events, Crossing{Label: label, Direction: DirOut})
		}
	}

	return events
}

// SanitizeFilename replaces characters that are unsafe in file names with
// underscores.
func SanitizeFilename(name string) string {

	var b strings.Builder

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}

// DefaultFileName returns a timestamped CSV file name for a run.
func DefaultFileName(ts time.Time) string {
	return fmt.Sprintf("counts_%s.csv", ts.Format("20060102_150405"))
}
