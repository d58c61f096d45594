package vehiclecount

import (
	"database/sql"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parkvision/vehiclecount/counter"
	"github.com/parkvision/vehiclecount/detect"
	"github.com/parkvision/vehiclecount/report"
	"github.com/parkvision/vehiclecount/tracker"
	"gocv.io/x/gocv"
)

// closeTrackingDetector records whether the session released it.
type closeTrackingDetector struct {
	closed bool
}

func (d *closeTrackingDetector) Detect(frame gocv.Mat) ([]detect.Detection, error) {
	return nil, nil
}

func (d *closeTrackingDetector) Close() error {
	d.closed = true
	return nil
}

func TestToTrackerDetections(t *testing.T) {

	dets := []detect.Detection{
		{Box: image.Rect(10, 20, 110, 70), Label: "car", Score: 0.9},
	}

	got := toTrackerDetections(dets)

	if len(got) != 1 {
		t.Fatalf("got %d detections, want 1", len(got))
	}

	if got[0].Label != "car" || got[0].Score != 0.9 {
		t.Errorf("detection = %+v", got[0])
	}

	r := got[0].Rect

	if r.X != 10 || r.Y != 20 || r.W != 100 || r.H != 50 {
		t.Errorf("rect = %+v", r)
	}
}

func TestObservations(t *testing.T) {

	trk := tracker.NewTrack(tracker.NewRect(10, 20, 100, 50), 0.9, "truck")

	got := observations([]*tracker.Track{trk})

	if len(got) != 1 {
		t.Fatalf("got %d observations, want 1", len(got))
	}

	if got[0].Label != "truck" {
		t.Errorf("label = %q, want truck", got[0].Label)
	}

	// unactivated tracks carry the zero identity, the counter skips them
	if got[0].TrackID != 0 {
		t.Errorf("track ID = %d, want 0", got[0].TrackID)
	}

	if got[0].Box != image.Rect(10, 20, 110, 70) {
		t.Errorf("box = %v", got[0].Box)
	}
}

func TestTotalInventory(t *testing.T) {

	snap := counter.Snapshot{
		"car":   {Inventory: 5},
		"truck": {Inventory: -2},
	}

	if got := totalInventory(snap); got != 3 {
		t.Errorf("totalInventory = %d, want 3", got)
	}

	if got := totalInventory(counter.Snapshot{}); got != 0 {
		t.Errorf("empty totalInventory = %d, want 0", got)
	}
}

func TestUpdateCapacityTransitions(t *testing.T) {

	p := &Processor{cfg: Config{Capacity: 3}}

	p.updateCapacity(2)

	if p.lotFull {
		t.Error("lot reported full below capacity")
	}

	p.updateCapacity(3)

	if !p.lotFull {
		t.Error("lot not reported full at capacity")
	}

	p.updateCapacity(4)

	if !p.lotFull {
		t.Error("lot not reported full above capacity")
	}

	p.updateCapacity(1)

	if p.lotFull {
		t.Error("lot still reported full after dropping below capacity")
	}
}

func TestPublishSnapshotDropsOldest(t *testing.T) {

	p := &Processor{snapshots: make(chan counter.Snapshot, 2)}

	for i := 1; i <= 3; i++ {
		p.publishSnapshot(counter.Snapshot{
			"car": {In: i},
		})
	}

	// oldest entry was dropped to make room for the third
	first := <-p.snapshots

	if first["car"].In != 2 {
		t.Errorf("first queued snapshot has In = %d, want 2", first["car"].In)
	}

	second := <-p.snapshots

	if second["car"].In != 3 {
		t.Errorf("second queued snapshot has In = %d, want 3", second["car"].In)
	}

	select {
	case extra := <-p.snapshots:
		t.Errorf("unexpected extra snapshot %v", extra)
	default:
	}
}

// TestFinishReleasesResources checks a session releases every resource on
// finish, even when the frame loop ended early: the detector is closed,
// the report is flushed with its summary row, the run row is finalized and
// the snapshot queue is closed so readers ranging over it return.
func TestFinishReleasesResources(t *testing.T) {

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "counts.db")
	csvPath := filepath.Join(dir, "counts.csv")

	meta := report.Metadata{
		Session:      "0e3c2b5a-aa11-4a5e-9c7e-2f4d8b6c1d90",
		Source:       "lot.mp4",
		Model:        "yolov8n.onnx",
		Confidence:   0.3,
		Orientation:  "vertical",
		LinePosition: 0.5,
	}

	store, err := report.NewStore(dbPath)

	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	if err := store.BeginRun(meta, time.Now()); err != nil {
		t.Fatalf("failed to begin run: %v", err)
	}

	csv, err := report.NewCSVWriter(csvPath, []string{"car"}, meta)

	if err != nil {
		t.Fatalf("failed to create report: %v", err)
	}

	det := &closeTrackingDetector{}

	line := counter.Line{A: counter.Point{X: 50, Y: 0}, B: counter.Point{X: 50, Y: 100}}

	p := &Processor{
		cfg:       DefaultConfig(),
		session:   meta.Session,
		det:       det,
		cnt:       counter.New(line, []string{"car"}, false, nil),
		csv:       csv,
		store:     store,
		snapshots: make(chan counter.Snapshot, 4),
		startedAt: time.Now(),
		frames:    7,
	}

	if err := p.finish(); err != nil {
		t.Fatalf("finish returned %v", err)
	}

	if !det.closed {
		t.Error("detector was not closed")
	}

	if _, ok := <-p.snapshots; ok {
		t.Error("snapshot queue was not closed")
	}

	data, err := os.ReadFile(csvPath)

	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}

	if !strings.Contains(string(data), "SUMMARY") {
		t.Error("report is missing the summary row")
	}

	reopened, err := report.NewStore(dbPath)

	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}

	defer reopened.Close()

	var finished sql.NullString
	var frames int

	err = reopened.QueryRow(
		`SELECT finished_at, frames FROM runs WHERE id = ?`,
		meta.Session).Scan(&finished, &frames)

	if err != nil {
		t.Fatalf("failed to read run row: %v", err)
	}

	if !finished.Valid {
		t.Error("run row was not finalized")
	}

	if frames != 7 {
		t.Errorf("run row has %d frames, want 7", frames)
	}
}

func TestUpdateCapacityDisabled(t *testing.T) {

	p := &Processor{cfg: Config{Capacity: 0}}

	p.updateCapacity(100)

	if p.lotFull {
		t.Error("capacity alert fired with capacity disabled")
	}
}
