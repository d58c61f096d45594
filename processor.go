package vehiclecount

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/parkvision/vehiclecount/counter"
	"github.com/parkvision/vehiclecount/detect"
	"github.com/parkvision/vehiclecount/render"
	"github.com/parkvision/vehiclecount/report"
	"github.com/parkvision/vehiclecount/tracker"
	"gocv.io/x/gocv"
)

// trailLength is the number of centroid points kept per track for drawing
const trailLength = 90

// capacityBlinkInterval is the frame cycle of the full-lot alert
const capacityBlinkInterval = 30

// snapshotQueueSize bounds the snapshot queue read by UI pollers
const snapshotQueueSize = 16

// Processor runs one counting session over a video source.  It owns the
// detector, tracker, counter and sinks and is driven by a single
// goroutine.
type Processor struct {
	cfg     Config
	session string

	det    detect.Detector
	filter *detect.ClassFilter
	trk    *tracker.Tracker
	trail  *tracker.Trail
	zone   *counter.Zone
	orient counter.Orientation

	// cnt is created on the first decoded frame once the line geometry
	// is known
	cnt      *counter.Counter
	prevSnap counter.Snapshot

	csv   *report.CSVWriter
	store *report.Store
	srv   *Server
	font  *render.TTFFace

	// snapshots is a bounded queue of periodic counter snapshots for
	// best-effort readers, newest entries win when the queue is full
	snapshots chan counter.Snapshot
	progress  func(frame int, snap counter.Snapshot)

	startedAt time.Time
	frames    int
	lotFull   bool
}

// NewProcessor builds a session from the config.  The counting line itself
// is resolved from the first decoded frame.
func NewProcessor(cfg Config) (*Processor, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	orient, err := counter.ParseOrientation(cfg.Orientation)

	if err != nil {
		return nil, err
	}

	p := &Processor{
		cfg:       cfg,
		session:   uuid.NewString(),
		orient:    orient,
		filter:    detect.NewClassFilter(cfg.Labels),
		trk:       tracker.NewDefaultTracker(cfg.FrameRate),
		trail:     tracker.NewTrail(trailLength),
		snapshots: make(chan counter.Snapshot, snapshotQueueSize),
	}

	// load in model class names
	labels, err := detect.LoadLabels(cfg.LabelFile)

	if err != nil {
		return nil, fmt.Errorf("error loading model labels: %w", err)
	}

	p.det, err = detect.NewYOLODetector(cfg.ModelFile, labels, detect.YOLOParams{
		InputSize:    cfg.InputSize,
		BoxThreshold: cfg.Confidence,
		NMSThreshold: cfg.IoU,
	})

	if err != nil {
		return nil, fmt.Errorf("error loading model: %w", err)
	}

	if len(cfg.Zone) > 0 {
		p.zone, err = counter.NewZone(cfg.Zone)

		if err != nil {
			p.det.Close()
			return nil, err
		}
	}

	if cfg.FontFile != "" {
		p.font, err = render.LoadTTFFace(cfg.FontFile, 16)

		if err != nil {
			p.det.Close()
			return nil, err
		}
	}

	if cfg.DBFile != "" {
		p.store, err = report.NewStore(cfg.DBFile)

		if err != nil {
			p.det.Close()
			return nil, err
		}
	}

	return p, nil
}

// Session returns the run's UUID.
func (p *Processor) Session() string {
	return p.session
}

// AttachServer connects a live view server the processor publishes
// annotated frames to.
func (p *Processor) AttachServer(srv *Server) {
	p.srv = srv
}

// SetProgress installs a callback invoked after every processed frame.
// It runs on the processing goroutine and must return quickly.
func (p *Processor) SetProgress(fn func(frame int, snap counter.Snapshot)) {
	p.progress = fn
}

// Snapshots returns the bounded queue of periodic counter snapshots.
// Readers poll it instead of touching the counter's live state; when the
// queue is full the oldest entry is dropped.  The channel is closed when
// the session finishes.
func (p *Processor) Snapshots() <-chan counter.Snapshot {
	return p.snapshots
}

// publishSnapshot offers a snapshot to the queue, dropping the oldest
// entry rather than blocking the frame loop.
func (p *Processor) publishSnapshot(snap counter.Snapshot) {

	select {
	case p.snapshots <- snap:
		return
	default:
	}

	// queue full, make room and retry once
	select {
	case <-p.snapshots:
	default:
	}

	select {
	case p.snapshots <- snap:
	default:
	}
}

// metadata describes the run for the report sinks.
func (p *Processor) metadata() report.Metadata {
	return report.Metadata{
		Session:      p.session,
		Source:       p.cfg.Source,
		Model:        p.cfg.ModelFile,
		Confidence:   p.cfg.Confidence,
		Orientation:  p.orient.String(),
		LinePosition: p.cfg.LinePosition,
		Inverted:     p.cfg.Invert,
	}
}

// Run processes the video source until it ends or ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {

	p.startedAt = time.Now()

	runErr := p.run(ctx)

	// resources are released even when a frame or sink failed, a failed
	// session still flushes its report and finalizes its run row
	if err := p.finish(); err != nil && runErr == nil {
		runErr = err
	}

	return runErr
}

// run drives the frame loop.  Cleanup is left to finish, which the caller
// invokes on every return path.
func (p *Processor) run(ctx context.Context) error {

	video, err := openCapture(p.cfg.Source)

	if err != nil {
		return fmt.Errorf("error opening video source %s: %w", p.cfg.Source, err)
	}

	defer video.Close()

	if p.store != nil {
		if err := p.store.BeginRun(p.metadata(), p.startedAt); err != nil {
			return err
		}
	}

	if p.cfg.CSVEnabled {

		name := p.cfg.CSVName

		if name == "" {
			name = report.DefaultFileName(p.startedAt)
		}

		path := filepath.Join(p.cfg.CSVDir, report.SanitizeFilename(name))
		p.csv, err = report.NewCSVWriter(path, p.cfg.Labels, p.metadata())

		if err != nil {
			return err
		}

		log.Printf("Writing report to %s", path)
	}

	img := gocv.NewMat()
	defer img.Close()

loop:
	for {
		select {
		case <-ctx.Done():
			log.Printf("Session cancelled")
			break loop

		default:
		}

		// read the next frame from the video
		if ok := video.Read(&img); !ok {
			// reached last video frame
			break
		}

		if img.Empty() {
			continue
		}

		if err := p.processFrame(&img, time.Now()); err != nil {
			return err
		}
	}

	return nil
}

// processFrame runs the detect, track, count pipeline on one frame.
func (p *Processor) processFrame(img *gocv.Mat, now time.Time) error {

	// resolve line geometry from the first frame and hold it for the
	// whole session
	if p.cnt == nil {
		line := counter.LineForFrame(p.orient, p.cfg.LinePosition,
			img.Cols(), img.Rows())
		p.cnt = counter.New(line, p.cfg.Labels, p.cfg.Invert,
			p.cfg.InitialInventory)
		p.prevSnap = p.cnt.Snapshot()

		log.Printf("Counting line from (%d,%d) to (%d,%d)",
			line.A.X, line.A.Y, line.B.X, line.B.Y)
	}

	dets, err := p.det.Detect(*img)

	if err != nil {
		// a failed detection leaves this frame uncounted but keeps the
		// session alive
		log.Printf("Error detecting objects on frame %d: %v", p.frames, err)
		dets = nil
	}

	dets = p.filter.Filter(dets)

	tracks, err := p.trk.Update(toTrackerDetections(dets))

	if err != nil {
		return fmt.Errorf("tracker failed on frame %d: %w", p.frames, err)
	}

	for _, trk := range tracks {
		p.trail.Add(trk)
	}

	obs := observations(tracks)

	if p.zone != nil {
		obs = p.zone.Filter(obs)
	}

	p.cnt.Update(obs)

	snap := p.cnt.Snapshot()
	delta := snap.Sub(p.prevSnap)

	if delta.Events() {
		if err := p.recordCrossings(now, delta, snap); err != nil {
			return err
		}
	}

	p.updateCapacity(totalInventory(snap))

	if p.srv != nil {
		if err := p.publishFrame(img, tracks, snap); err != nil {
			log.Printf("Error publishing frame %d: %v", p.frames, err)
		}
	}

	p.publishSnapshot(snap)

	if p.progress != nil {
		p.progress(p.frames, snap)
	}

	p.prevSnap = snap
	p.frames++

	return nil
}

// recordCrossings expands the snapshot delta into unit events and writes
// them to the configured sinks.
func (p *Processor) recordCrossings(now time.Time, delta,
	snap counter.Snapshot) error {

	for _, ev := range report.CrossingsFromDelta(delta) {

		inventory := snap[ev.Label].Inventory

		log.Printf("%s %s at frame %d, inventory now %d",
			ev.Label, ev.Direction, p.frames, inventory)

		if p.csv != nil {
			if err := p.csv.WriteCrossing(now, p.frames, ev, snap); err != nil {
				return err
			}
		}

		if p.store != nil {
			if err := p.store.RecordCrossing(p.session, now, p.frames,
				ev, inventory); err != nil {
				return err
			}
		}
	}

	return nil
}

// updateCapacity tracks full-lot transitions and logs them once per
// transition.
func (p *Processor) updateCapacity(total int) {

	if p.cfg.Capacity <= 0 {
		return
	}

	full := total >= p.cfg.Capacity

	if full && !p.lotFull {
		log.Printf("Lot full: %d of %d", total, p.cfg.Capacity)
	}

	if !full && p.lotFull {
		log.Printf("Lot has free space: %d of %d", total, p.cfg.Capacity)
	}

	p.lotFull = full
}

// publishFrame annotates a copy of the frame and hands the JPEG encoding
// to the live view server.
func (p *Processor) publishFrame(img *gocv.Mat, tracks []*tracker.Track,
	snap counter.Snapshot) error {

	resImg := gocv.NewMat()
	defer resImg.Close()

	img.CopyTo(&resImg)

	p.annotate(&resImg, tracks, snap)

	buf, err := gocv.IMEncode(".jpg", resImg)

	if err != nil {
		return fmt.Errorf("error encoding frame: %w", err)
	}

	defer buf.Close()

	// copy out of the native buffer before it is freed
	frame := make([]byte, len(buf.GetBytes()))
	copy(frame, buf.GetBytes())

	p.srv.Publish(frame, snap)

	return nil
}

// annotate draws the counting line, zone, tracked boxes, trails and HUD
// on the image.
func (p *Processor) annotate(img *gocv.Mat, tracks []*tracker.Track,
	snap counter.Snapshot) {

	render.CountingLine(img, p.cnt.Line(), render.DefaultLineStyle())

	if p.zone != nil {
		render.ZoneOutline(img, p.cfg.Zone, render.Green, 1)
	}

	render.TrackBoxes(img, tracks, render.DefaultFont(), 1)
	render.Trails(img, tracks, p.trail, render.DefaultTrailStyle())

	if p.cfg.DrawHUD {
		render.HUD(img, snap, render.DefaultHUDStyle())
	}

	if p.font != nil {
		text := fmt.Sprintf("inventory %d", totalInventory(snap))

		if err := p.font.DrawText(img, text, 10, img.Rows()-14, render.White); err != nil {
			log.Printf("Error drawing HUD text: %v", err)
		}
	}

	if p.lotFull {
		render.CapacityAlert(img, p.frames, capacityBlinkInterval,
			render.DefaultHUDStyle())
	}
}

// finish writes the summary row, closes every sink and the detector and
// logs the final totals.  A failing step never skips the remaining
// releases, the first error is returned.
func (p *Processor) finish() error {

	now := time.Now()

	var firstErr error

	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if p.cnt != nil {

		snap := p.cnt.Snapshot()

		for _, label := range p.cnt.Labels() {
			totals := snap[label]
			log.Printf("%s: in %d, out %d, inventory %d",
				label, totals.In, totals.Out, totals.Inventory)
		}

		if p.csv != nil {
			keep(p.csv.WriteSummary(now, p.frames, snap))
		}
	}

	if p.csv != nil {
		keep(p.csv.Close())
		p.csv = nil
	}

	if p.store != nil {
		keep(p.store.FinishRun(p.session, now, p.frames))
		keep(p.store.Close())
		p.store = nil
	}

	if p.font != nil {
		p.font.Close()
		p.font = nil
	}

	// unblocks readers ranging over the snapshot queue
	close(p.snapshots)

	log.Printf("Processed %d frames in %s", p.frames,
		time.Since(p.startedAt).Round(time.Millisecond))

	keep(p.det.Close())

	return firstErr
}

// openCapture opens a video file, or a webcam when the source is a plain
// device index.
func openCapture(source string) (*gocv.VideoCapture, error) {

	if id, err := strconv.Atoi(source); err == nil {
		return gocv.VideoCaptureDevice(id)
	}

	return gocv.VideoCaptureFile(source)
}

// toTrackerDetections converts detector output to tracker input.
func toTrackerDetections(dets []detect.Detection) []tracker.Detection {

	var res []tracker.Detection

	for _, det := range dets {
		res = append(res, tracker.Detection{
			Rect:  tracker.RectFromBox(det.Box),
			Label: det.Label,
			Score: det.Score,
		})
	}

	return res
}

// observations converts tracked boxes to counter observations.
func observations(tracks []*tracker.Track) []counter.Observation {

	var res []counter.Observation

	for _, trk := range tracks {
		res = append(res, counter.Observation{
			TrackID: trk.TrackID(),
			Box:     trk.Rect().Box(),
			Label:   trk.Label(),
		})
	}

	return res
}

// totalInventory sums the inventory across all labels.
func totalInventory(snap counter.Snapshot) int {

	var total int

	for _, totals := range snap {
		total += totals.Inventory
	}

	return total
}
