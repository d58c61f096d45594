package tracker

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// trackState is the lifecycle state of a track.
type trackState int

const (
	stateNew trackState = iota
	stateTracked
	stateLost
	stateRemoved
)

// Track is a single tracked object.  It carries a Kalman filtered bounding
// box, the class label of the underlying detections and a track identifier
// that is stable while the object stays tracked.
type Track struct {
	kf   *kalmanFilter
	mean []float64
	cov  *mat.Dense

	box       Rect
	state     trackState
	activated bool
	score     float32
	label     string

	id         int
	frameID    int
	startFrame int
	length     int
}

// NewTrack creates an unactivated track from a detection box.
func NewTrack(box Rect, score float32, label string) *Track {
	return &Track{
		kf:    newKalmanFilter(1.0/20, 1.0/160),
		mean:  make([]float64, 8),
		cov:   mat.NewDense(8, 8, nil),
		box:   box,
		state: stateNew,
		score: score,
		label: label,
	}
}

// TrackID returns the identifier assigned when the track was activated,
// zero for unactivated tracks.
func (t *Track) TrackID() int {
	return t.id
}

// Rect returns the current Kalman filtered bounding box.
func (t *Track) Rect() Rect {
	return t.box
}

// Label returns the class label of the tracked object.
func (t *Track) Label() string {
	return t.label
}

// Score returns the detection score of the most recent update.
func (t *Track) Score() float32 {
	return t.score
}

// Activated reports whether the track has been confirmed.
func (t *Track) Activated() bool {
	return t.activated
}

// FrameID returns the frame the track was last updated on.
func (t *Track) FrameID() int {
	return t.frameID
}

// StartFrame returns the frame the track was activated on.
func (t *Track) StartFrame() int {
	return t.startFrame
}

// activate initializes the filter state and assigns the track identifier.
func (t *Track) activate(frameID, id int) {

	t.kf.initiate(t.mean, t.cov, t.box.xyah())
	t.syncBox()

	t.state = stateTracked

	// tracks appearing on the very first frame are trusted immediately
	if frameID == 1 {
		t.activated = true
	}

	t.id = id
	t.frameID = frameID
	t.startFrame = frameID
	t.length = 0
}

// reActivate revives a lost track with a fresh detection, keeping its
// identifier.
func (t *Track) reActivate(det *Track, frameID int) error {

	if err := t.kf.update(t.mean, t.cov, det.box.xyah()); err != nil {
		return fmt.Errorf("reactivating track %d: %w", t.id, err)
	}

	t.syncBox()

	t.state = stateTracked
	t.activated = true
	t.score = det.score
	t.frameID = frameID
	t.length = 0

	return nil
}

// predict advances the filter by one frame.
func (t *Track) predict() {

	// a track that is not actively tracked has no reliable height velocity
	if t.state != stateTracked {
		t.mean[7] = 0
	}

	t.kf.predict(t.mean, t.cov)
}

// update corrects the track with a matched detection.
func (t *Track) update(det *Track, frameID int) error {

	if err := t.kf.update(t.mean, t.cov, det.box.xyah()); err != nil {
		return fmt.Errorf("updating track %d: %w", t.id, err)
	}

	t.syncBox()

	t.state = stateTracked
	t.activated = true
	t.score = det.score
	t.frameID = frameID
	t.length++

	return nil
}

func (t *Track) markLost() {
	t.state = stateLost
}

func (t *Track) markRemoved() {
	t.state = stateRemoved
}

// syncBox rebuilds the bounding box from the filter state mean.
func (t *Track) syncBox() {
	h := float32(t.mean[3])
	w := float32(t.mean[2]) * h
	t.box = Rect{
		X: float32(t.mean[0]) - w/2,
		Y: float32(t.mean[1]) - h/2,
		W: w,
		H: h,
	}
}
