package tracker

import (
	"image"
	"sync"
)

// Trail keeps a bounded history of box centroids per track identifier, used
// for drawing movement trails on the output video.
type Trail struct {
	// size is the maximum number of recent points kept per track
	size    int
	history map[int][]image.Point
	sync.Mutex
}

// NewTrail returns a trail history keeping at most size points per track.
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int][]image.Point),
	}
}

// Reset clears all history.
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int][]image.Point)
}

// Add appends the track's current centroid to its history.
func (t *Trail) Add(trk *Track) {
	t.Lock()
	defer t.Unlock()

	r := trk.Rect()
	pt := image.Pt(int(r.X+r.W/2), int(r.Y+r.H/2))

	points := append(t.history[trk.TrackID()], pt)

	if len(points) > t.size {
		points = points[1:]
	}

	t.history[trk.TrackID()] = points
}

// Points returns the centroid history for a track identifier, oldest first.
func (t *Trail) Points(id int) []image.Point {
	t.Lock()
	defer t.Unlock()

	return t.history[id]
}
