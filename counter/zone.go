package counter

import (
	"fmt"

	clipper "github.com/ctessum/go.clipper"
)

// Zone is an optional region of interest polygon.  Observations whose box
// centroid falls outside the zone are dropped before counting, which keeps
// crossings on out-of-scene lanes or mirrored reflections from being
// tallied.
type Zone struct {
	path clipper.Path
}

// NewZone builds a zone from a closed pixel polygon.  At least three
// vertices are required.
func NewZone(points []Point) (*Zone, error) {

	if len(points) < 3 {
		return nil, fmt.Errorf("zone polygon needs at least 3 points, got %d", len(points))
	}

	var path clipper.Path

	for _, pt := range points {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X),
			Y: clipper.CInt(pt.Y),
		})
	}

	return &Zone{path: path}, nil
}

// Contains reports whether p lies inside the zone.  Points exactly on the
// polygon boundary count as inside.
func (z *Zone) Contains(p Point) bool {

	pt := &clipper.IntPoint{X: clipper.CInt(p.X), Y: clipper.CInt(p.Y)}

	return clipper.PointInPolygon(pt, z.path) != 0
}

// Filter returns the observations whose centroid lies inside the zone.  A
// nil zone passes the batch through unchanged.
func (z *Zone) Filter(batch []Observation) []Observation {

	if z == nil {
		return batch
	}

	kept := batch[:0:0]

	for _, obs := range batch {
		cx := (obs.Box.Min.X + obs.Box.Max.X) / 2
		cy := (obs.Box.Min.Y + obs.Box.Max.Y) / 2

		if z.Contains(Point{cx, cy}) {
			kept = append(kept, obs)
		}
	}

	return kept
}
