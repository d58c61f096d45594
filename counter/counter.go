// Package counter implements the line-crossing counting engine.  It converts
// per frame batches of tracked object observations into directional IN/OUT
// crossing events and maintains per class tallies and a running inventory.
package counter

import (
	"image"
)

// Observation is a single tracked object visible in the current frame.
type Observation struct {
	// TrackID is the persistent identifier assigned by the external
	// tracker.  The zero value means the tracker assigned no identity and
	// the observation is skipped, a crossing cannot be attributed without
	// persistent identity.
	TrackID int
	// Box is the axis aligned bounding box in pixel coordinates.
	Box image.Rectangle
	// Label is the normalized class label, eg: "car" or "motorcycle".
	Label string
}

// Counter counts objects crossing a line, keeping cumulative IN/OUT totals
// and a running inventory per class label.  A Counter is owned by a single
// video session and must not be mutated concurrently.
type Counter struct {
	line    Line
	invert  bool
	labels  []string
	initial map[string]int

	in        map[string]int
	out       map[string]int
	inventory map[string]int

	// lastSide keeps the last nonzero side value seen per track id.
	// Entries are removed the moment the id is absent from a frame.
	lastSide map[int]int
}

// New returns a Counter for the given line.  labels is the set of class
// labels to track, order preserved, duplicates collapsed.  invert flips the
// IN/OUT direction.  initial supplies optional starting inventory values per
// label, labels not present start at zero.  Inputs are accepted as given, a
// degenerate line (A == B) is not validated and yields no crossings.
func New(line Line, labels []string, invert bool, initial map[string]int) *Counter {

	c := &Counter{
		line:      line,
		invert:    invert,
		initial:   make(map[string]int),
		in:        make(map[string]int),
		out:       make(map[string]int),
		inventory: make(map[string]int),
		lastSide:  make(map[int]int),
	}

	for _, label := range labels {
		if _, ok := c.in[label]; ok {
			continue
		}
		c.labels = append(c.labels, label)
		c.in[label] = 0
		c.out[label] = 0
		c.initial[label] = initial[label]
		c.inventory[label] = initial[label]
	}

	return c
}

// Update consumes the full set of observations visible in the current frame
// and updates the tallies.  Frames must be presented in capture order, the
// counter has no concept of timestamps and infers direction purely from call
// order.  Observations are independent within a batch, each track is tested
// against its own prior state only.
func (c *Counter) Update(batch []Observation) {

	if len(batch) == 0 {
		// nothing seen this frame, side history is left untouched
		return
	}

	current := make(map[int]struct{}, len(batch))

	for _, obs := range batch {

		if obs.TrackID == 0 {
			continue
		}

		current[obs.TrackID] = struct{}{}

		// truncating integer centroid of the bounding box
		cx := (obs.Box.Min.X + obs.Box.Max.X) / 2
		cy := (obs.Box.Min.Y + obs.Box.Max.Y) / 2

		side := c.line.Side(Point{cx, cy})
		prev, seen := c.lastSide[obs.TrackID]

		// store the last determinate side, a reading of exactly zero
		// never overwrites a known nonzero side
		switch {
		case side != 0:
			c.lastSide[obs.TrackID] = side
		case !seen:
			c.lastSide[obs.TrackID] = 0
		}

		// first sightings and on-line frames never produce a count
		if !seen || prev == 0 || side == 0 {
			continue
		}

		crossed := (prev > 0 && side < 0) || (prev < 0 && side > 0)

		if !crossed {
			continue
		}

		in := prev < 0 && side > 0

		if c.invert {
			in = !in
		}

		if in {
			c.in[obs.Label]++
			c.inventory[obs.Label]++
		} else {
			c.out[obs.Label]++
			c.inventory[obs.Label]--
		}
	}

	// purge identifiers not present in this frame.  A track lost by the
	// tracker for even one frame restarts as a first sighting, a crossing
	// spanning the gap is lost.
	for id := range c.lastSide {
		if _, ok := current[id]; !ok {
			delete(c.lastSide, id)
		}
	}
}

// Reset restores all configured labels to zero counts and their initial
// inventory and clears the side history.  Idempotent.  Geometry and labels
// are unchanged.
func (c *Counter) Reset() {

	for _, label := range c.labels {
		c.in[label] = 0
		c.out[label] = 0
		c.inventory[label] = c.initial[label]
	}

	c.lastSide = make(map[int]int)
}

// In returns the cumulative entry count for label, zero for labels never
// counted.
func (c *Counter) In(label string) int {
	return c.in[label]
}

// Out returns the cumulative exit count for label, zero for labels never
// counted.
func (c *Counter) Out(label string) int {
	return c.out[label]
}

// Inventory returns the running net count for label.  It may go negative
// under noisy input.
func (c *Counter) Inventory(label string) int {
	return c.inventory[label]
}

// Labels returns the configured labels in configuration order.
func (c *Counter) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Line returns the counting line geometry.
func (c *Counter) Line() Line {
	return c.line
}
