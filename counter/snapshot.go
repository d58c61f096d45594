package counter

// Totals is the aggregate state for one class label at a point in time.
type Totals struct {
	In        int `json:"in"`
	Out       int `json:"out"`
	Inventory int `json:"inventory"`
}

// Snapshot is a copy of the counter's aggregate state per label.  The
// counter only exposes accumulated totals, event style sinks diff successive
// snapshots themselves to discover new crossings.
type Snapshot map[string]Totals

// Snapshot copies the current aggregate state.  Labels counted ad hoc
// (outside the configured set) are included.
func (c *Counter) Snapshot() Snapshot {

	snap := make(Snapshot, len(c.in))

	// ad hoc labels may exist in only one of the maps
	for _, m := range []map[string]int{c.in, c.out, c.inventory} {
		for label := range m {
			if _, ok := snap[label]; ok {
				continue
			}
			snap[label] = Totals{
				In:        c.in[label],
				Out:       c.out[label],
				Inventory: c.inventory[label],
			}
		}
	}

	return snap
}

// Sub returns the per label difference s minus prev.  Labels present in
// either snapshot appear in the result.
func (s Snapshot) Sub(prev Snapshot) Snapshot {

	diff := make(Snapshot, len(s))

	for label, cur := range s {
		old := prev[label]
		diff[label] = Totals{
			In:        cur.In - old.In,
			Out:       cur.Out - old.Out,
			Inventory: cur.Inventory - old.Inventory,
		}
	}

	for label, old := range prev {
		if _, ok := s[label]; !ok {
			diff[label] = Totals{
				In:        -old.In,
				Out:       -old.Out,
				Inventory: -old.Inventory,
			}
		}
	}

	return diff
}

// Events reports whether the snapshot contains any nonzero IN or OUT count.
// Used on diffed snapshots to decide whether new crossings occurred.
func (s Snapshot) Events() bool {

	for _, t := range s {
		if t.In != 0 || t.Out != 0 {
			return true
		}
	}

	return false
}
