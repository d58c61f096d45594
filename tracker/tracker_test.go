package tracker

import (
	"image"
	"testing"
)

// det builds a high confidence detection at the given top-left corner.
func det(x, y float32, label string) Detection {
	return Detection{
		Rect:  NewRect(x, y, 60, 40),
		Label: label,
		Score: 0.9,
	}
}

func TestTrackerStableID(t *testing.T) {

	tk := NewDefaultTracker(30)

	var id int

	// object drifts right a few pixels per frame
	for frame := 0; frame < 10; frame++ {

		tracks, err := tk.Update([]Detection{det(float32(100+frame*4), 100, "car")})

		if err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}

		if len(tracks) != 1 {
			t.Fatalf("frame %d: got %d tracks, want 1", frame, len(tracks))
		}

		if frame == 0 {
			id = tracks[0].TrackID()

			if id != 1 {
				t.Errorf("first track ID = %d, want 1", id)
			}
		}

		if tracks[0].TrackID() != id {
			t.Errorf("frame %d: track ID = %d, want %d", frame, tracks[0].TrackID(), id)
		}

		if tracks[0].Label() != "car" {
			t.Errorf("frame %d: label = %q, want car", frame, tracks[0].Label())
		}
	}
}

func TestTrackerDistinctIDs(t *testing.T) {

	tk := NewDefaultTracker(30)

	dets := []Detection{
		det(50, 50, "car"),
		det(400, 300, "truck"),
	}

	var tracks []*Track
	var err error

	for frame := 0; frame < 5; frame++ {
		tracks, err = tk.Update(dets)

		if err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
	}

	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}

	if tracks[0].TrackID() == tracks[1].TrackID() {
		t.Errorf("both tracks share ID %d", tracks[0].TrackID())
	}
}

func TestTrackerLosesVanishedObject(t *testing.T) {

	tk := NewDefaultTracker(30)

	for frame := 0; frame < 3; frame++ {
		if _, err := tk.Update([]Detection{det(100, 100, "car")}); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
	}

	// object leaves the scene
	tracks, err := tk.Update(nil)

	if err != nil {
		t.Fatalf("empty frame: %v", err)
	}

	if len(tracks) != 0 {
		t.Errorf("got %d tracks after object vanished, want 0", len(tracks))
	}
}

func TestTrackerRecoversLostObject(t *testing.T) {

	tk := NewDefaultTracker(30)

	var id int

	for frame := 0; frame < 3; frame++ {

		tracks, err := tk.Update([]Detection{det(100, 100, "car")})

		if err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}

		if len(tracks) == 1 {
			id = tracks[0].TrackID()
		}
	}

	// two empty frames, then the object reappears close by
	for frame := 0; frame < 2; frame++ {
		if _, err := tk.Update(nil); err != nil {
			t.Fatalf("empty frame %d: %v", frame, err)
		}
	}

	tracks, err := tk.Update([]Detection{det(104, 100, "car")})

	if err != nil {
		t.Fatalf("reappearance: %v", err)
	}

	if len(tracks) != 1 {
		t.Fatalf("got %d tracks on reappearance, want 1", len(tracks))
	}

	if tracks[0].TrackID() != id {
		t.Errorf("recovered track ID = %d, want %d", tracks[0].TrackID(), id)
	}
}

func TestTrackerLowScoreStartsNoTrack(t *testing.T) {

	tk := NewDefaultTracker(30)

	low := Detection{Rect: NewRect(100, 100, 60, 40), Label: "car", Score: 0.3}

	for frame := 0; frame < 5; frame++ {

		tracks, err := tk.Update([]Detection{low})

		if err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}

		if len(tracks) != 0 {
			t.Errorf("frame %d: low score detection produced %d tracks", frame, len(tracks))
		}
	}
}

func TestTrackerReset(t *testing.T) {

	tk := NewDefaultTracker(30)

	for frame := 0; frame < 3; frame++ {
		if _, err := tk.Update([]Detection{det(100, 100, "car")}); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
	}

	tk.Reset()

	tracks, err := tk.Update([]Detection{det(100, 100, "car")})

	if err != nil {
		t.Fatalf("after reset: %v", err)
	}

	if len(tracks) != 1 || tracks[0].TrackID() != 1 {
		t.Errorf("after reset: tracks = %v, want single track with ID 1", tracks)
	}
}

func TestTrailBound(t *testing.T) {

	trail := NewTrail(3)

	trk := NewTrack(NewRect(0, 0, 10, 10), 0.9, "car")
	trk.activate(1, 7)

	for i := 0; i < 5; i++ {
		trk.box = NewRect(float32(i*10), 0, 10, 10)
		trail.Add(trk)
	}

	points := trail.Points(7)

	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}

	// oldest entries dropped first
	want := []image.Point{{25, 5}, {35, 5}, {45, 5}}

	for i := range want {
		if points[i] != want[i] {
			t.Errorf("points[%d] = %v, want %v", i, points[i], want[i])
		}
	}

	trail.Reset()

	if len(trail.Points(7)) != 0 {
		t.Error("points remain after reset")
	}
}
