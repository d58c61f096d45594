package counter

import (
	"image"
	"testing"
)

func TestNewZoneValidation(t *testing.T) {

	if _, err := NewZone([]Point{{0, 0}, {10, 0}}); err == nil {
		t.Error("two point polygon should be rejected")
	}

	if _, err := NewZone([]Point{{0, 0}, {10, 0}, {10, 10}}); err != nil {
		t.Errorf("triangle should be accepted, got %v", err)
	}
}

func TestZoneContains(t *testing.T) {

	z, err := NewZone([]Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}})

	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{50, 50}, true},
		{Point{1, 1}, true},
		{Point{150, 50}, false},
		{Point{-5, 50}, false},
		{Point{50, 101}, false},
	}

	for _, tc := range tests {
		if got := z.Contains(tc.p); got != tc.want {
			t.Errorf("Contains(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestZoneFilter(t *testing.T) {

	z, err := NewZone([]Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}})

	if err != nil {
		t.Fatalf("NewZone: %v", err)
	}

	batch := []Observation{
		{TrackID: 1, Box: image.Rect(40, 40, 60, 60), Label: "car"},    // inside
		{TrackID: 2, Box: image.Rect(190, 40, 210, 60), Label: "car"},  // outside
		{TrackID: 3, Box: image.Rect(90, 90, 120, 120), Label: "car"},  // centroid outside
	}

	kept := z.Filter(batch)

	if len(kept) != 1 || kept[0].TrackID != 1 {
		t.Errorf("Filter kept %v, want only track 1", kept)
	}

	// nil zone passes everything through
	var nz *Zone

	if got := nz.Filter(batch); len(got) != len(batch) {
		t.Errorf("nil zone filtered batch to %d items", len(got))
	}
}
