package render

import (
	"testing"

	"gocv.io/x/gocv"
)

// TestDefaultFont checks the label font carries the padding the box and HUD
// renderers position text with.
func TestDefaultFont(t *testing.T) {

	font := DefaultFont()

	if font.Face != gocv.FontHersheySimplex {
		t.Errorf("face = %v, want FontHersheySimplex", font.Face)
	}

	if font.Scale != 0.5 {
		t.Errorf("scale = %v, want 0.5", font.Scale)
	}

	if font.Color != White {
		t.Errorf("color = %v, want white", font.Color)
	}

	if font.LeftPad != 4 || font.RightPad != 4 {
		t.Errorf("horizontal padding = %d/%d, want 4/4",
			font.LeftPad, font.RightPad)
	}

	if font.TopPad != 4 || font.BottomPad != 6 {
		t.Errorf("vertical padding = %d/%d, want 4/6",
			font.TopPad, font.BottomPad)
	}
}

// TestClassColor checks track IDs wrap around the palette and negative IDs
// still index a valid entry.
func TestClassColor(t *testing.T) {

	if ClassColor(0) != classColors[0] {
		t.Error("ID 0 should map to the first palette entry")
	}

	if ClassColor(len(classColors)) != classColors[0] {
		t.Error("IDs should wrap around the palette")
	}

	if ClassColor(3) == ClassColor(4) {
		t.Error("adjacent IDs should map to distinct colors")
	}

	// tracker IDs are positive but a stray value must not panic
	_ = ClassColor(-1)
}
