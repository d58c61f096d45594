package tracker

import (
	"image"
	"math"
)

// Rect is a bounding box in top-left x,y plus width,height form, the
// internal format the tracker state works in.
type Rect struct {
	X, Y, W, H float32
}

// NewRect creates a Rect from top-left coordinates and size.
func NewRect(x, y, w, h float32) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectFromBox converts an image.Rectangle in pixel coordinates.
func RectFromBox(b image.Rectangle) Rect {
	return Rect{
		X: float32(b.Min.X),
		Y: float32(b.Min.Y),
		W: float32(b.Dx()),
		H: float32(b.Dy()),
	}
}

// Box converts back to an image.Rectangle, truncating to integer pixels.
func (r Rect) Box() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H))
}

// BRX returns the bottom-right x coordinate.
func (r Rect) BRX() float32 {
	return r.X + r.W
}

// BRY returns the bottom-right y coordinate.
func (r Rect) BRY() float32 {
	return r.Y + r.H
}

// xyah returns the box as center x, center y, aspect ratio, height, the
// measurement vector of the Kalman filter.
func (r Rect) xyah() [4]float64 {
	return [4]float64{
		float64(r.X + r.W/2),
		float64(r.Y + r.H/2),
		float64(r.W / r.H),
		float64(r.H),
	}
}

// IoU returns the intersection over union with another box.  Widths and
// heights are treated as pixel inclusive.
func (r Rect) IoU(o Rect) float32 {

	iw := float32(math.Min(float64(r.BRX()), float64(o.BRX()))-math.Max(float64(r.X), float64(o.X))) + 1

	if iw <= 0 {
		return 0
	}

	ih := float32(math.Min(float64(r.BRY()), float64(o.BRY()))-math.Max(float64(r.Y), float64(o.Y))) + 1

	if ih <= 0 {
		return 0
	}

	union := (r.W+1)*(r.H+1) + (o.W+1)*(o.H+1) - iw*ih

	return iw * ih / union
}
