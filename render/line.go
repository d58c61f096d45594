package render

import (
	"image"
	"image/color"

	"github.com/parkvision/vehiclecount/counter"
	"gocv.io/x/gocv"
)

// LineStyle defines the parameters for rendering the counting line
type LineStyle struct {
	LineColor     color.RGBA
	LineThickness int
	// EndColor is the color of the circles drawn on the line end points
	EndColor  color.RGBA
	EndRadius int
}

// DefaultLineStyle returns default counting line style settings
func DefaultLineStyle() LineStyle {
	return LineStyle{
		LineColor:     Yellow,
		LineThickness: 2,
		EndColor:      Red,
		EndRadius:     5,
	}
}

// CountingLine draws the counting line with end point markers on the
// source image.
func CountingLine(img *gocv.Mat, line counter.Line, style LineStyle) {

	a := image.Pt(line.A.X, line.A.Y)
	b := image.Pt(line.B.X, line.B.Y)

	gocv.Line(img, a, b, style.LineColor, style.LineThickness)
	gocv.Circle(img, a, style.EndRadius, style.EndColor, -1)
	gocv.Circle(img, b, style.EndRadius, style.EndColor, -1)
}

// ZoneOutline draws the region of interest polygon on the source image.
func ZoneOutline(img *gocv.Mat, points []counter.Point, clr color.RGBA,
	thickness int) {

	if len(points) < 3 {
		return
	}

	for i := range points {
		next := points[(i+1)%len(points)]
		gocv.Line(img,
			image.Pt(points[i].X, points[i].Y),
			image.Pt(next.X, next.Y),
			clr, thickness)
	}
}
