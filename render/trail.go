package render

import (
	"image/color"

	"github.com/parkvision/vehiclecount/tracker"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trails draws the tracking history lines on the source image.
func Trails(img *gocv.Mat, tracks []*tracker.Track, trail *tracker.Trail,
	style TrailStyle) {

	for _, trk := range tracks {

		objClr := ClassColor(trk.TrackID())

		// determine style colors to use
		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		points := trail.Points(trk.TrackID())

		if len(points) < 3 {
			continue
		}

		// draw trail line showing tracking history
		for i := 1; i < len(points); i++ {
			gocv.Line(img, points[i-1], points[i],
				lineClr, style.LineThickness)
		}

		// draw center point circle on the current box
		gocv.Circle(img, points[len(points)-1],
			style.CircleRadius, circleClr, -1)
	}
}
