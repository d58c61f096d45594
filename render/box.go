package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/parkvision/vehiclecount/tracker"
	"gocv.io/x/gocv"
)

// boxLabel records the label rendering details of a box so labels can be
// drawn as the top most layer
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// TrackBoxes renders the bounding boxes around the tracked objects, labeled
// with the class label and track ID.
func TrackBoxes(img *gocv.Mat, tracks []*tracker.Track, font Font,
	lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	for _, trk := range tracks {

		box := trk.Rect().Box()
		useClr := ClassColor(trk.TrackID())

		// draw rectangle around tracked object
		gocv.Rectangle(img, box, useClr, lineThickness)

		// create text for label
		text := fmt.Sprintf("%s %d", trk.Label(), trk.TrackID())
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// label sits flush with the box's left edge
		centerX := box.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, box.Min.Y-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			box.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, box.Min.Y)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		})
	}

	// draw all precalculated box labels so they are the top most layer on
	// the image
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
