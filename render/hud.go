package render

import (
	"fmt"
	"image"
	"sort"

	"github.com/parkvision/vehiclecount/counter"
	"gocv.io/x/gocv"
)

// HUDStyle defines the parameters for rendering the counts panel
type HUDStyle struct {
	Font Font
	// Opacity of the panel background in the range 0 to 1
	Opacity float64
	// LineHeight is the vertical spacing between text rows in pixels
	LineHeight int
	// Margin is the panel padding in pixels
	Margin int
}

// DefaultHUDStyle returns default counts panel settings
func DefaultHUDStyle() HUDStyle {

	font := DefaultFont()
	font.Scale = 0.6

	return HUDStyle{
		Font:       font,
		Opacity:    0.5,
		LineHeight: 24,
		Margin:     10,
	}
}

// HUD draws the per label counts panel in the top left corner of the
// source image.  Labels are rendered in sorted order so the panel layout is
// stable between frames.
func HUD(img *gocv.Mat, snap counter.Snapshot, style HUDStyle) {

	labels := make([]string, 0, len(snap))

	for label := range snap {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	lines := make([]string, 0, len(labels)+1)

	var total int

	for _, label := range labels {
		totals := snap[label]
		total += totals.Inventory
		lines = append(lines, fmt.Sprintf("%s  in:%d out:%d inv:%d",
			label, totals.In, totals.Out, totals.Inventory))
	}

	lines = append(lines, fmt.Sprintf("total inventory: %d", total))

	drawPanel(img, lines, style)
}

// drawPanel renders text rows over a translucent background rectangle.
func drawPanel(img *gocv.Mat, lines []string, style HUDStyle) {

	if len(lines) == 0 {
		return
	}

	width := 0

	for _, line := range lines {
		size := gocv.GetTextSize(line, style.Font.Face, style.Font.Scale,
			style.Font.Thickness)

		if size.X > width {
			width = size.X
		}
	}

	panel := image.Rect(0, 0,
		width+2*style.Margin,
		len(lines)*style.LineHeight+style.Margin)

	// darken the panel area so text stays readable over the video
	region := img.Region(panel.Intersect(image.Rect(0, 0, img.Cols(), img.Rows())))
	defer region.Close()

	overlay := gocv.NewMatWithSizeFromScalar(gocv.Scalar{},
		region.Rows(), region.Cols(), region.Type())
	defer overlay.Close()

	gocv.AddWeighted(region, 1-style.Opacity, overlay, style.Opacity, 0, &region)

	for i, line := range lines {
		pos := image.Pt(style.Margin, style.Margin+(i+1)*style.LineHeight-8)
		gocv.PutTextWithParams(img, line, pos,
			style.Font.Face, style.Font.Scale, style.Font.Color,
			style.Font.Thickness, style.Font.LineType, false)
	}
}

// CapacityAlert draws a blinking full-lot warning across the top of the
// image.  frame drives the blink cycle, the alert is visible for half of
// each interval.
func CapacityAlert(img *gocv.Mat, frame, interval int, style HUDStyle) {

	if interval < 2 {
		interval = 2
	}

	if frame%interval >= interval/2 {
		return
	}

	text := "LOT FULL"

	font := style.Font
	font.Scale = 1.2
	font.Thickness = 2
	font.Color = Red

	size := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)
	pos := image.Pt((img.Cols()-size.X)/2, size.Y+2*style.Margin)

	gocv.PutTextWithParams(img, text, pos, font.Face, font.Scale,
		font.Color, font.Thickness, font.LineType, false)
}
