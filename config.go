package vehiclecount

import (
	"fmt"

	"github.com/parkvision/vehiclecount/counter"
)

// Config holds the parameters of a processing session.  Construct with
// DefaultConfig and override fields before passing it to NewProcessor.
type Config struct {
	// Source is a video file path, or a webcam device index given as a
	// plain integer string
	Source string

	// ModelFile is the path to the YOLO ONNX model
	ModelFile string
	// LabelFile is the path to the model's class label list, one per line
	LabelFile string
	// Confidence is the detection confidence threshold
	Confidence float32
	// IoU is the non-maximum suppression IoU threshold
	IoU float32
	// InputSize is the square model input side length in pixels
	InputSize int

	// Labels are the vehicle classes to count
	Labels []string

	// Orientation of the counting line, "horizontal" or "vertical"
	Orientation string
	// LinePosition is the relative line position across the frame in the
	// range 0 to 1
	LinePosition float64
	// Invert swaps which crossing direction counts as "in"
	Invert bool

	// InitialInventory seeds the per label inventory at session start
	InitialInventory map[string]int
	// Capacity is the total lot capacity, zero disables the full-lot alert
	Capacity int

	// Zone is an optional region of interest polygon, observations outside
	// it are ignored
	Zone []counter.Point

	// FrameRate of the source, used to size the tracker's lost buffer
	FrameRate int

	// CSVEnabled turns the CSV report on
	CSVEnabled bool
	// CSVDir is the directory the CSV report is written to
	CSVDir string
	// CSVName overrides the timestamped default report file name
	CSVName string

	// DBFile is the SQLite database path, empty disables the store
	DBFile string

	// HTTPAddr enables the MJPEG live view server when non empty,
	// format address:port
	HTTPAddr string

	// FontFile is an optional TTF font for HUD text, empty uses the
	// builtin Hershey font
	FontFile string
	// DrawHUD enables the counts panel on annotated frames
	DrawHUD bool
}

// DefaultConfig returns a Config populated with the stock settings for a
// COCO trained YOLO model watching a parking lot entrance.
func DefaultConfig() Config {
	return Config{
		Confidence:   0.3,
		IoU:          0.5,
		InputSize:    640,
		Labels:       []string{"car", "motorcycle", "bus", "truck"},
		Orientation:  "vertical",
		LinePosition: 0.5,
		FrameRate:    30,
		CSVEnabled:   true,
		CSVDir:       ".",
		DrawHUD:      true,
	}
}

// Validate checks the config for values that would fail at session start.
func (c Config) Validate() error {

	if c.Source == "" {
		return fmt.Errorf("no video source given")
	}

	if c.ModelFile == "" {
		return fmt.Errorf("no model file given")
	}

	if c.LabelFile == "" {
		return fmt.Errorf("no label file given")
	}

	if _, err := counter.ParseOrientation(c.Orientation); err != nil {
		return err
	}

	if c.LinePosition < 0 || c.LinePosition > 1 {
		return fmt.Errorf("line position %v out of range 0 to 1", c.LinePosition)
	}

	if len(c.Zone) > 0 && len(c.Zone) < 3 {
		return fmt.Errorf("zone polygon needs at least 3 points")
	}

	if c.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be positive")
	}

	return nil
}
