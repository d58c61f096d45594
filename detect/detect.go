// Package detect runs object detection on video frames.  The only
// implementation is a YOLO family network executed through the OpenCV DNN
// module, but consumers depend on the Detector interface so a different
// backend can be substituted.
package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// Detection is a single detected object in frame pixel coordinates.
type Detection struct {
	// Box is the bounding box in frame pixel coordinates.
	Box image.Rectangle
	// ClassID is the class index in the model's label list.
	ClassID int
	// Label is the class label, normalized to canonical form.
	Label string
	// Score is the detection confidence in the range 0 to 1.
	Score float32
}

// Detector turns a video frame into a list of detections.
type Detector interface {
	// Detect runs inference on the given frame.
	Detect(img gocv.Mat) ([]Detection, error)
	// Close releases resources held by the detector.
	Close() error
}
