package detect

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// YOLOParams defines the struct containing the YOLO parameters to use for
// inference and post processing operations
type YOLOParams struct {
	// InputSize is the square side length the model expects, frames are
	// resized to InputSize x InputSize before inference
	InputSize int
	// BoxThreshold is the minimum probability score required for a bounding
	// box region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
}

// YOLOCOCOParams returns an instance of YOLOParams configured with default
// values for a Model trained on the COCO dataset
func YOLOCOCOParams() YOLOParams {
	return YOLOParams{
		InputSize:    640,
		BoxThreshold: 0.3,
		NMSThreshold: 0.5,
	}
}

// YOLODetector runs a YOLO family ONNX model through the OpenCV DNN module.
// Both the YOLOv5 output layout (rows of box, objectness and class scores)
// and the YOLOv8 layout (attribute channels by anchor columns) are decoded.
type YOLODetector struct {
	net    gocv.Net
	labels []string
	params YOLOParams
}

// NewYOLODetector loads an ONNX model file and prepares it for inference
// using the given class labels.
func NewYOLODetector(modelFile string, labels []string, params YOLOParams) (*YOLODetector, error) {

	net := gocv.ReadNetFromONNX(modelFile)

	if net.Empty() {
		return nil, fmt.Errorf("error loading ONNX model from %s", modelFile)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("no class labels provided")
	}

	return &YOLODetector{
		net:    net,
		labels: labels,
		params: params,
	}, nil
}

// Detect runs inference on the given frame and returns the detections in
// frame pixel coordinates.
func (d *YOLODetector) Detect(img gocv.Mat) ([]Detection, error) {

	if img.Empty() {
		return nil, fmt.Errorf("empty input frame")
	}

	size := d.params.InputSize

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()

	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected model output shape %v", dims)
	}

	// flatten the leading batch dimension to a 2D matrix
	flat := out.Reshape(1, dims[1])
	defer flat.Close()

	pred := flat

	// the v8 layout has attribute channels as rows, transpose so each row
	// is one candidate box
	transposed := dims[1] < dims[2]

	var tmp gocv.Mat

	if transposed {
		tmp = gocv.NewMat()
		defer tmp.Close()
		gocv.Transpose(flat, &tmp)
		pred = tmp
	}

	// scale factors from model input space back to frame pixels
	xFactor := float32(img.Cols()) / float32(size)
	yFactor := float32(img.Rows()) / float32(size)

	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int

	cols := pred.Cols()

	for i := 0; i < pred.Rows(); i++ {

		var objectness float32 = 1
		classOffset := 4

		// the v5 layout carries an objectness score before the class scores
		if !transposed {
			objectness = pred.GetFloatAt(i, 4)
			classOffset = 5

			if objectness < d.params.BoxThreshold {
				continue
			}
		}

		// pick the best scoring class
		classID := -1
		var best float32

		for c := classOffset; c < cols; c++ {
			if s := pred.GetFloatAt(i, c); s > best {
				best = s
				classID = c - classOffset
			}
		}

		score := best * objectness

		if classID < 0 || score < d.params.BoxThreshold {
			continue
		}

		cx := pred.GetFloatAt(i, 0)
		cy := pred.GetFloatAt(i, 1)
		w := pred.GetFloatAt(i, 2)
		h := pred.GetFloatAt(i, 3)

		boxes = append(boxes, scaleBox(cx, cy, w, h, xFactor, yFactor))
		scores = append(scores, score)
		classIDs = append(classIDs, classID)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, d.params.BoxThreshold, d.params.NMSThreshold)

	var dets []Detection

	for _, idx := range keep {

		label := ""

		if classIDs[idx] < len(d.labels) {
			label = NormalizeLabel(d.labels[classIDs[idx]])
		}

		dets = append(dets, Detection{
			Box:     boxes[idx],
			ClassID: classIDs[idx],
			Label:   label,
			Score:   scores[idx],
		})
	}

	return dets, nil
}

// Close releases the DNN network.
func (d *YOLODetector) Close() error {
	return d.net.Close()
}

// scaleBox converts a center form box in model input space to an
// image.Rectangle in frame pixel coordinates.
func scaleBox(cx, cy, w, h, xFactor, yFactor float32) image.Rectangle {

	left := int((cx - w/2) * xFactor)
	top := int((cy - h/2) * yFactor)
	right := int((cx + w/2) * xFactor)
	bottom := int((cy + h/2) * yFactor)

	return image.Rect(left, top, right, bottom)
}
