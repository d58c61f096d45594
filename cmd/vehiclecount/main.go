package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/parkvision/vehiclecount"
	"github.com/parkvision/vehiclecount/counter"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	source := flag.String("v", "", "Video file to count vehicles on, or a webcam device index")
	modelFile := flag.String("m", "yolov8n.onnx", "YOLO ONNX model file")
	labelFile := flag.String("l", "coco_80_labels_list.txt", "Text file containing model labels")
	confidence := flag.Float64("c", 0.3, "Detection confidence threshold")
	iou := flag.Float64("i", 0.5, "Non-maximum suppression IoU threshold")
	classes := flag.String("x", "car,motorcycle,bus,truck", "Comma delimited list of vehicle classes to count")
	orientation := flag.String("o", "vertical", "Counting line orientation [horizontal|vertical]")
	linePos := flag.Float64("p", 0.5, "Relative counting line position, 0 to 1")
	invert := flag.Bool("invert", false, "Swap which crossing direction counts as in")
	inventory := flag.String("inv", "", "Initial inventory, eg: car=10,truck=2")
	capacity := flag.Int("cap", 0, "Total lot capacity, 0 disables the full-lot alert")
	zone := flag.String("zone", "", "Region of interest polygon, eg: 100,100;500,100;500,400;100,400")
	frameRate := flag.Int("fps", 30, "Source frame rate")
	csvOff := flag.Bool("nocsv", false, "Disable the CSV report")
	csvDir := flag.String("d", ".", "Directory to write the CSV report to")
	csvName := flag.String("n", "", "CSV report file name, default is timestamped")
	dbFile := flag.String("db", "", "SQLite database file to record crossings to")
	httpAddr := flag.String("a", "", "HTTP address to serve the live view on, format address:port")
	fontFile := flag.String("f", "", "TTF font file for HUD text")
	noHUD := flag.Bool("nohud", false, "Disable the counts panel on annotated frames")

	flag.Parse()

	cfg := vehiclecount.DefaultConfig()
	cfg.Source = *source
	cfg.ModelFile = *modelFile
	cfg.LabelFile = *labelFile
	cfg.Confidence = float32(*confidence)
	cfg.IoU = float32(*iou)
	cfg.Labels = splitList(*classes)
	cfg.Orientation = *orientation
	cfg.LinePosition = *linePos
	cfg.Invert = *invert
	cfg.Capacity = *capacity
	cfg.FrameRate = *frameRate
	cfg.CSVEnabled = !*csvOff
	cfg.CSVDir = *csvDir
	cfg.CSVName = *csvName
	cfg.DBFile = *dbFile
	cfg.HTTPAddr = *httpAddr
	cfg.FontFile = *fontFile
	cfg.DrawHUD = !*noHUD

	var err error

	cfg.InitialInventory, err = parseInventory(*inventory)

	if err != nil {
		log.Fatalf("Error parsing initial inventory: %v", err)
	}

	cfg.Zone, err = parseZone(*zone)

	if err != nil {
		log.Fatalf("Error parsing zone: %v", err)
	}

	proc, err := vehiclecount.NewProcessor(cfg)

	if err != nil {
		log.Fatalf("Error creating processor: %v", err)
	}

	log.Printf("Session %s", proc.Session())

	if cfg.HTTPAddr != "" {

		srv := vehiclecount.NewServer(cfg.FrameRate)
		proc.AttachServer(srv)

		go func() {
			if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
				log.Fatalf("HTTP server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := proc.Run(ctx); err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
}

// splitList splits a comma delimited flag value into trimmed words.
func splitList(s string) []string {

	var res []string

	for _, word := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(word); trimmed != "" {
			res = append(res, trimmed)
		}
	}

	return res
}

// parseInventory parses "label=count" pairs delimited by commas.
func parseInventory(s string) (map[string]int, error) {

	if s == "" {
		return nil, nil
	}

	res := make(map[string]int)

	for _, pair := range strings.Split(s, ",") {

		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)

		if len(parts) != 2 {
			return nil, fmt.Errorf("bad inventory entry %q", pair)
		}

		count, err := strconv.Atoi(parts[1])

		if err != nil {
			return nil, fmt.Errorf("bad inventory count %q: %w", parts[1], err)
		}

		res[parts[0]] = count
	}

	return res, nil
}

// parseZone parses an "x,y;x,y;..." polygon definition.
func parseZone(s string) ([]counter.Point, error) {

	if s == "" {
		return nil, nil
	}

	var points []counter.Point

	for _, pair := range strings.Split(s, ";") {

		parts := strings.Split(strings.TrimSpace(pair), ",")

		if len(parts) != 2 {
			return nil, fmt.Errorf("bad zone point %q", pair)
		}

		x, err := strconv.Atoi(strings.TrimSpace(parts[0]))

		if err != nil {
			return nil, fmt.Errorf("bad zone coordinate %q: %w", parts[0], err)
		}

		y, err := strconv.Atoi(strings.TrimSpace(parts[1]))

		if err != nil {
			return nil, fmt.Errorf("bad zone coordinate %q: %w", parts[1], err)
		}

		points = append(points, counter.Point{X: x, Y: y})
	}

	return points, nil
}
