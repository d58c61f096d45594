package vehiclecount

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/parkvision/vehiclecount/counter"
)

// Server is the live view HTTP server.  It holds only the most recent
// annotated frame and counter snapshot, published by the Processor, and
// never touches the counting pipeline itself.
type Server struct {
	mu    sync.Mutex
	frame []byte
	snap  counter.Snapshot

	// interval between frames written to streaming clients
	interval time.Duration
}

// NewServer returns a live view server paced for the given frame rate.
func NewServer(frameRate int) *Server {

	if frameRate <= 0 {
		frameRate = 30
	}

	return &Server{
		interval: time.Duration(float64(time.Second) / float64(frameRate)),
	}
}

// Publish stores the latest encoded frame and snapshot for serving.
func (s *Server) Publish(frame []byte, snap counter.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame = frame
	s.snap = snap
}

// latest returns the current frame bytes, nil before the first publish.
func (s *Server) latest() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frame
}

// Stream is the HTTP handler function used to stream video frames to
// browser
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {

	log.Printf("New client connection established\n")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected\n")
			return

		case <-ticker.C:

			frame := s.latest()

			if frame == nil {
				continue
			}

			// Write the image to the response writer
			w.Write([]byte("--frame\r\n"))
			w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			w.Write(frame)
			w.Write([]byte("\r\n"))

			// Flush the buffer
			flusher, ok := w.(http.Flusher)
			if ok {
				flusher.Flush()
			}
		}
	}
}

// Stats serves the latest counter snapshot as JSON.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {

	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()

	if snap == nil {
		snap = counter.Snapshot{}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Printf("Error encoding stats: %v", err)
	}
}

// ListenAndServe registers the stream and stats handlers and runs the
// HTTP server on addr.  It blocks until the server fails.
func (s *Server) ListenAndServe(addr string) error {

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.Stream)
	mux.HandleFunc("/stats", s.Stats)

	log.Println(fmt.Sprintf("Open browser and view video at http://%s/stream",
		addr))

	return http.ListenAndServe(addr, mux)
}
