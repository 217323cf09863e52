package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"
)

// StreamInterval paces the MJPEG preview at about 15 FPS.
const StreamInterval = 66 * time.Millisecond

// FrameSource yields the latest camera frame. Snapshot returns nil when no
// frame is available yet; otherwise the caller owns the returned Mat.
type FrameSource interface {
	Snapshot() *gocv.Mat
}

// StreamHandler serves MJPEG frames from the detection pipeline.
type StreamHandler struct {
	source FrameSource
}

// NewStreamHandler creates a new StreamHandler reading from source.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(StreamInterval)
	defer ticker.Stop()

	for {
		if err := h.writeFrame(w); err != nil {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// writeFrame encodes the current snapshot as one multipart JPEG part.
// A missing frame is skipped; only write failures are returned.
func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame := h.source.Snapshot()
	if frame == nil {
		return nil
	}
	defer frame.Close()
	if frame.Empty() {
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil
	}
	defer buf.Close()

	data := buf.GetBytes()
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
