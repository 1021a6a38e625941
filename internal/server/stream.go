package server

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/display"
	"github.com/ayusman/signset/internal/recorder"
)

// Preview keeps the latest annotated frame as JPEG for the MJPEG stream.
// Frames are only encoded while at least one client is subscribed.
type Preview struct {
	recorder.NopObserver

	mu     sync.Mutex
	latest []byte
	subs   map[chan []byte]struct{}
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{subs: make(map[chan []byte]struct{})}
}

func (p *Preview) FrameEncoded(addr dataset.Address, frame *gocv.Mat, result *detector.Result) {
	if frame == nil || frame.Empty() || p.Subscribers() == 0 {
		return
	}

	img := frame.Clone()
	defer img.Close()
	display.DrawLandmarks(&img, result)
	display.DrawStatus(&img, addr)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return
	}
	data := bytes.Clone(buf.GetBytes())
	buf.Close()

	p.Publish(data)
}

// Publish makes jpeg the latest frame and hands it to every subscriber.
// Slow subscribers miss frames instead of blocking the recorder.
func (p *Preview) Publish(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest = jpeg
	for ch := range p.subs {
		select {
		case ch <- jpeg:
		default:
		}
	}
}

// Latest returns the most recent frame, or nil.
func (p *Preview) Latest() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Subscribe returns a channel of new frames and a function to unsubscribe.
func (p *Preview) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		delete(p.subs, ch)
		p.mu.Unlock()
	}
}

// Subscribers returns the number of subscribed clients.
func (p *Preview) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// StreamHandler serves preview frames as MJPEG.
type StreamHandler struct {
	preview *Preview
}

// NewStreamHandler creates a new StreamHandler over preview.
func NewStreamHandler(preview *Preview) *StreamHandler {
	return &StreamHandler{preview: preview}
}

// ServeHTTP streams MJPEG frames to connected clients until they disconnect.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	frames, unsubscribe := h.preview.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if latest := h.preview.Latest(); latest != nil {
		if writePart(w, latest) != nil {
			return
		}
	} else if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case jpeg := <-frames:
			if writePart(w, jpeg) != nil {
				return
			}
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
