package recorder

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/detector"
	"github.com/ayusman/signset/internal/keypoints"
)

// Observer receives recording events on the recorder goroutine.
// Implementations must not retain frame after returning.
type Observer interface {
	// SequenceStarted fires on frame 0, before the preparation delay.
	SequenceStarted(addr dataset.Address)
	// FrameEncoded fires after detection, before the frame is stored.
	FrameEncoded(addr dataset.Address, frame *gocv.Mat, result *detector.Result)
	// FrameStored fires after the vector is on disk.
	FrameStored(addr dataset.Address, v *keypoints.Vector)
	// SequenceCompleted fires once every frame of a sequence is stored.
	SequenceCompleted(label string, sequence int)
}

// NopObserver implements Observer with no-ops. Embed it to handle a subset of events.
type NopObserver struct{}

func (NopObserver) SequenceStarted(dataset.Address)                           {}
func (NopObserver) FrameEncoded(dataset.Address, *gocv.Mat, *detector.Result) {}
func (NopObserver) FrameStored(dataset.Address, *keypoints.Vector)            {}
func (NopObserver) SequenceCompleted(string, int)                             {}

// Observers fans every event out to each observer in order.
type Observers []Observer

func (o Observers) SequenceStarted(addr dataset.Address) {
	for _, obs := range o {
		obs.SequenceStarted(addr)
	}
}

func (o Observers) FrameEncoded(addr dataset.Address, frame *gocv.Mat, result *detector.Result) {
	for _, obs := range o {
		obs.FrameEncoded(addr, frame, result)
	}
}

func (o Observers) FrameStored(addr dataset.Address, v *keypoints.Vector) {
	for _, obs := range o {
		obs.FrameStored(addr, v)
	}
}

func (o Observers) SequenceCompleted(label string, sequence int) {
	for _, obs := range o {
		obs.SequenceCompleted(label, sequence)
	}
}
