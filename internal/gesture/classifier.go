// Package gesture turns hand landmarks into a discrete gesture and a hand position.
package gesture

import (
	"github.com/ayusman/yuletide/internal/hand"
	"github.com/ayusman/yuletide/internal/signal"
)

// Category is the recognized hand shape.
type Category string

const (
	// None means no hand, a malformed hand, or a shape that is neither pinch nor open.
	None Category = "none"
	// Pinch means thumb tip and index tip are touching.
	Pinch Category = "pinch"
	// Open means all four fingertips are raised above the index knuckle.
	Open Category = "open"
)

// PinchThreshold is the thumb-index tip distance, in normalized image units, below
// which a hand is pinching.
const PinchThreshold = 0.05

// Position is a hand position in normalized image coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InitialPosition is the hand position before any hand has been seen.
var InitialPosition = Position{X: 0.5, Y: 0.5}

// Sample is the classifier output for one detection tick.
type Sample struct {
	Category Category `json:"category"`
	Position Position `json:"position"`
	// Tracked is true when a well-formed hand was seen on this tick.
	Tracked bool `json:"tracked"`
}

var openFingertips = [...]int{
	hand.IndexTip,
	hand.MiddleTip,
	hand.RingTip,
	hand.PinkyTip,
}

// Classify returns the category of a single hand. It is a pure function of its input.
// Pinch is tested first, so a hand that is both pinching and open is a Pinch.
func Classify(lm *hand.Landmarks) Category {
	if !lm.Valid() {
		return None
	}

	if hand.Distance2D(lm.Point(hand.ThumbTip), lm.Point(hand.IndexTip)) < PinchThreshold {
		return Pinch
	}

	// Image y grows downward, so raised fingertips have a smaller y.
	base := lm.Point(hand.IndexMCP).Y
	for _, tip := range openFingertips {
		if lm.Point(tip).Y >= base {
			return None
		}
	}
	return Open
}

// Classifier keeps the latest Sample and the last known hand position.
// Process and Clear must be called from a single goroutine; Samples may be read from any.
type Classifier struct {
	samples *signal.Value[Sample]
}

// NewClassifier creates a Classifier at InitialPosition with no gesture.
func NewClassifier() *Classifier {
	return &Classifier{
		samples: signal.NewValue(Sample{Category: None, Position: InitialPosition}),
	}
}

// Process classifies the first detected hand and publishes the resulting Sample.
// With no usable hand the category is None and the last position is kept.
func (c *Classifier) Process(hands []hand.Landmarks) Sample {
	prev := c.samples.Load()

	sample := Sample{Category: None, Position: prev.Position}
	if len(hands) > 0 && hands[0].Valid() {
		lm := &hands[0]
		wrist := lm.Point(hand.Wrist)
		sample = Sample{
			Category: Classify(lm),
			Position: Position{X: wrist.X, Y: wrist.Y},
			Tracked:  true,
		}
	}

	c.samples.Store(sample)
	return sample
}

// Clear publishes an untracked None sample, keeping the last position.
func (c *Classifier) Clear() Sample {
	sample := Sample{Category: None, Position: c.samples.Load().Position}
	c.samples.Store(sample)
	return sample
}

// Latest returns the most recent Sample.
func (c *Classifier) Latest() Sample {
	return c.samples.Load()
}

// Samples exposes the observable sample stream. Its only writer is the Classifier.
func (c *Classifier) Samples() *signal.Value[Sample] {
	return c.samples
}
