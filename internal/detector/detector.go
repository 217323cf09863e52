// Package detector provides the inference engines that turn camera frames into hand landmarks.
package detector

import (
	"context"
	"errors"

	"gocv.io/x/gocv"

	"github.com/ayusman/yuletide/internal/hand"
)

var (
	// ErrNotStarted is returned by Detect when the engine has not been initialized.
	ErrNotStarted = errors.New("detector: engine not started")

	// ErrEngineUnavailable is returned by Init when no inference engine can be loaded.
	ErrEngineUnavailable = errors.New("detector: inference engine unavailable")
)

// Detector is the hand-tracking inference engine.
//
// Init loads the model and may fail (missing runtime, model download failure); a failed
// engine never produces results. Detect returns zero or more hands for one frame;
// timestampMs must increase monotonically across calls. Init and Detect must return
// promptly once ctx is cancelled, even if the engine itself is unresponsive. Close
// releases the engine.
type Detector interface {
	Init(ctx context.Context) error
	Detect(ctx context.Context, frame *gocv.Mat, timestampMs int64) ([]hand.Landmarks, error)
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// MinPresenceConf is the minimum hand presence confidence threshold (0.0-1.0).
	MinPresenceConf float64 `yaml:"min_presence_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// ScriptPath overrides the location of mediapipe_service.py.
	ScriptPath string `yaml:"script_path"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinPresenceConf: 0.5,
		MinTrackingConf: 0.5,
	}
}
