package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/yuletide/internal/hand"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu      sync.Mutex
	hands   []hand.Landmarks
	err     error
	initErr error
	stall   bool
	calls   int
	lastTS  int64
	closed  bool
	inited  bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []hand.Landmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetInitError makes Init fail, simulating a model that cannot be loaded.
func (m *MockDetector) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = err
}

// SetStall makes Init and Detect block until their context is cancelled, like an
// engine that never answers.
func (m *MockDetector) SetStall(stall bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stall = stall
}

func (m *MockDetector) stalled(ctx context.Context) error {
	m.mu.Lock()
	stall := m.stall
	m.mu.Unlock()

	if !stall {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

// Init returns the configured init error.
func (m *MockDetector) Init(ctx context.Context) error {
	if err := m.stalled(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initErr != nil {
		return m.initErr
	}
	m.inited = true
	return nil
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(ctx context.Context, frame *gocv.Mat, timestampMs int64) ([]hand.Landmarks, error) {
	if err := m.stalled(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastTS = timestampMs
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close marks the mock as released.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastTimestamp returns the timestamp passed to the most recent Detect.
func (m *MockDetector) LastTimestamp() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTS
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
