// Package app wires the camera, the hand tracker and the scene controller together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/ayusman/yuletide/internal/capture"
	"github.com/ayusman/yuletide/internal/detector"
	"github.com/ayusman/yuletide/internal/gesture"
	"github.com/ayusman/yuletide/internal/plugin"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/signal"
	"github.com/ayusman/yuletide/internal/store"
)

// Pipeline timing constants.
const (
	// ActiveFPS is the detection rate while the hand tracker runs on every frame.
	ActiveFPS = 30
	// IdleFPS is the detection rate while the motion gate is closed.
	IdleFPS = 10
	// JournalBuffer is how many transitions may wait for the journal worker.
	JournalBuffer = 64
	// JournalKeep is how many journal rows survive a prune.
	JournalKeep = 10000
	// pruneEvery is how many inserts pass between prunes.
	pruneEvery = 100
)

// Status is the readiness of the gesture input.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusReady        Status = "ready"
	StatusUnavailable  Status = "unavailable"
)

// Ready reports whether gesture input is live.
func (s Status) Ready() bool {
	return s == StatusReady
}

// Config holds configuration options for the application.
type Config struct {
	Store           *store.Store
	PluginDir       string
	Camera          capture.Config
	Detector        detector.Config
	MotionGate      bool
	MotionThreshold float64
}

// App runs gesture detection in the background and feeds the scene controller.
//
// The controller stays usable whatever happens here: a camera or engine that
// fails to start only moves the status to unavailable.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	motion     *capture.MotionGate
	classifier *gesture.Classifier
	controller *scene.Controller
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	status     *signal.Value[Status]
	enabled    atomic.Bool
	dropped    atomic.Int64

	mu          sync.Mutex
	cancel      context.CancelFunc
	unsubscribe func()
	journal     chan scene.Transition
	wg          sync.WaitGroup

	frameMu   sync.Mutex
	lastFrame *gocv.Mat
}

// New creates a new App instance with the given configuration.
// A missing MediaPipe runtime leaves the detector unset; Start then reports unavailable.
func New(config Config) *App {
	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.Camera),
		classifier: gesture.NewClassifier(),
		controller: scene.NewController(),
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(plugin.DefaultTimeout),
		status:     signal.NewValue(StatusInitializing),
	}
	a.enabled.Store(true)

	if config.MotionGate {
		a.motion = capture.NewMotionGate(config.MotionThreshold, capture.DefaultCooldown)
	}

	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
	} else {
		log.Printf("MediaPipe not available: %v", err)
	}

	return a
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector sets the hand detector implementation to use. It must be called before Start.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetEnabled pauses or resumes detection. While paused the classifier reports no hand.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start launches initialization and the detection loop in the background and
// returns immediately. Calling Start on a running App is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.status.Store(StatusInitializing)

	a.journal = make(chan scene.Transition, JournalBuffer)
	journal := a.journal
	a.unsubscribe = a.controller.OnTransition(func(t scene.Transition) {
		select {
		case journal <- t:
		default:
			a.dropped.Add(1)
		}
	})

	a.wg.Add(2)
	go a.run(ctx)
	go a.runJournal(ctx, journal)

	return nil
}

// Stop cancels detection, waits for the in-flight tick and the journal to drain,
// and releases the camera and the engine. Cancellation reaches a blocked Init or
// Detect, so an unresponsive engine cannot hold Stop.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, unsubscribe := a.cancel, a.unsubscribe
	a.cancel, a.unsubscribe = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}

	unsubscribe()
	cancel()
	a.wg.Wait()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	a.frameMu.Lock()
	if a.lastFrame != nil {
		a.lastFrame.Close()
		a.lastFrame = nil
	}
	a.frameMu.Unlock()

	log.Println("Detection pipeline stopped")
}

func (a *App) run(ctx context.Context) {
	defer a.wg.Done()

	if err := a.initialize(ctx); err != nil {
		if ctx.Err() == nil {
			log.Printf("Gesture input unavailable: %v", err)
		}
		a.status.Store(StatusUnavailable)
		return
	}

	a.status.Store(StatusReady)
	log.Println("Detection pipeline started")
	a.runPipeline(ctx)
}

// initialize loads the engine and then acquires the camera.
func (a *App) initialize(ctx context.Context) error {
	if a.detector == nil {
		return detector.ErrEngineUnavailable
	}
	if err := a.detector.Init(ctx); err != nil {
		return fmt.Errorf("init detector: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.camera.Open(); err != nil {
		if !errors.Is(err, capture.ErrCameraUnavailable) {
			err = fmt.Errorf("%w: %v", capture.ErrCameraUnavailable, err)
		}
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(ActiveFPS)
	return nil
}

// Status returns the readiness of the gesture input.
func (a *App) Status() Status {
	return a.status.Load()
}

// Statuses exposes the observable status. Its only writer is the detection goroutine.
func (a *App) Statuses() *signal.Value[Status] {
	return a.status
}

// Snapshot returns a copy of the most recent camera frame, or nil before the first one.
// The caller owns the returned Mat.
func (a *App) Snapshot() *gocv.Mat {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.lastFrame == nil {
		return nil
	}
	clone := a.lastFrame.Clone()
	return &clone
}

func (a *App) keepFrame(frame *gocv.Mat) {
	clone := frame.Clone()

	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	if a.lastFrame != nil {
		a.lastFrame.Close()
	}
	a.lastFrame = &clone
}

// Dropped returns how many transitions were not journaled because the queue was full.
func (a *App) Dropped() int64 {
	return a.dropped.Load()
}

// Controller returns the scene controller.
func (a *App) Controller() *scene.Controller {
	return a.controller
}

// Classifier returns the gesture classifier.
func (a *App) Classifier() *gesture.Classifier {
	return a.classifier
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detector
}
