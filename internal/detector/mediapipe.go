package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/yuletide/internal/hand"
)

// IdleShutdown is how long the Python process may sit unused before it is stopped.
// It is restarted transparently on the next Detect.
const IdleShutdown = 30 * time.Second

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Wire format per frame: 4-byte big-endian payload length, 8-byte big-endian
// timestamp in milliseconds, then the JPEG payload. The service answers each frame
// with one JSON line {"hands":[...]}; on startup it prints {"ready":true} or
// {"error":"..."} once the model is loaded.
type MediaPipeDetector struct {
	config      Config
	scriptPath  string
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      *bufio.Reader
	mu          sync.Mutex
	initialized bool
	started     bool
	lastTS      int64
	lastUsed    time.Time
	idleTimer   *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is not started until Init.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findMediaPipeScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("mediapipe_service.py not found: %w", ErrEngineUnavailable)
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Init starts the Python process and waits for the model to load. Cancelling ctx
// kills the process, so a model that never finishes loading cannot hold Init.
func (d *MediaPipeDetector) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(ctx); err != nil {
		return err
	}
	d.initialized = true
	return nil
}

// Detect analyzes a frame and returns detected hand landmarks.
// A cancelled ctx kills the process mid-request; the next call restarts it.
func (d *MediaPipeDetector) Detect(ctx context.Context, frame *gocv.Mat, timestampMs int64) ([]hand.Landmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, ErrNotStarted
	}
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	if err := d.ensureStarted(ctx); err != nil {
		return nil, err
	}

	// VIDEO running mode rejects timestamps that do not advance.
	if timestampMs <= d.lastTS {
		timestampMs = d.lastTS + 1
	}
	d.lastTS = timestampMs

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	binary.BigEndian.PutUint64(header[4:], uint64(timestampMs))

	line, err := d.exchange(ctx, header, data)
	if err != nil {
		return nil, err
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := make([]hand.Landmarks, len(response.Hands))
	for i, h := range response.Hands {
		result[i] = h.toHandLandmarks()
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted(ctx context.Context) error {
	if d.started {
		return nil
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-presence-confidence", strconv.FormatFloat(d.config.MinPresenceConf, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr
	d.cmd.WaitDelay = time.Second

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", ErrEngineUnavailable)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	if err := d.awaitReady(ctx); err != nil {
		d.shutdown()
		return err
	}

	d.lastUsed = time.Now()
	return nil
}

// awaitReady reads the startup handshake printed once the model is loaded.
func (d *MediaPipeDetector) awaitReady(ctx context.Context) error {
	stop := d.killOnDone(ctx)
	line, err := d.stdout.ReadString('\n')
	stop()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("await model: %w", ctxErr)
	}
	if err != nil {
		return fmt.Errorf("read handshake: %w", ErrEngineUnavailable)
	}

	var handshake struct {
		Ready bool   `json:"ready"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &handshake); err != nil {
		return fmt.Errorf("parse handshake: %w", err)
	}
	if !handshake.Ready {
		return fmt.Errorf("load model: %s: %w", handshake.Error, ErrEngineUnavailable)
	}
	return nil
}

// exchange sends one request and reads the response line. The process is killed if
// ctx ends first and is restarted by the next Detect.
func (d *MediaPipeDetector) exchange(ctx context.Context, header, data []byte) (string, error) {
	stop := d.killOnDone(ctx)
	defer stop()

	fail := func(step string, err error) (string, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			d.shutdown()
			return "", fmt.Errorf("%s: %w", step, ctxErr)
		}
		return "", fmt.Errorf("%s: %w", step, err)
	}

	if _, err := d.stdin.Write(header); err != nil {
		return fail("write header", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return fail("write data", err)
	}
	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return fail("read response", err)
	}
	return line, nil
}

// killOnDone kills the running process when ctx ends. It does not take d.mu, so it
// unblocks a pipe read made while the lock is held.
func (d *MediaPipeDetector) killOnDone(ctx context.Context) (stop func() bool) {
	proc := d.cmd.Process
	return context.AfterFunc(ctx, func() {
		proc.Kill()
	})
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	killed := d.cmd.ProcessState != nil && !d.cmd.ProcessState.Exited()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	if killed {
		return nil
	}
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(IdleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".yuletide/scripts/mediapipe_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".yuletide/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// toHandLandmarks copies every point the service sent. A short or long list is kept
// as-is so the classifier can reject it as malformed.
func (h jsonHand) toHandLandmarks() hand.Landmarks {
	lm := hand.Landmarks{
		Points:     make([]hand.Point3D, len(h.Points)),
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i, p := range h.Points {
		lm.Points[i] = hand.Point3D{X: p.X, Y: p.Y, Z: p.Z}
	}

	return lm
}
