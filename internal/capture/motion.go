package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Motion gate constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel intensity change that counts as changed
	DiffThreshold = 25
	// DefaultMotionThreshold is the percentage of changed pixels that counts as motion
	DefaultMotionThreshold = 1.0
	// DefaultCooldown is how long the gate stays open after the last motion
	DefaultCooldown = 2 * time.Second
)

// MotionGate decides whether a frame is worth sending to the hand tracker.
// It compares each frame with the previous one (grayscale, blurred, thresholded
// difference) and stays open for a cooldown after the last frame with motion,
// so a hand that stops moving keeps being tracked for a while.
type MotionGate struct {
	threshold  float64
	cooldown   time.Duration
	prevGray   gocv.Mat
	primed     bool
	lastMotion time.Time
	mu         sync.Mutex
}

// NewMotionGate creates a gate. threshold is the percentage of pixels that must
// change; non-positive values and cooldowns take the defaults.
func NewMotionGate(threshold float64, cooldown time.Duration) *MotionGate {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &MotionGate{
		threshold: threshold,
		cooldown:  cooldown,
		prevGray:  gocv.NewMat(),
	}
}

// Open reports whether the gate is open at now after looking at frame.
// The first frame only primes the baseline and leaves the gate closed.
func (g *MotionGate) Open(frame *gocv.Mat, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	changed, ok := g.compare(frame)
	if ok && changed > g.threshold {
		g.lastMotion = now
	}
	return !g.lastMotion.IsZero() && now.Sub(g.lastMotion) <= g.cooldown
}

// Changed returns the percentage of pixels that differ from the previous frame
// and makes frame the new baseline. The first frame reports 0.
func (g *MotionGate) Changed(frame *gocv.Mat) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	changed, _ := g.compare(frame)
	return changed
}

// compare must be called with g.mu held.
func (g *MotionGate) compare(frame *gocv.Mat) (float64, bool) {
	if frame == nil || frame.Empty() {
		return 0, false
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.primed {
		blurred.CopyTo(&g.prevGray)
		g.primed = true
		return 0, false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	total := thresh.Rows() * thresh.Cols()
	blurred.CopyTo(&g.prevGray)
	if total == 0 {
		return 0, false
	}
	return float64(gocv.CountNonZero(thresh)) / float64(total) * 100.0, true
}

// Reset forgets the baseline and closes the gate.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
}

// Close releases the baseline frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
}

func (g *MotionGate) clear() {
	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.primed = false
	g.lastMotion = time.Time{}
}
