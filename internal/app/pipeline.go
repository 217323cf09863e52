package app

import (
	"context"
	"time"
)

// runPipeline is the detection loop. Each tick reads one frame, runs the hand
// tracker, classifies the first hand and applies the sample to the controller,
// all on this goroutine.
//
// With the motion gate enabled the loop drops to IdleFPS while nothing moves and
// skips inference; the last sample then holds. Frames that are not ready and
// per-frame inference errors are skipped silently.
func (a *App) runPipeline(ctx context.Context) {
	start := time.Now()
	active := a.motion == nil
	paused := false

	interval := time.Second / time.Duration(ActiveFPS)
	if !active {
		interval = time.Second / time.Duration(IdleFPS)
		a.camera.SetFPS(IdleFPS)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				if !paused {
					paused = true
					a.classifier.Clear()
				}
				continue
			}
			paused = false

			if open := a.tick(ctx, now, start, active); open != active {
				active = open
				fps := IdleFPS
				if active {
					fps = ActiveFPS
				}
				a.camera.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
			}
		}
	}
}

// tick processes one frame and reports whether the motion gate is open. Without a
// gate the reported state is always the one passed in. A frame that is not ready
// leaves the gate as it was. A Detect cut short by ctx is dropped like any other
// failed frame.
func (a *App) tick(ctx context.Context, now, start time.Time, open bool) bool {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		return open
	}
	defer frame.Close()

	a.keepFrame(frame)

	if a.motion != nil {
		if open = a.motion.Open(frame, now); !open {
			return false
		}
	}

	hands, err := a.detector.Detect(ctx, frame, now.Sub(start).Milliseconds())
	if err != nil {
		return open
	}

	sample := a.classifier.Process(hands)
	a.controller.Apply(sample)
	return open
}
