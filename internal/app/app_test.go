package app

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/yuletide/internal/capture"
	"github.com/ayusman/yuletide/internal/detector"
	"github.com/ayusman/yuletide/internal/hand"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

func newTestApp(t *testing.T, st *store.Store, pluginDir string) (*App, *capture.MockCamera, *detector.MockDetector) {
	t.Helper()

	a := New(Config{Store: st, PluginDir: pluginDir})
	cam := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()
	a.SetCamera(cam)
	a.SetDetector(det)
	return a, cam, det
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStatus_Ready(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusInitializing, false},
		{StatusReady, true},
		{StatusUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Ready(); got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApp_Start_Ready(t *testing.T) {
	a, cam, _ := newTestApp(t, nil, t.TempDir())

	if a.Status() != StatusInitializing {
		t.Errorf("expected initializing before start, got %s", a.Status())
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	waitFor(t, "ready", func() bool { return a.Status() == StatusReady })

	if !cam.IsOpen() {
		t.Error("expected camera to be open")
	}
	if cam.FPS() != ActiveFPS {
		t.Errorf("expected %d fps, got %d", ActiveFPS, cam.FPS())
	}
}

func TestApp_Start_Unavailable(t *testing.T) {
	t.Run("engine fails to load", func(t *testing.T) {
		a, cam, det := newTestApp(t, nil, t.TempDir())
		det.SetInitError(detector.ErrEngineUnavailable)

		a.Start(context.Background())
		defer a.Stop()

		waitFor(t, "unavailable", func() bool { return a.Status() == StatusUnavailable })
		if cam.Opens() != 0 {
			t.Errorf("camera should not be opened when the engine fails, got %d opens", cam.Opens())
		}
	})

	t.Run("camera denied", func(t *testing.T) {
		a, cam, _ := newTestApp(t, nil, t.TempDir())
		cam.SetOpenError(errors.New("permission denied"))

		a.Start(context.Background())
		defer a.Stop()

		waitFor(t, "unavailable", func() bool { return a.Status() == StatusUnavailable })
	})

	t.Run("no engine", func(t *testing.T) {
		a, _, _ := newTestApp(t, nil, t.TempDir())
		a.SetDetector(nil)

		a.Start(context.Background())
		defer a.Stop()

		waitFor(t, "unavailable", func() bool { return a.Status() == StatusUnavailable })
	})

	t.Run("manual control still works", func(t *testing.T) {
		a, _, det := newTestApp(t, nil, t.TempDir())
		det.SetInitError(detector.ErrEngineUnavailable)

		a.Start(context.Background())
		defer a.Stop()

		waitFor(t, "unavailable", func() bool { return a.Status() == StatusUnavailable })
		if got := a.Controller().Toggle(); got != scene.Explode {
			t.Errorf("expected EXPLODE after toggle, got %s", got)
		}
	})
}

func TestApp_StartStop(t *testing.T) {
	a, cam, det := newTestApp(t, nil, t.TempDir())

	// Stop before Start is a no-op.
	a.Stop()

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	waitFor(t, "ready", func() bool { return a.Status() == StatusReady })
	a.Stop()

	if cam.IsOpen() {
		t.Error("expected camera closed after Stop")
	}
	if !det.Closed() {
		t.Error("expected detector closed after Stop")
	}
	if cam.Opens() != 1 {
		t.Errorf("expected a single Open, got %d", cam.Opens())
	}
}

// stopWithin fails the test if Stop has not returned by the deadline.
func stopWithin(t *testing.T, a *App, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("Stop did not return within %v", d)
	}
}

func TestApp_Stop_UnresponsiveEngine(t *testing.T) {
	t.Run("model never loads", func(t *testing.T) {
		a, cam, det := newTestApp(t, nil, t.TempDir())
		det.SetStall(true)

		a.Start(context.Background())
		time.Sleep(50 * time.Millisecond)
		if a.Status() != StatusInitializing {
			t.Errorf("status = %s, want initializing while the model loads", a.Status())
		}

		stopWithin(t, a, 2*time.Second)

		if !det.Closed() {
			t.Error("expected detector closed after Stop")
		}
		if cam.Opens() != 0 {
			t.Errorf("camera opened %d times before the engine was ready", cam.Opens())
		}
	})

	t.Run("engine stops answering mid-frame", func(t *testing.T) {
		a, _, det := newTestApp(t, nil, t.TempDir())
		frame := capture.SolidFrame(64, 48, color.RGBA{G: 40})
		defer frame.Close()
		a.SetCamera(capture.NewMockCamera([]*gocv.Mat{frame}, true))

		a.Start(context.Background())
		waitFor(t, "detect calls", func() bool { return det.Calls() > 0 })

		det.SetStall(true)
		time.Sleep(100 * time.Millisecond)

		stopWithin(t, a, 2*time.Second)

		if !det.Closed() {
			t.Error("expected detector closed after Stop")
		}
	})
}

func TestApp_SkippedFrames(t *testing.T) {
	t.Run("frame not ready", func(t *testing.T) {
		a, _, det := newTestApp(t, nil, t.TempDir())
		det.SetHands([]hand.Landmarks{hand.OpenPalm()})

		a.Start(context.Background())
		defer a.Stop()

		waitFor(t, "ready", func() bool { return a.Status() == StatusReady })
		time.Sleep(150 * time.Millisecond)

		if det.Calls() != 0 {
			t.Errorf("detector called %d times without a frame", det.Calls())
		}
		if a.Status() != StatusReady {
			t.Errorf("status = %s, want ready", a.Status())
		}
		if got := a.Controller().State(); got != scene.Tree {
			t.Errorf("state = %s, want TREE", got)
		}
	})

	t.Run("inference error", func(t *testing.T) {
		a, _, det := newTestApp(t, nil, t.TempDir())
		frame := capture.SolidFrame(64, 48, color.RGBA{R: 40})
		defer frame.Close()
		a.SetCamera(capture.NewMockCamera([]*gocv.Mat{frame}, true))
		det.SetError(errors.New("inference failed"))

		a.Start(context.Background())
		defer a.Stop()

		waitFor(t, "detect calls", func() bool { return det.Calls() > 2 })
		if a.Status() != StatusReady {
			t.Errorf("status = %s, want ready", a.Status())
		}
		if a.Classifier().Latest().Tracked {
			t.Error("sample should not be tracked after failed inference")
		}
	})
}

func TestApp_Journal(t *testing.T) {
	st := newTestStore(t)
	a, _, _ := newTestApp(t, st, t.TempDir())

	a.Start(context.Background())

	const toggles = 10
	for range toggles {
		a.Controller().Toggle()
	}
	a.Stop()

	count, err := st.Transitions().Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != toggles {
		t.Errorf("expected %d journaled transitions, got %d", toggles, count)
	}
	if a.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", a.Dropped())
	}

	latest, err := st.Transitions().List(1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if latest[0].Source != string(scene.SourceManual) || latest[0].To != string(scene.Tree) {
		t.Errorf("unexpected latest transition %+v", latest[0])
	}
}

func TestApp_Journal_DispatchesBinding(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	pluginRoot := t.TempDir()
	pluginDir := filepath.Join(pluginRoot, "recorder")
	os.MkdirAll(pluginDir, 0755)

	manifest := `{"name":"recorder","executable":"run.sh","actions":["record"]}`
	os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte(manifest), 0644)
	script := "#!/bin/sh\ncat > request.json\necho '{\"success\":true}'\n"
	os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755)

	st := newTestStore(t)
	err := st.Bindings().Create(&store.Binding{
		ID:         "b1",
		Trigger:    store.TriggerEnterExplode,
		PluginName: "recorder",
		ActionName: "record",
		Config:     json.RawMessage(`{"note":"hi"}`),
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	a, _, _ := newTestApp(t, st, pluginRoot)
	if err := a.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}
	a.Start(context.Background())
	defer a.Stop()

	a.Controller().Toggle()

	requestPath := filepath.Join(pluginDir, "request.json")
	var data []byte
	waitFor(t, "plugin run", func() bool {
		data, err = os.ReadFile(requestPath)
		return err == nil && len(data) > 0 && strings.HasSuffix(strings.TrimSpace(string(data)), "}")
	})

	var req struct {
		Action  string          `json:"action"`
		Trigger string          `json:"trigger"`
		From    string          `json:"from"`
		To      string          `json:"to"`
		Source  string          `json:"source"`
		Config  json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("invalid request %s: %v", data, err)
	}
	if req.Action != "record" || req.Trigger != store.TriggerEnterExplode {
		t.Errorf("unexpected request %+v", req)
	}
	if req.From != "TREE" || req.To != "EXPLODE" || req.Source != "manual" {
		t.Errorf("unexpected transition in request %+v", req)
	}
	if string(req.Config) != `{"note":"hi"}` {
		t.Errorf("unexpected config %s", req.Config)
	}
}

func TestTriggerFor(t *testing.T) {
	if got := triggerFor(scene.Explode); got != store.TriggerEnterExplode {
		t.Errorf("expected enter_explode, got %s", got)
	}
	if got := triggerFor(scene.Tree); got != store.TriggerEnterTree {
		t.Errorf("expected enter_tree, got %s", got)
	}
}

func TestApp_SetEnabled(t *testing.T) {
	a, _, _ := newTestApp(t, nil, t.TempDir())

	if !a.IsEnabled() {
		t.Error("expected detection enabled by default")
	}
	a.SetEnabled(false)
	if a.IsEnabled() {
		t.Error("expected detection disabled")
	}
}
