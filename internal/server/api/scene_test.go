package api

import (
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/ayusman/yuletide/internal/app"
	"github.com/ayusman/yuletide/internal/gesture"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

type fakeScene struct {
	controller *scene.Controller
	classifier *gesture.Classifier
	status     app.Status
	enabled    atomic.Bool
}

func newFakeScene() *fakeScene {
	f := &fakeScene{
		controller: scene.NewController(),
		classifier: gesture.NewClassifier(),
		status:     app.StatusReady,
	}
	f.enabled.Store(true)
	return f
}

func (f *fakeScene) Controller() *scene.Controller   { return f.controller }
func (f *fakeScene) Classifier() *gesture.Classifier { return f.classifier }
func (f *fakeScene) Status() app.Status              { return f.status }
func (f *fakeScene) IsEnabled() bool                 { return f.enabled.Load() }
func (f *fakeScene) SetEnabled(enabled bool)         { f.enabled.Store(enabled) }

func TestSceneHandler_Get(t *testing.T) {
	h := NewSceneHandler(newFakeScene(), nil)

	rec := do(t, h, http.MethodGet, "/api/scene", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	got := decode[sceneResponse](t, rec)
	if got.State != scene.Tree {
		t.Errorf("state = %s, want TREE", got.State)
	}
	if got.Rotation != 0 {
		t.Errorf("rotation = %f, want 0", got.Rotation)
	}
	if got.Status != app.StatusReady {
		t.Errorf("status = %s, want ready", got.Status)
	}
	if !got.GestureEnabled {
		t.Error("gesture should be enabled")
	}
	if got.Gesture.Category != gesture.None || got.Gesture.Tracked {
		t.Errorf("unexpected gesture %+v", got.Gesture)
	}
}

func TestSceneHandler_Toggle(t *testing.T) {
	sc := newFakeScene()
	h := NewSceneHandler(sc, nil)

	want := []scene.State{scene.Explode, scene.Tree, scene.Explode}
	for i, state := range want {
		rec := do(t, h, http.MethodPost, "/api/scene/toggle", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle %d status = %d", i, rec.Code)
		}
		if got := decode[sceneResponse](t, rec); got.State != state {
			t.Errorf("toggle %d state = %s, want %s", i, got.State, state)
		}
	}

	if rec := do(t, h, http.MethodGet, "/api/scene/toggle", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET toggle status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestSceneHandler_SetState(t *testing.T) {
	tests := []struct {
		name string
		body any
		code int
		want scene.State
	}{
		{"explode", map[string]string{"state": "EXPLODE"}, http.StatusOK, scene.Explode},
		{"lower case", map[string]string{"state": "explode"}, http.StatusOK, scene.Explode},
		{"tree is a no-op", map[string]string{"state": "TREE"}, http.StatusOK, scene.Tree},
		{"unknown", map[string]string{"state": "SPIRAL"}, http.StatusBadRequest, scene.Tree},
		{"invalid json", "nope", http.StatusBadRequest, scene.Tree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newFakeScene()
			h := NewSceneHandler(sc, nil)

			rec := do(t, h, http.MethodPut, "/api/scene", tt.body)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if got := sc.Controller().State(); got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSceneHandler_Gesture(t *testing.T) {
	s := newTestStore(t)
	sc := newFakeScene()
	h := NewSceneHandler(sc, s.Settings())

	rec := do(t, h, http.MethodPut, "/api/scene/gesture", map[string]bool{"enabled": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[sceneResponse](t, rec); got.GestureEnabled {
		t.Error("response should report gesture disabled")
	}
	if sc.IsEnabled() {
		t.Error("scene should be disabled")
	}

	enabled, err := s.Settings().Bool(store.KeyGestureEnabled, true)
	if err != nil {
		t.Fatalf("Bool() error = %v", err)
	}
	if enabled {
		t.Error("setting should be persisted as false")
	}

	t.Run("enabled is required", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/api/scene/gesture", map[string]string{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestSceneHandler_NotFound(t *testing.T) {
	h := NewSceneHandler(newFakeScene(), nil)

	if rec := do(t, h, http.MethodGet, "/api/scene/other", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := do(t, h, http.MethodDelete, "/api/scene", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
