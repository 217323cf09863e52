package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/yuletide/internal/app"
	"github.com/ayusman/yuletide/internal/gesture"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

// Scene is the running application as seen by the API.
type Scene interface {
	Controller() *scene.Controller
	Classifier() *gesture.Classifier
	Status() app.Status
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// SceneHandler reads and drives the scene state.
type SceneHandler struct {
	scene    Scene
	settings *store.SettingRepository
}

// NewSceneHandler creates a SceneHandler. settings may be nil, in which case the
// gesture switch is not persisted.
func NewSceneHandler(sc Scene, settings *store.SettingRepository) *SceneHandler {
	return &SceneHandler{scene: sc, settings: settings}
}

type sceneResponse struct {
	State          scene.State    `json:"state"`
	Rotation       float64        `json:"rotation"`
	Gesture        gesture.Sample `json:"gesture"`
	Status         app.Status     `json:"status"`
	GestureEnabled bool           `json:"gesture_enabled"`
}

type setStateRequest struct {
	State string `json:"state"`
}

type setGestureRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP routes /api/scene, /api/scene/toggle and /api/scene/gesture.
func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/scene")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.snapshot())
		case http.MethodPut:
			h.setState(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "toggle":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.scene.Controller().Toggle()
		writeJSON(w, http.StatusOK, h.snapshot())
	case "gesture":
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.setGesture(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SceneHandler) snapshot() sceneResponse {
	ctrl := h.scene.Controller()
	return sceneResponse{
		State:          ctrl.State(),
		Rotation:       ctrl.Rotation(),
		Gesture:        h.scene.Classifier().Latest(),
		Status:         h.scene.Status(),
		GestureEnabled: h.scene.IsEnabled(),
	}
}

// setState handles PUT /api/scene {"state":"TREE"|"EXPLODE"}.
func (h *SceneHandler) setState(w http.ResponseWriter, r *http.Request) {
	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	state, err := scene.ParseState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, "state must be TREE or EXPLODE")
		return
	}

	h.scene.Controller().Set(state)
	writeJSON(w, http.StatusOK, h.snapshot())
}

// setGesture handles PUT /api/scene/gesture {"enabled":bool}.
func (h *SceneHandler) setGesture(w http.ResponseWriter, r *http.Request) {
	var req setGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.scene.SetEnabled(*req.Enabled)
	if h.settings != nil {
		if err := h.settings.SetBool(store.KeyGestureEnabled, *req.Enabled); err != nil {
			log.Printf("Failed to persist gesture setting: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, h.snapshot())
}
