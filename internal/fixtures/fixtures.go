// Package fixtures holds recorded hand landmarks and gesture sessions for tests.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/ayusman/yuletide/internal/hand"
)

//go:embed testdata/hands/*.json testdata/sessions/*.json
var fixturesFS embed.FS

// LoadHand loads a hand fixture by name ("open", "pinch", "thumbs_up").
func LoadHand(name string) (hand.Landmarks, error) {
	var lm hand.Landmarks

	data, err := fixturesFS.ReadFile("testdata/hands/" + name + ".json")
	if err != nil {
		return lm, fmt.Errorf("load hand %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &lm); err != nil {
		return lm, fmt.Errorf("decode hand %s: %w", name, err)
	}
	return lm, nil
}

// Step is one detection tick of a session. An empty Hand means no hand in view.
type Step struct {
	Hand   string  `json:"hand"`
	ShiftX float64 `json:"shift_x"`
}

// Session is a scripted sequence of detection ticks and the scene it should produce.
type Session struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Steps           []Step  `json:"steps"`
	WantState       string  `json:"want_state"`
	WantRotation    float64 `json:"want_rotation"`
	WantTransitions int     `json:"want_transitions"`
}

// LoadSession loads a session fixture by name.
func LoadSession(name string) (*Session, error) {
	data, err := fixturesFS.ReadFile("testdata/sessions/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", name, err)
	}
	return &s, nil
}

// Sessions loads every session fixture, sorted by file name.
func Sessions() ([]*Session, error) {
	entries, err := fixturesFS.ReadDir("testdata/sessions")
	if err != nil {
		return nil, err
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s, err := LoadSession(strings.TrimSuffix(entry.Name(), path.Ext(entry.Name())))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// Frames resolves each step into the detector output for that tick.
// Hands are moved horizontally by the step's ShiftX.
func (s *Session) Frames() ([][]hand.Landmarks, error) {
	frames := make([][]hand.Landmarks, 0, len(s.Steps))
	for i, step := range s.Steps {
		if step.Hand == "" {
			frames = append(frames, nil)
			continue
		}

		lm, err := LoadHand(step.Hand)
		if err != nil {
			return nil, fmt.Errorf("session %s step %d: %w", s.Name, i, err)
		}
		for j := range lm.Points {
			lm.Points[j].X += step.ShiftX
		}
		frames = append(frames, []hand.Landmarks{lm})
	}
	return frames, nil
}
