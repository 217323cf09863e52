// Package scene owns the scene mode (tree or explode) and the user rotation.
package scene

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/yuletide/internal/gesture"
	"github.com/ayusman/yuletide/internal/signal"
)

// State is the discrete scene mode.
type State string

const (
	// Tree gathers every particle into the tree shape. It is the initial state.
	Tree State = "TREE"
	// Explode scatters particles onto a spherical shell.
	Explode State = "EXPLODE"
)

// ErrUnknownState is returned by ParseState for anything other than TREE or EXPLODE.
var ErrUnknownState = errors.New("scene: unknown state")

// Toggled returns the other state.
func (s State) Toggled() State {
	if s == Tree {
		return Explode
	}
	return Tree
}

// ParseState accepts "TREE" or "EXPLODE" in any case.
func ParseState(s string) (State, error) {
	switch State(strings.ToUpper(strings.TrimSpace(s))) {
	case Tree:
		return Tree, nil
	case Explode:
		return Explode, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownState)
}

// Sensitivity converts horizontal hand motion into radians of scene rotation.
const Sensitivity = 8.0

// Source identifies which input channel caused a transition.
type Source string

const (
	SourceManual  Source = "manual"
	SourceGesture Source = "gesture"
)

// Transition records one effective state change.
type Transition struct {
	Source   Source    `json:"source"`
	From     State     `json:"from"`
	To       State     `json:"to"`
	Rotation float64   `json:"rotation"`
	At       time.Time `json:"at"`
}

// Controller holds the authoritative scene state and cumulative rotation.
//
// Two input channels write the state: Toggle (clicks, tray, HTTP) and Apply (the
// detection loop). Each write atomically replaces the value, so whichever runs
// last wins; there is no queue or debounce. Rotation and the previous hand x are
// written only by Apply, which must be called from a single goroutine.
type Controller struct {
	state       *signal.Value[State]
	rotation    *signal.Value[float64]
	transitions *signal.Feed[Transition]

	prevX float64
	now   func() time.Time
}

// NewController creates a Controller in the Tree state with zero rotation.
func NewController() *Controller {
	return &Controller{
		state:       signal.NewValue(Tree),
		rotation:    signal.NewValue(0.0),
		transitions: signal.NewFeed[Transition](),
		prevX:       gesture.InitialPosition.X,
		now:         time.Now,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state.Load()
}

// Rotation returns the cumulative user rotation in radians. It is unbounded.
func (c *Controller) Rotation() float64 {
	return c.rotation.Load()
}

// Toggle flips the state unconditionally and returns the new state.
func (c *Controller) Toggle() State {
	var from State
	to := c.state.Update(func(s State) State {
		from = s
		return s.Toggled()
	})
	c.publish(SourceManual, from, to)
	return to
}

// Set forces the state from a manual input. It reports whether the state changed.
func (c *Controller) Set(target State) bool {
	return c.set(target, SourceManual)
}

// Apply feeds one gesture sample into the controller.
//
// Pinch forces Tree, Open forces Explode, None leaves the state alone. While the
// hand is Open the horizontal movement since the previous tracked tick is added to
// the rotation. The previous x is refreshed on every tracked tick whatever the
// gesture, so re-entering Open never produces a jump.
func (c *Controller) Apply(s gesture.Sample) {
	if s.Tracked {
		if s.Category == gesture.Open {
			deltaX := s.Position.X - c.prevX
			c.rotation.Update(func(r float64) float64 {
				return r + deltaX*Sensitivity
			})
		}
		c.prevX = s.Position.X
	}

	switch s.Category {
	case gesture.Pinch:
		c.set(Tree, SourceGesture)
	case gesture.Open:
		c.set(Explode, SourceGesture)
	}
}

// States exposes the observable state. Writers are Toggle, Set and Apply.
func (c *Controller) States() *signal.Value[State] {
	return c.state
}

// Rotations exposes the observable rotation. Its only writer is Apply.
func (c *Controller) Rotations() *signal.Value[float64] {
	return c.rotation
}

// OnTransition registers fn for every effective state change.
func (c *Controller) OnTransition(fn func(Transition)) (cancel func()) {
	return c.transitions.Subscribe(fn)
}

func (c *Controller) set(target State, source Source) bool {
	var from State
	c.state.Update(func(s State) State {
		from = s
		return target
	})
	return c.publish(source, from, target)
}

func (c *Controller) publish(source Source, from, to State) bool {
	if from == to {
		return false
	}
	c.transitions.Publish(Transition{
		Source:   source,
		From:     from,
		To:       to,
		Rotation: c.rotation.Load(),
		At:       c.now(),
	})
	return true
}
