package render

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/ayusman/yuletide/internal/app"
	"github.com/ayusman/yuletide/internal/gesture"
	"github.com/ayusman/yuletide/internal/particle"
	"github.com/ayusman/yuletide/internal/scene"
)

const epsilon = 1e-9

func TestProjector(t *testing.T) {
	p := NewProjector(960, 720)

	t.Run("focal length from field of view", func(t *testing.T) {
		want := 360 / math.Tan(25*math.Pi/180)
		if math.Abs(p.Focal()-want) > epsilon {
			t.Errorf("expected focal %f, got %f", want, p.Focal())
		}
	})

	t.Run("origin lands at screen centre", func(t *testing.T) {
		x, y, depth, ok := p.Project(particle.Vec3{}, 0)
		if !ok || x != 480 || y != 360 || depth != CameraDistance {
			t.Errorf("got (%f, %f, %f, %v)", x, y, depth, ok)
		}
	})

	t.Run("up is up on screen", func(t *testing.T) {
		_, y, _, _ := p.Project(particle.Vec3{Y: 9}, 0)
		if y >= 360 {
			t.Errorf("expected star above centre, got y=%f", y)
		}
	})

	t.Run("closer is bigger", func(t *testing.T) {
		_, _, near, _ := p.Project(particle.Vec3{Z: 10}, 0)
		_, _, far, _ := p.Project(particle.Vec3{Z: -10}, 0)
		if p.Radius(1, near) <= p.Radius(1, far) {
			t.Errorf("expected nearer sphere to be larger")
		}
	})

	t.Run("yaw rotates around vertical axis", func(t *testing.T) {
		x, _, depth, _ := p.Project(particle.Vec3{X: 5}, math.Pi/2)
		if math.Abs(x-480) > 1e-6 {
			t.Errorf("expected point rotated onto the view axis, got x=%f", x)
		}
		if math.Abs(depth-30) > 1e-6 {
			t.Errorf("expected depth 30, got %f", depth)
		}
	})

	t.Run("behind the camera is hidden", func(t *testing.T) {
		if _, _, _, ok := p.Project(particle.Vec3{Z: 30}, 0); ok {
			t.Error("expected point behind camera to be rejected")
		}
	})
}

func TestGuard(t *testing.T) {
	t.Run("primary keeps drawing while it succeeds", func(t *testing.T) {
		var primary, fallback int
		g := NewGuard("test", func(int) error { primary++; return nil }, func(int, error) { fallback++ })

		for range 3 {
			g.Draw(0)
		}
		if primary != 3 || fallback != 0 || g.Failed() {
			t.Errorf("primary=%d fallback=%d failed=%v", primary, fallback, g.Failed())
		}
	})

	t.Run("error latches fallback", func(t *testing.T) {
		boom := errors.New("boom")
		var primary, fallback int
		var seen error
		g := NewGuard("test", func(int) error { primary++; return boom }, func(_ int, err error) {
			fallback++
			seen = err
		})

		g.Draw(0)
		g.Draw(0)

		if primary != 1 {
			t.Errorf("expected primary to run once, ran %d times", primary)
		}
		if fallback != 2 {
			t.Errorf("expected fallback on both frames, got %d", fallback)
		}
		if !errors.Is(seen, boom) || !errors.Is(g.Err(), boom) {
			t.Errorf("expected boom, got %v", seen)
		}
	})

	t.Run("panic latches fallback", func(t *testing.T) {
		var fallback int
		g := NewGuard("test", func(s []int) error { _ = s[5]; return nil }, func([]int, error) { fallback++ })

		g.Draw(nil)
		if !g.Failed() || fallback != 1 {
			t.Errorf("expected latched fallback after panic, failed=%v fallback=%d", g.Failed(), fallback)
		}
	})

	t.Run("nil fallback", func(t *testing.T) {
		g := NewGuard[int]("test", func(int) error { return errors.New("x") }, nil)
		g.Draw(0)
		if !g.Failed() {
			t.Error("expected failure to latch")
		}
	})
}

func TestCollect(t *testing.T) {
	field := particle.NewField(particle.Counts{Leaves: 50, Cubes: 10, Icosahedrons: 10, Ribbon: 20}, 3)
	field.Step(particle.Frame{State: scene.Tree, Elapsed: 0.1, Delta: 0.1})
	proj := NewProjector(960, 720)

	sprites := collect(nil, field, proj, 0.3)
	if len(sprites) != field.Len() {
		t.Fatalf("expected %d sprites, got %d", field.Len(), len(sprites))
	}

	if !slices.IsSortedFunc(sprites, func(a, b sprite) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	}) {
		t.Error("expected sprites sorted back to front")
	}

	for _, s := range sprites {
		if s.r < 1 {
			t.Fatalf("expected radius of at least one pixel, got %f", s.r)
		}
	}

	again := collect(sprites, field, proj, 0.3)
	if &again[0] != &sprites[0] {
		t.Error("expected the buffer to be reused")
	}
}

func TestFade(t *testing.T) {
	c := styles[particle.Cubes].color

	if got := fade(c, CameraDistance); got != c {
		t.Errorf("expected full colour at the origin plane, got %v", got)
	}
	if got := fade(c, 5); got != c {
		t.Errorf("expected full colour near the camera, got %v", got)
	}
	if got := fade(c, 4*CameraDistance); got.R >= c.R || got.A != c.A {
		t.Errorf("expected dimmed colour far away, got %v", got)
	}
}

func TestOverlay(t *testing.T) {
	tests := []struct {
		name   string
		state  scene.State
		status app.Status
		sample gesture.Sample
		want   []string
	}{
		{"initializing", scene.Tree, app.StatusInitializing, gesture.Sample{}, []string{"Initializing camera...", "Tree Mode"}},
		{"unavailable", scene.Explode, app.StatusUnavailable, gesture.Sample{}, []string{"Gesture input unavailable", "Explode Mode"}},
		{"pinch", scene.Tree, app.StatusReady, gesture.Sample{Category: gesture.Pinch, Tracked: true}, []string{"Pinch - Tree Mode", "Tree Mode"}},
		{"open", scene.Explode, app.StatusReady, gesture.Sample{Category: gesture.Open, Tracked: true}, []string{"Open - Explode Mode", "Explode Mode"}},
		{"hand without gesture", scene.Tree, app.StatusReady, gesture.Sample{Category: gesture.None, Tracked: true}, []string{"Hand detected", "Tree Mode"}},
		{"no hand", scene.Tree, app.StatusReady, gesture.Sample{Category: gesture.None}, []string{"No hand", "Tree Mode"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := overlay(tt.state, tt.status, tt.sample)
			tail := lines[len(lines)-2:]
			if !slices.Equal(tail, tt.want) {
				t.Errorf("got %q, want %q", tail, tt.want)
			}
		})
	}
}

func TestGame_Advance(t *testing.T) {
	ctrl := scene.NewController()
	field := particle.NewField(particle.Counts{Leaves: 20, Cubes: 5, Icosahedrons: 5, Ribbon: 10}, 9)
	g := NewGame(Options{Width: 320, Height: 240, Controller: ctrl, Field: field})

	if g.status() != app.StatusUnavailable {
		t.Errorf("expected unavailable without a status source, got %s", g.status())
	}
	if g.sample().Tracked {
		t.Error("expected untracked sample without a sample source")
	}

	ctrl.Toggle()
	before := field.MeanDistance(scene.Explode)
	for range 60 {
		g.advance(1.0 / 60)
	}
	after := field.MeanDistance(scene.Explode)

	if after >= before {
		t.Errorf("expected particles to approach the explode layout, %f -> %f", before, after)
	}
	if math.Abs(g.elapsed-1) > 1e-9 {
		t.Errorf("expected one second elapsed, got %f", g.elapsed)
	}
	if g.root.Yaw() <= 0 {
		t.Errorf("expected auto spin to advance the yaw, got %f", g.root.Yaw())
	}
}
