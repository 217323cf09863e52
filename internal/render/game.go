// Package render draws the particle field in a desktop window with ebiten.
package render

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/ayusman/yuletide/internal/app"
	"github.com/ayusman/yuletide/internal/gesture"
	"github.com/ayusman/yuletide/internal/particle"
	"github.com/ayusman/yuletide/internal/scene"
)

// Options configures a Game.
type Options struct {
	Width, Height int
	Controller    *scene.Controller
	Field         *particle.Field

	// Samples and Status are nil when there is no gesture input.
	Samples func() gesture.Sample
	Status  func() app.Status

	// Done ends the game loop when closed.
	Done <-chan struct{}
}

// Game is the ebiten game that animates and draws the scene.
type Game struct {
	opts    Options
	proj    Projector
	root    scene.Root
	elapsed float64
	guard   *Guard[*ebiten.Image]
	sprites []sprite
}

// NewGame creates a Game.
func NewGame(opts Options) *Game {
	g := &Game{
		opts:    opts,
		proj:    NewProjector(opts.Width, opts.Height),
		sprites: make([]sprite, 0, opts.Field.Len()),
	}
	g.guard = NewGuard("scene renderer", g.drawScene, g.drawFallback)
	return g
}

// Update handles input and advances the animation by one tick.
func (g *Game) Update() error {
	if g.opts.Done != nil {
		select {
		case <-g.opts.Done:
			return ebiten.Termination
		default:
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.opts.Controller.Toggle()
	}

	g.advance(1 / float64(ebiten.TPS()))
	return nil
}

// advance moves the root yaw and every particle forward by dt seconds.
func (g *Game) advance(dt float64) {
	g.elapsed += dt
	g.root.Advance(dt, g.opts.Controller.Rotation())
	g.opts.Field.Step(particle.Frame{
		State:   g.opts.Controller.State(),
		Elapsed: g.elapsed,
		Delta:   dt,
	})
}

// Draw renders the scene and the overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(Background)
	g.guard.Draw(screen)

	for i, line := range overlay(g.opts.Controller.State(), g.status(), g.sample()) {
		ebitenutil.DebugPrintAt(screen, line, 12, 12+16*i)
	}
}

func (g *Game) drawScene(screen *ebiten.Image) error {
	g.sprites = collect(g.sprites, g.opts.Field, g.proj, g.root.Yaw())
	for _, s := range g.sprites {
		vector.DrawFilledCircle(screen, s.x, s.y, s.r, s.color, true)
	}
	return nil
}

func (g *Game) drawFallback(screen *ebiten.Image, err error) {
	msg := fmt.Sprintf("The scene failed to render.\n%v", err)
	ebitenutil.DebugPrintAt(screen, msg, 12, g.opts.Height/2)
}

// Layout keeps the logical screen at the configured size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.opts.Width, g.opts.Height
}

func (g *Game) status() app.Status {
	if g.opts.Status == nil {
		return app.StatusUnavailable
	}
	return g.opts.Status()
}

func (g *Game) sample() gesture.Sample {
	if g.opts.Samples == nil {
		return gesture.Sample{Category: gesture.None, Position: gesture.InitialPosition}
	}
	return g.opts.Samples()
}

// overlay returns the text lines drawn over the scene.
func overlay(state scene.State, status app.Status, sample gesture.Sample) []string {
	lines := []string{
		"Click or Space to toggle Tree/Explode",
		"Pinch -> Tree Mode",
		"Open hand -> Explode Mode",
		"Move open hand -> Rotate scene",
		"",
	}

	switch status {
	case app.StatusInitializing:
		lines = append(lines, "Initializing camera...")
	case app.StatusUnavailable:
		lines = append(lines, "Gesture input unavailable")
	default:
		switch sample.Category {
		case gesture.Pinch:
			lines = append(lines, "Pinch - Tree Mode")
		case gesture.Open:
			lines = append(lines, "Open - Explode Mode")
		default:
			if sample.Tracked {
				lines = append(lines, "Hand detected")
			} else {
				lines = append(lines, "No hand")
			}
		}
	}

	if state == scene.Tree {
		lines = append(lines, "Tree Mode")
	} else {
		lines = append(lines, "Explode Mode")
	}
	return lines
}

// Run opens the window and blocks until it is closed or opts.Done is closed.
func Run(title string, opts Options) error {
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(NewGame(opts)); err != nil {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}
