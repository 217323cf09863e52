package render

import (
	"cmp"
	"image/color"
	"slices"

	"github.com/ayusman/yuletide/internal/particle"
)

// Background is the clear colour of the window.
var Background = color.RGBA{R: 0x05, G: 0x01, B: 0x03, A: 0xff}

// style is how one group is drawn.
type style struct {
	color  color.RGBA
	radius float64 // world radius at scale 1
}

var styles = map[particle.Kind]style{
	particle.Leaves:       {color.RGBA{R: 0xff, G: 0xd9, B: 0x3d, A: 0xff}, 1.0},
	particle.Cubes:        {color.RGBA{R: 0xff, G: 0x1e, B: 0x1e, A: 0xff}, 2.0},
	particle.Icosahedrons: {color.RGBA{R: 0x8b, G: 0x00, B: 0x00, A: 0xff}, 2.5},
	particle.Ribbon:       {color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}, 2.0},
	particle.Star:         {color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}, 0.8},
}

// sprite is one projected instance.
type sprite struct {
	x, y, r float32
	depth   float64
	color   color.RGBA
}

// collect projects every instance of field, rotated by yaw, into dst and sorts
// the result back to front. dst is reused.
func collect(dst []sprite, field *particle.Field, proj Projector, yaw float64) []sprite {
	dst = dst[:0]
	for _, g := range field.Groups() {
		st := styles[g.Kind()]
		for _, t := range g.Transforms() {
			x, y, depth, ok := proj.Project(t.Position, yaw)
			if !ok {
				continue
			}
			r := proj.Radius(st.radius*t.Scale, depth)
			if r < 1 {
				r = 1
			}
			dst = append(dst, sprite{
				x:     float32(x),
				y:     float32(y),
				r:     float32(r),
				depth: depth,
				color: fade(st.color, depth),
			})
		}
	}

	slices.SortFunc(dst, func(a, b sprite) int {
		return cmp.Compare(b.depth, a.depth)
	})
	return dst
}

// fade dims c with distance from the camera.
func fade(c color.RGBA, depth float64) color.RGBA {
	k := CameraDistance / depth
	if k > 1 {
		k = 1
	}
	k = 0.35 + 0.65*k
	return color.RGBA{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
		A: c.A,
	}
}
