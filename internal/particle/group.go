package particle

import (
	"github.com/ayusman/yuletide/internal/scene"
)

// SmoothingFactor is the fraction of the remaining distance covered each frame.
const SmoothingFactor = 0.05

// Kind names a particle group.
type Kind string

const (
	Leaves       Kind = "leaves"
	Cubes        Kind = "cubes"
	Icosahedrons Kind = "icosahedrons"
	Ribbon       Kind = "ribbon"
	Star         Kind = "star"
)

// Frame is the input to one animation step.
type Frame struct {
	State   scene.State
	Elapsed float64 // seconds since the field started
	Delta   float64 // seconds since the previous frame
}

// Transform is what the renderer draws for one instance.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    float64
}

// Motion produces the drawn transform of instance i for frame f.
// prev carries the rotation and scale of the previous frame and the position the
// instance has just been advanced to. Motion may offset the returned position but
// that offset never feeds back into the interpolated position.
type Motion func(i int, prev Transform, f Frame) Transform

// Group is a fixed set of instances sharing a shape formula and motion.
// Targets are computed once by the constructor and never change.
// Step must only be called from the render loop.
type Group struct {
	kind    Kind
	tree    []Vec3
	explode []Vec3
	current []Vec3
	out     []Transform
	motion  Motion
}

func newGroup(kind Kind, tree, explode []Vec3, initial []Transform, motion Motion) *Group {
	current := make([]Vec3, len(tree))
	copy(current, tree)
	for i := range initial {
		initial[i].Position = current[i]
	}
	return &Group{
		kind:    kind,
		tree:    tree,
		explode: explode,
		current: current,
		out:     initial,
		motion:  motion,
	}
}

// Kind returns the group name.
func (g *Group) Kind() Kind {
	return g.kind
}

// Len returns the number of instances.
func (g *Group) Len() int {
	return len(g.current)
}

// TreeTarget returns the tree-shape target of instance i.
func (g *Group) TreeTarget(i int) Vec3 {
	return g.tree[i]
}

// ExplodeTarget returns the exploded target of instance i.
func (g *Group) ExplodeTarget(i int) Vec3 {
	return g.explode[i]
}

// Target returns the target of instance i for state s.
func (g *Group) Target(s scene.State, i int) Vec3 {
	if s == scene.Explode {
		return g.explode[i]
	}
	return g.tree[i]
}

// Current returns the interpolated position of instance i.
func (g *Group) Current(i int) Vec3 {
	return g.current[i]
}

// Step advances every instance toward the target of f.State and returns the
// transforms to draw. The returned slice is reused by the next Step.
func (g *Group) Step(f Frame) []Transform {
	targets := g.tree
	if f.State == scene.Explode {
		targets = g.explode
	}

	for i := range g.current {
		g.current[i] = g.current[i].Lerp(targets[i], SmoothingFactor)

		prev := g.out[i]
		prev.Position = g.current[i]
		if g.motion != nil {
			prev = g.motion(i, prev, f)
		}
		g.out[i] = prev
	}
	return g.out
}

// Transforms returns the transforms produced by the last Step.
func (g *Group) Transforms() []Transform {
	return g.out
}

// MeanDistance returns the average distance between current positions and the
// targets of state s. An empty group reports zero.
func (g *Group) MeanDistance(s scene.State) float64 {
	if len(g.current) == 0 {
		return 0
	}
	var sum float64
	for i, p := range g.current {
		sum += p.Dist(g.Target(s, i))
	}
	return sum / float64(len(g.current))
}
