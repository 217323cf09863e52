package particle

import (
	"math/rand/v2"
	"time"

	"github.com/ayusman/yuletide/internal/scene"
)

// Counts sets the number of instances per group. The star always has one.
type Counts struct {
	Leaves       int `yaml:"leaves"`
	Cubes        int `yaml:"cubes"`
	Icosahedrons int `yaml:"icosahedrons"`
	Ribbon       int `yaml:"ribbon"`
}

// DefaultCounts returns the full-size scene.
func DefaultCounts() Counts {
	return Counts{
		Leaves:       5000,
		Cubes:        1000,
		Icosahedrons: 1000,
		Ribbon:       300,
	}
}

// Field is every particle group of the scene.
type Field struct {
	groups []*Group
	seed   uint64
}

// NewField generates all groups. A zero seed picks one from the clock.
func NewField(counts Counts, seed uint64) *Field {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	return &Field{
		groups: []*Group{
			NewLeaves(counts.Leaves, rng),
			NewCubes(counts.Cubes, rng),
			NewIcosahedrons(counts.Icosahedrons, rng),
			NewRibbon(counts.Ribbon, rng),
			NewStar(),
		},
		seed: seed,
	}
}

// Seed returns the seed the layouts were generated from.
func (f *Field) Seed() uint64 {
	return f.seed
}

// Groups returns the groups in draw order.
func (f *Field) Groups() []*Group {
	return f.groups
}

// Group returns the group of the given kind, or nil.
func (f *Field) Group(kind Kind) *Group {
	for _, g := range f.groups {
		if g.kind == kind {
			return g
		}
	}
	return nil
}

// Len returns the total number of instances.
func (f *Field) Len() int {
	n := 0
	for _, g := range f.groups {
		n += g.Len()
	}
	return n
}

// Step advances every group by one frame.
func (f *Field) Step(fr Frame) {
	for _, g := range f.groups {
		g.Step(fr)
	}
}

// MeanDistance returns the instance-weighted average distance to the targets of s.
func (f *Field) MeanDistance(s scene.State) float64 {
	total := f.Len()
	if total == 0 {
		return 0
	}
	var sum float64
	for _, g := range f.groups {
		sum += g.MeanDistance(s) * float64(g.Len())
	}
	return sum / float64(total)
}
