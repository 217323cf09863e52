package particle

import (
	"math"
	"math/rand/v2"
)

// StarPosition is where the star sits on top of the tree.
var StarPosition = Vec3{X: 0, Y: 9, Z: 0}

// shell samples a point on a thick spherical shell with radius in [minR, minR+extent).
func shell(rng *rand.Rand, minR, extent float64) Vec3 {
	phi := rng.Float64() * 2 * math.Pi
	theta := rng.Float64() * math.Pi
	r := minR + rng.Float64()*extent
	return Vec3{
		X: r * math.Sin(theta) * math.Cos(phi),
		Y: r * math.Sin(theta) * math.Sin(phi),
		Z: r * math.Cos(theta),
	}
}

func tumbled(rng *rand.Rand, n int, scale func() float64) []Transform {
	out := make([]Transform, n)
	for i := range out {
		out[i] = Transform{
			Rotation: Vec3{
				X: rng.Float64() * math.Pi,
				Y: rng.Float64() * math.Pi,
				Z: rng.Float64() * math.Pi,
			},
			Scale: scale(),
		}
	}
	return out
}

// NewLeaves builds the foliage: a cone wound by a helix of 4 turns with a random
// angular offset and a little horizontal jitter per instance.
func NewLeaves(n int, rng *rand.Rand) *Group {
	n = max(n, 0)
	tree := make([]Vec3, n)
	explode := make([]Vec3, n)

	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		y := t*15 - 8.5
		radius := (1-t)*5.8 + 0.9
		angle := t*math.Pi*8 + rng.Float64()*math.Pi*0.5
		tree[i] = Vec3{
			X: math.Cos(angle)*radius + (rng.Float64()-0.5)*0.3,
			Y: y,
			Z: math.Sin(angle)*radius + (rng.Float64()-0.5)*0.3,
		}
		explode[i] = shell(rng, 15, 10)
	}

	initial := tumbled(rng, n, func() float64 { return 0.15 + rng.Float64()*0.15 })
	return newGroup(Leaves, tree, explode, initial, leafMotion)
}

// ornaments places n instances at random heights on a cone of the given base radius.
func ornaments(kind Kind, n int, rng *rand.Rand, yOffset, baseRadius, explodeMin, explodeExtent, scale float64, motion Motion) *Group {
	n = max(n, 0)
	tree := make([]Vec3, n)
	explode := make([]Vec3, n)

	for i := 0; i < n; i++ {
		t := rng.Float64()
		y := t*17 + yOffset
		radius := (1 - t) * baseRadius
		angle := rng.Float64() * math.Pi * 2
		tree[i] = Vec3{X: math.Cos(angle) * radius, Y: y, Z: math.Sin(angle) * radius}
		explode[i] = shell(rng, explodeMin, explodeExtent)
	}

	initial := tumbled(rng, n, func() float64 { return scale })
	return newGroup(kind, tree, explode, initial, motion)
}

// NewCubes builds the cube ornaments.
func NewCubes(n int, rng *rand.Rand) *Group {
	return ornaments(Cubes, n, rng, -10, 4.8, 20, 15, 0.12, cubeMotion)
}

// NewIcosahedrons builds the icosahedron ornaments.
func NewIcosahedrons(n int, rng *rand.Rand) *Group {
	return ornaments(Icosahedrons, n, rng, -9, 4.5, 18, 12, 0.1, icosahedronMotion)
}

// RibbonTurns is the number of times the ribbon winds around the tree.
const RibbonTurns = 3

// NewRibbon builds the spiral ribbon. Its tree layout has no randomness.
func NewRibbon(n int, rng *rand.Rand) *Group {
	n = max(n, 0)
	tree := make([]Vec3, n)
	explode := make([]Vec3, n)

	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		y := t*14 - 7
		radius := (1-t)*3.5 + 1.0
		angle := t * math.Pi * 2 * RibbonTurns
		tree[i] = Vec3{X: math.Cos(angle) * radius, Y: y, Z: math.Sin(angle) * radius}
		explode[i] = shell(rng, 25, 10)
	}

	initial := make([]Transform, n)
	for i := range initial {
		initial[i].Scale = ribbonScale
	}
	return newGroup(Ribbon, tree, explode, initial, ribbonMotion)
}

// NewStar builds the single star on top of the tree. It stays put in both states.
func NewStar() *Group {
	return newGroup(Star,
		[]Vec3{StarPosition},
		[]Vec3{StarPosition},
		[]Transform{{Scale: 1}},
		starMotion,
	)
}
