package render

import (
	"math"

	"github.com/ayusman/yuletide/internal/particle"
)

const (
	// CameraDistance is how far the camera sits from the origin on +Z, looking at it.
	CameraDistance = 25.0
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView = 50.0
	// nearPlane hides anything closer to the camera than this.
	nearPlane = 0.1
)

// Projector maps scene space onto a screen of fixed size with a perspective camera.
type Projector struct {
	width, height float64
	focal         float64
}

// NewProjector creates a Projector for a width x height screen.
func NewProjector(width, height int) Projector {
	h := float64(height)
	return Projector{
		width:  float64(width),
		height: h,
		focal:  (h / 2) / math.Tan(FieldOfView*math.Pi/360),
	}
}

// Focal returns the focal length in pixels.
func (p Projector) Focal() float64 {
	return p.focal
}

// Project rotates v by yaw around the vertical axis and returns its screen
// position and its distance from the camera. ok is false behind the near plane.
func (p Projector) Project(v particle.Vec3, yaw float64) (x, y, depth float64, ok bool) {
	r := v.RotateY(yaw)
	depth = CameraDistance - r.Z
	if depth < nearPlane {
		return 0, 0, depth, false
	}
	x = p.width/2 + p.focal*r.X/depth
	y = p.height/2 - p.focal*r.Y/depth
	return x, y, depth, true
}

// Radius returns the on-screen radius of a sphere of the given world radius at depth.
func (p Projector) Radius(world, depth float64) float64 {
	return world * p.focal / depth
}
