package scene

const (
	// AutoSpin is the idle yaw speed of the scene root in radians per second.
	AutoSpin = 0.1
	// FollowFactor is how far the root yaw moves toward the user rotation each frame.
	FollowFactor = 0.1
)

// Root is the yaw of the whole scene. It spins slowly on its own and is pulled
// toward the controller's rotation every frame. It belongs to the render loop.
type Root struct {
	yaw float64
}

// Advance moves the root by one frame of dt seconds and returns the new yaw.
func (r *Root) Advance(dt, userRotation float64) float64 {
	r.yaw += dt * AutoSpin
	r.yaw = lerp(r.yaw, userRotation, FollowFactor)
	return r.yaw
}

// Yaw returns the current yaw in radians.
func (r *Root) Yaw() float64 {
	return r.yaw
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
