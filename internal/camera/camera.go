package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

const (
	// 89 degrees, keeps the orbit away from the poles
	maxPitch    = 1.55334306
	minDistance = 0.05
)

// wgpu clip space has z in [0,1]; mgl32 projections produce [-1,1]
var depthZeroToOne = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera is a perspective camera orbiting a target point
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	// Vertical field of view in radians
	Fov  float32
	Near float32
	Far  float32

	// Viewport dimensions
	ViewportWidth  int
	ViewportHeight int

	// State tracking
	isDragging bool
	lastDragX  float64
	lastDragY  float64
}

// NewPerspective creates a camera at position looking at target
func NewPerspective(width, height int, position, target, up mgl32.Vec3, fovDegrees, near, far float32) *Camera {
	return &Camera{
		Position:       position,
		Target:         target,
		Up:             up,
		Fov:            mgl32.DegToRad(fovDegrees),
		Near:           near,
		Far:            far,
		ViewportWidth:  width,
		ViewportHeight: height,
	}
}

// SetViewport updates the viewport dimensions and reports whether they changed
func (c *Camera) SetViewport(width, height int) bool {
	if c.ViewportWidth == width && c.ViewportHeight == height {
		return false
	}
	c.ViewportWidth = width
	c.ViewportHeight = height
	return true
}

// Viewport returns the viewport size in pixels
func (c *Camera) Viewport() (int, int) {
	return c.ViewportWidth, c.ViewportHeight
}

// Aspect is width over height, 1 for a degenerate viewport
func (c *Camera) Aspect() float32 {
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return 1
	}
	return float32(c.ViewportWidth) / float32(c.ViewportHeight)
}

// View is the world to camera transform
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection is the camera to clip transform with wgpu depth range
func (c *Camera) Projection() mgl32.Mat4 {
	return depthZeroToOne.Mul4(mgl32.Perspective(c.Fov, c.Aspect(), c.Near, c.Far))
}

// Distance from the position to the target
func (c *Camera) Distance() float32 {
	return c.Position.Sub(c.Target).Len()
}

// Orbit rotates the position around the target by yaw and pitch radians
func (c *Camera) Orbit(yaw, pitch float32) {
	offset := c.Position.Sub(c.Target)
	r := offset.Len()
	if r == 0 {
		return
	}
	currentYaw := float32(math.Atan2(float64(offset[0]), float64(offset[2])))
	currentPitch := float32(math.Asin(float64(Clamp(offset[1]/r, -1, 1))))

	newYaw := currentYaw + yaw
	newPitch := Clamp(currentPitch+pitch, -maxPitch, maxPitch)

	cosPitch := float32(math.Cos(float64(newPitch)))
	c.Position = c.Target.Add(mgl32.Vec3{
		r * cosPitch * float32(math.Sin(float64(newYaw))),
		r * float32(math.Sin(float64(newPitch))),
		r * cosPitch * float32(math.Cos(float64(newYaw))),
	})
}

// Zoom moves towards the target by a fraction of the current distance
func (c *Camera) Zoom(amount float32) {
	offset := c.Position.Sub(c.Target)
	r := offset.Len()
	if r == 0 {
		return
	}
	newR := Clamp(r*(1-amount), minDistance, c.Far*0.5)
	c.Position = c.Target.Add(offset.Mul(newR / r))
}

// Translate moves position and target together along the camera axes
// (right, up, forward)
func (c *Camera) Translate(right, up, forward float32) {
	fwd := c.Target.Sub(c.Position).Normalize()
	side := fwd.Cross(c.Up).Normalize()
	upAxis := side.Cross(fwd)
	delta := side.Mul(right).Add(upAxis.Mul(up)).Add(fwd.Mul(forward))
	c.Position = c.Position.Add(delta)
	c.Target = c.Target.Add(delta)
}

// StartDrag begins a drag operation
func (c *Camera) StartDrag(x, y float64) {
	c.isDragging = true
	c.lastDragX = x
	c.lastDragY = y
}

// Drag continues a drag operation, orbiting by sensitivity radians per pixel
func (c *Camera) Drag(x, y float64, sensitivity float32) {
	if !c.isDragging {
		return
	}

	deltaX := x - c.lastDragX
	deltaY := y - c.lastDragY

	c.Orbit(-float32(deltaX)*sensitivity, float32(deltaY)*sensitivity)

	c.lastDragX = x
	c.lastDragY = y
}

// EndDrag ends a drag operation
func (c *Camera) EndDrag() {
	c.isDragging = false
}

// IsDragging returns whether a drag is in progress
func (c *Camera) IsDragging() bool {
	return c.isDragging
}

// Clamp returns the value `f` clamped to the range [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}
