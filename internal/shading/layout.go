package shading

import "github.com/go-gl/mathgl/mgl32"

// Sizes in float32s of the uniform slots as the WGSL stages declare them.
const (
	Mat4Floats = 16
	// CameraViewSlot and CameraProjectionSlot index the camera block.
	CameraViewSlot       = 0
	CameraProjectionSlot = 1
	// ViewportSizeSlot indexes the material block.
	ViewportSizeSlot = 0
	ViewportFloats   = 2
)

// CameraBlockSizes lays out `struct Camera { view, projection }`.
func CameraBlockSizes() []int {
	return []int{Mat4Floats, Mat4Floats}
}

// MaterialBlockSizes lays out `struct Material { viewportSize }`.
func MaterialBlockSizes() []int {
	return []int{ViewportFloats}
}

// Floats returns the column-major view then projection matrices.
func (c CameraUniforms) Floats() []float32 {
	out := make([]float32, 0, 2*Mat4Floats)
	out = append(out, c.View[:]...)
	return append(out, c.Projection[:]...)
}

// ModelFloats returns the column-major model matrix.
func ModelFloats(m mgl32.Mat4) []float32 {
	out := make([]float32, Mat4Floats)
	copy(out, m[:])
	return out
}

func (m MaterialUniforms) Floats() []float32 {
	return []float32{m.ViewportSize[0], m.ViewportSize[1]}
}
