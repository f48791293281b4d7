// Package shading holds the host-side contract of the mesh vertex stage and the
// screen-space composite fragment stage: the uniform layouts the GPU programs
// expect and a reference implementation of what each stage computes.
package shading

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// TexPosBias maps a unit mesh centred on the origin into [0,1].
var TexPosBias = mgl32.Vec3{0.5, 0.5, 0.5}

// CameraUniforms is the per-draw camera block. The renderer writes it, the
// stages only read it.
type CameraUniforms struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// VertexOutput is what the vertex stage hands to clipping and interpolation.
type VertexOutput struct {
	Clip   mgl32.Vec4
	TexPos mgl32.Vec3
}

// MaterialUniforms feed the composite fragment stage.
type MaterialUniforms struct {
	// ViewportSize must equal the pixel size of the current render target
	ViewportSize mgl32.Vec2
}

// TransformVertex runs the vertex stage for one local-space position.
func TransformVertex(camera CameraUniforms, model mgl32.Mat4, position mgl32.Vec3) VertexOutput {
	world := model.Mul4x1(position.Vec4(1))
	return VertexOutput{
		Clip:   camera.Projection.Mul4(camera.View).Mul4x1(world),
		TexPos: world.Vec3().Add(TexPosBias),
	}
}

// ScreenTexCoords maps a window-space fragment coordinate to texture space.
// A zero viewport component yields Inf or NaN, as on the GPU.
func ScreenTexCoords(fragCoord, viewportSize mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{fragCoord[0] / viewportSize[0], fragCoord[1] / viewportSize[1]}
}

// CompositeColor drops the sampled alpha; the composite is always opaque.
func CompositeColor(sample mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{sample[0], sample[1], sample[2], 1}
}

// Composite runs the fragment stage over a width x height target, sampling src
// at each pixel centre with nearest filtering and clamp-to-edge addressing.
func Composite(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return dst
	}
	viewport := mgl32.Vec2{float32(width), float32(height)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			uv := ScreenTexCoords(mgl32.Vec2{float32(x) + 0.5, float32(y) + 0.5}, viewport)
			c := CompositeColor(sampleNearest(src, uv))
			dst.SetRGBA(x, y, color.RGBA{
				R: toByte(c[0]),
				G: toByte(c[1]),
				B: toByte(c[2]),
				A: toByte(c[3]),
			})
		}
	}
	return dst
}

func sampleNearest(src image.Image, uv mgl32.Vec2) mgl32.Vec4 {
	b := src.Bounds()
	if b.Empty() {
		return mgl32.Vec4{}
	}
	x := b.Min.X + clampIndex(int(uv[0]*float32(b.Dx())), b.Dx())
	y := b.Min.Y + clampIndex(int(uv[1]*float32(b.Dy())), b.Dy())
	c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
	return mgl32.Vec4{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
