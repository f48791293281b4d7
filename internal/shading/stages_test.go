package shading

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-5

// near compares element-wise with an absolute tolerance.
func near(got, want []float32, tol float32) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		d := got[i] - want[i]
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}

func identityCamera() CameraUniforms {
	return CameraUniforms{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
}

func TestTransformVertexIdentity(t *testing.T) {
	out := TransformVertex(identityCamera(), mgl32.Ident4(), mgl32.Vec3{1, 2, 3})

	if !near(out.Clip[:], []float32{1, 2, 3, 1}, epsilon) {
		t.Errorf("clip = %v, want (1,2,3,1)", out.Clip)
	}
	if !near(out.TexPos[:], []float32{1.5, 2.5, 3.5}, epsilon) {
		t.Errorf("texPos = %v, want (1.5,2.5,3.5)", out.TexPos)
	}
}

func TestTransformVertexTexPosFollowsModel(t *testing.T) {
	camera := CameraUniforms{
		View:       mgl32.LookAtV(mgl32.Vec3{4, 4, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection: mgl32.Perspective(mgl32.DegToRad(45), 16.0/9.0, 0.1, 1000),
	}
	models := []struct {
		name  string
		model mgl32.Mat4
	}{
		{"translate", mgl32.Translate3D(3, -2, 7)},
		{"scale", mgl32.Scale3D(2, 0.5, 4)},
		{"rotate", mgl32.HomogRotate3DY(mgl32.DegToRad(30))},
		{"compound", mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DX(1.1)).Mul4(mgl32.Scale3D(3, 3, 3))},
	}
	positions := []mgl32.Vec3{{0, 0, 0}, {1, -1, 1}, {-0.5, 0.25, 2}}

	for _, m := range models {
		t.Run(m.name, func(t *testing.T) {
			for _, p := range positions {
				out := TransformVertex(camera, m.model, p)
				want := mgl32.TransformCoordinate(p, m.model).Add(TexPosBias)
				if !near(out.TexPos[:], want[:], epsilon) {
					t.Errorf("position %v: texPos = %v, want %v", p, out.TexPos, want)
				}
				wantClip := camera.Projection.Mul4(camera.View).Mul4(m.model).Mul4x1(p.Vec4(1))
				if !near(out.Clip[:], wantClip[:], 1e-3) {
					t.Errorf("position %v: clip = %v, want %v", p, out.Clip, wantClip)
				}
			}
		})
	}
}

func TestTexPosIsNotClamped(t *testing.T) {
	out := TransformVertex(identityCamera(), mgl32.Scale3D(10, 10, 10), mgl32.Vec3{-1, 1, 0})
	want := mgl32.Vec3{-9.5, 10.5, 0.5}
	if !near(out.TexPos[:], want[:], epsilon) {
		t.Errorf("texPos = %v, want %v", out.TexPos, want)
	}
}

func TestScreenTexCoords(t *testing.T) {
	tests := []struct {
		name      string
		fragCoord mgl32.Vec2
		viewport  mgl32.Vec2
		want      mgl32.Vec2
	}{
		{"centre", mgl32.Vec2{400, 300}, mgl32.Vec2{800, 600}, mgl32.Vec2{0.5, 0.5}},
		{"origin", mgl32.Vec2{0, 0}, mgl32.Vec2{800, 600}, mgl32.Vec2{0, 0}},
		{"far corner", mgl32.Vec2{800, 600}, mgl32.Vec2{800, 600}, mgl32.Vec2{1, 1}},
		{"first pixel centre", mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{2, 4}, mgl32.Vec2{0.25, 0.125}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScreenTexCoords(tt.fragCoord, tt.viewport)
			if !near(got[:], tt.want[:], epsilon) {
				t.Errorf("ScreenTexCoords(%v, %v) = %v, want %v", tt.fragCoord, tt.viewport, got, tt.want)
			}
		})
	}
}

func TestScreenTexCoordsInverseProportional(t *testing.T) {
	frag := mgl32.Vec2{123, 45}
	base := ScreenTexCoords(frag, mgl32.Vec2{640, 480})
	for _, k := range []float32{0.5, 2, 3, 10} {
		got := ScreenTexCoords(frag, mgl32.Vec2{640 * k, 480 * k})
		want := base.Mul(1 / k)
		if !near(got[:], want[:], epsilon) {
			t.Errorf("k=%v: got %v, want %v", k, got, want)
		}
	}
}

func TestScreenTexCoordsZeroViewport(t *testing.T) {
	got := ScreenTexCoords(mgl32.Vec2{1, 0}, mgl32.Vec2{0, 0})
	if !math.IsInf(float64(got[0]), 1) {
		t.Errorf("x = %v, want +Inf", got[0])
	}
	if !math.IsNaN(float64(got[1])) {
		t.Errorf("y = %v, want NaN", got[1])
	}
}

func TestCompositeColorAlwaysOpaque(t *testing.T) {
	samples := []mgl32.Vec4{
		{0, 0, 0, 0},
		{1, 0.5, 0.25, 0.1},
		{0.2, 0.3, 0.4, 1},
		{2, -1, 0, 0.75},
	}
	for _, s := range samples {
		got := CompositeColor(s)
		if got[3] != 1 {
			t.Errorf("CompositeColor(%v) alpha = %v, want 1", s, got[3])
		}
		if got.Vec3() != s.Vec3() {
			t.Errorf("CompositeColor(%v) rgb = %v, want %v", s, got.Vec3(), s.Vec3())
		}
	}
}

func TestCompositeSameSize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 100), B: 7, A: uint8(x * 20)})
		}
	}

	dst := Composite(src, 4, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			got := dst.RGBAAt(x, y)
			want := src.NRGBAAt(x, y)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Errorf("pixel (%d,%d) = %v, want rgb of %v", x, y, got, want)
			}
			if got.A != 255 {
				t.Errorf("pixel (%d,%d) alpha = %d, want 255", x, y, got.A)
			}
		}
	}
}

func TestCompositeStretchesMismatchedSource(t *testing.T) {
	// a 2x1 source composited over 4x1 covers two target pixels per texel
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})

	dst := Composite(src, 4, 1)
	wantRed := []bool{true, true, false, false}
	for x, red := range wantRed {
		c := dst.RGBAAt(x, 0)
		if (c.R == 255) != red {
			t.Errorf("pixel %d = %v, red=%v", x, c, red)
		}
	}
}

func TestCompositeEmpty(t *testing.T) {
	dst := Composite(image.NewNRGBA(image.Rect(0, 0, 2, 2)), 0, 0)
	if !dst.Bounds().Empty() {
		t.Errorf("bounds = %v, want empty", dst.Bounds())
	}
}
