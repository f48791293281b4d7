package shading

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraFloatsLayout(t *testing.T) {
	c := CameraUniforms{
		View:       mgl32.Translate3D(1, 2, 3),
		Projection: mgl32.Scale3D(4, 5, 6),
	}
	f := c.Floats()
	if len(f) != 2*Mat4Floats {
		t.Fatalf("len = %d, want %d", len(f), 2*Mat4Floats)
	}
	// column-major: translation lives in elements 12..14 of the view matrix
	if f[12] != 1 || f[13] != 2 || f[14] != 3 {
		t.Errorf("view translation = %v", f[12:15])
	}
	if f[16] != 4 || f[16+5] != 5 || f[16+10] != 6 {
		t.Errorf("projection diagonal = %v %v %v", f[16], f[21], f[26])
	}
}

func TestBlockSizesMatchFloats(t *testing.T) {
	sum := func(s []int) int {
		n := 0
		for _, v := range s {
			n += v
		}
		return n
	}
	if got := sum(CameraBlockSizes()); got != len(CameraUniforms{}.Floats()) {
		t.Errorf("camera block = %d floats, Floats() = %d", got, len(CameraUniforms{}.Floats()))
	}
	if got := sum(MaterialBlockSizes()); got != len(MaterialUniforms{}.Floats()) {
		t.Errorf("material block = %d floats, Floats() = %d", got, len(MaterialUniforms{}.Floats()))
	}
	if got := len(ModelFloats(mgl32.Ident4())); got != Mat4Floats {
		t.Errorf("model floats = %d", got)
	}
}
