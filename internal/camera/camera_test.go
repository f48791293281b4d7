package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestCamera() *Camera {
	return NewPerspective(1280, 720, mgl32.Vec3{4, 4, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 45, 0.1, 1000)
}

func TestSetViewport(t *testing.T) {
	c := newTestCamera()
	if c.SetViewport(1280, 720) {
		t.Error("SetViewport() reported a change for the same size")
	}
	if !c.SetViewport(800, 600) {
		t.Error("SetViewport() missed a change")
	}
	w, h := c.Viewport()
	if w != 800 || h != 600 {
		t.Errorf("Viewport() = %dx%d", w, h)
	}
	if !mgl32.FloatEqual(c.Aspect(), 800.0/600.0) {
		t.Errorf("Aspect() = %v", c.Aspect())
	}
	c.SetViewport(0, 0)
	if c.Aspect() != 1 {
		t.Errorf("degenerate Aspect() = %v, want 1", c.Aspect())
	}
}

func TestTargetProjectsToScreenCentre(t *testing.T) {
	c := newTestCamera()
	clip := c.Projection().Mul4(c.View()).Mul4x1(c.Target.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip[3])
	if abs(ndc[0]) > 1e-5 || abs(ndc[1]) > 1e-5 {
		t.Errorf("target ndc = %v, want centre", ndc)
	}
	if ndc[2] < 0 || ndc[2] > 1 {
		t.Errorf("target depth = %v, want within [0,1]", ndc[2])
	}
}

func TestProjectionDepthRange(t *testing.T) {
	c := newTestCamera()
	proj := c.Projection()
	near := proj.Mul4x1(mgl32.Vec4{0, 0, -c.Near, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -c.Far, 1})
	if d := near[2] / near[3]; abs(d) > 1e-3 {
		t.Errorf("near plane depth = %v, want 0", d)
	}
	if d := far[2] / far[3]; abs(d-1) > 1e-3 {
		t.Errorf("far plane depth = %v, want 1", d)
	}
}

func TestOrbitKeepsDistance(t *testing.T) {
	c := newTestCamera()
	before := c.Distance()
	c.Orbit(0.7, 0.2)
	if !mgl32.FloatEqualThreshold(c.Distance(), before, 1e-4) {
		t.Errorf("distance changed from %v to %v", before, c.Distance())
	}
}

func TestOrbitClampsPitch(t *testing.T) {
	c := newTestCamera()
	c.Orbit(0, 10)
	offset := c.Position.Sub(c.Target).Normalize()
	if offset[1] >= 1 {
		t.Errorf("camera reached the pole: %v", offset)
	}
	if offset[1] < 0.99 {
		t.Errorf("pitch not clamped near 89 degrees: %v", offset)
	}
}

func TestZoom(t *testing.T) {
	c := newTestCamera()
	before := c.Distance()
	c.Zoom(0.5)
	if !mgl32.FloatEqualThreshold(c.Distance(), before*0.5, 1e-4) {
		t.Errorf("Distance() = %v, want %v", c.Distance(), before*0.5)
	}
	c.Zoom(1)
	if c.Distance() < minDistance-1e-6 {
		t.Errorf("zoomed through the target: %v", c.Distance())
	}
}

func TestTranslateMovesTarget(t *testing.T) {
	c := newTestCamera()
	offset := c.Position.Sub(c.Target)
	c.Translate(1, 0.5, 2)
	if !c.Position.Sub(c.Target).ApproxEqualThreshold(offset, 1e-5) {
		t.Errorf("translate changed the view offset")
	}
	if c.Target.Len() == 0 {
		t.Error("target did not move")
	}
}

func TestDrag(t *testing.T) {
	c := newTestCamera()
	start := c.Position
	c.Drag(10, 10, 0.01)
	if c.Position != start {
		t.Error("Drag() moved the camera without StartDrag")
	}
	c.StartDrag(0, 0)
	if !c.IsDragging() {
		t.Fatal("IsDragging() = false")
	}
	c.Drag(25, 0, 0.01)
	if c.Position == start {
		t.Error("Drag() did not orbit")
	}
	c.EndDrag()
	if c.IsDragging() {
		t.Error("IsDragging() = true after EndDrag")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Error("Clamp on ints")
	}
	if Clamp(float32(0.5), 0, 1) != 0.5 {
		t.Error("Clamp on float32")
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
