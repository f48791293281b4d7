package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrInvalidMesh = errors.New("invalid mesh")

// VertexStride is the byte size of one flattened position.
const VertexStride = 3 * 4

// CPUMesh is triangle geometry before upload. Positions are local space.
type CPUMesh struct {
	Name      string
	Positions []mgl32.Vec3
	// Indices holds three entries per triangle; nil means Positions is a triangle list
	Indices []uint32
}

// AABB is an axis aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Cube returns the unit cube spanning [-1,1] on every axis.
func Cube() *CPUMesh {
	return &CPUMesh{
		Name: "cube",
		Positions: []mgl32.Vec3{
			{-1.0, -1.0, 1.0},
			{1.0, -1.0, 1.0},
			{1.0, 1.0, 1.0},
			{-1.0, 1.0, 1.0},
			// back
			{-1.0, -1.0, -1.0},
			{1.0, -1.0, -1.0},
			{1.0, 1.0, -1.0},
			{-1.0, 1.0, -1.0},
		},
		Indices: []uint32{
			// front
			2, 1, 0,
			0, 3, 2,
			// top
			6, 5, 1,
			1, 2, 6,
			// back
			5, 6, 7,
			7, 4, 5,
			// bottom
			3, 0, 4,
			4, 7, 3,
			// left
			1, 5, 4,
			4, 0, 1,
			// right
			6, 2, 3,
			3, 7, 6,
		},
	}
}

// Validate checks the mesh can be drawn.
func (m *CPUMesh) Validate() error {
	if len(m.Positions) == 0 {
		return fmt.Errorf("%w: %q has no positions", ErrInvalidMesh, m.Name)
	}
	if m.Indices == nil {
		if len(m.Positions)%3 != 0 {
			return fmt.Errorf("%w: %q has %d positions, not a triangle list", ErrInvalidMesh, m.Name, len(m.Positions))
		}
		return nil
	}
	if len(m.Indices) == 0 || len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %q has %d indices, want a positive multiple of 3", ErrInvalidMesh, m.Name, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: %q index %d at %d out of range (positions=%d)", ErrInvalidMesh, m.Name, idx, i, len(m.Positions))
		}
	}
	return nil
}

// ElementCount is the number of vertices a draw call will emit.
func (m *CPUMesh) ElementCount() uint32 {
	if m.Indices != nil {
		return uint32(len(m.Indices))
	}
	return uint32(len(m.Positions))
}

// Flatten returns positions as a tightly packed x,y,z float slice.
func (m *CPUMesh) Flatten() []float32 {
	out := make([]float32, 0, len(m.Positions)*3)
	for _, p := range m.Positions {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

// AABB computes the local space bounds.
func (m *CPUMesh) AABB() AABB {
	if len(m.Positions) == 0 {
		return AABB{}
	}
	box := AABB{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		box = box.expand(p)
	}
	return box
}

// Center is the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size is the edge length on each axis.
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Transform returns the box enclosing all eight transformed corners.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	inf := float32(math.Inf(1))
	out := AABB{Min: mgl32.Vec3{inf, inf, inf}, Max: mgl32.Vec3{-inf, -inf, -inf}}
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{
			pick(i&1 != 0, b.Max[0], b.Min[0]),
			pick(i&2 != 0, b.Max[1], b.Min[1]),
			pick(i&4 != 0, b.Max[2], b.Min[2]),
		}
		out = out.expand(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

func (b AABB) expand(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}

// Mesh is one drawable instance of a CPUMesh with its world transform.
type Mesh struct {
	CPU *CPUMesh

	transformation mgl32.Mat4
	aabbLocal      AABB
	aabb           AABB
}

// New validates cpu and wraps it with an identity transform.
func New(cpu *CPUMesh) (*Mesh, error) {
	if err := cpu.Validate(); err != nil {
		return nil, err
	}
	box := cpu.AABB()
	return &Mesh{
		CPU:            cpu,
		transformation: mgl32.Ident4(),
		aabbLocal:      box,
		aabb:           box,
	}, nil
}

func (m *Mesh) Transformation() mgl32.Mat4 {
	return m.transformation
}

// SetTransformation replaces the model matrix and refreshes the world bounds.
func (m *Mesh) SetTransformation(t mgl32.Mat4) {
	m.transformation = t
	m.aabb = m.aabbLocal.Transform(t)
}

// AABB is the world space bounds under the current transformation.
func (m *Mesh) AABB() AABB {
	return m.aabb
}
