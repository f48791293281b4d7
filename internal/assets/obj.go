package assets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"rtviewer/internal/mesh"
)

var ErrMalformedOBJ = errors.New("malformed obj")

// ParseOBJ reads vertex positions and faces from a Wavefront OBJ stream.
// Polygons are triangulated as fans. Texture coordinates, normals, groups and
// materials are ignored.
func ParseOBJ(r io.Reader) (*mesh.CPUMesh, error) {
	m := &mesh.CPUMesh{Indices: []uint32{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		switch fields[0] {
		case "o":
			if m.Name == "" && len(fields) > 1 {
				m.Name = strings.Join(fields[1:], " ")
			}
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrMalformedOBJ, line)
			}
			var p mgl32.Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
				}
				p[i] = float32(f)
			}
			m.Positions = append(m.Positions, p)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 vertices", ErrMalformedOBJ, line)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := resolveIndex(ref, len(m.Positions))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
				}
				face = append(face, idx)
			}
			for i := 1; i+1 < len(face); i++ {
				m.Indices = append(m.Indices, face[0], face[i], face[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// resolveIndex turns a "v", "v/vt", "v//vn" or "v/vt/vn" reference into a
// zero based position index. Negative references count back from the last vertex.
func resolveIndex(ref string, count int) (uint32, error) {
	v := ref
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		v = ref[:i]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("bad vertex reference %q", ref)
	}
	switch {
	case n > 0 && n <= count:
		return uint32(n - 1), nil
	case n < 0 && -n <= count:
		return uint32(count + n), nil
	default:
		return 0, fmt.Errorf("vertex reference %d out of range (vertices=%d)", n, count)
	}
}
