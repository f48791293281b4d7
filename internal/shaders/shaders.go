// Package shaders provides the WGSL stage sources, embedded in the binary and
// optionally overridden from a directory that is watched for edits.
package shaders

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Stage file names. Overrides in a shader directory use the same names.
const (
	MeshVertex        = "mesh.vert.wgsl"
	CompositeFragment = "composite.frag.wgsl"
	SceneFragment     = "scene.frag.wgsl"
)

// Entry points every stage source must define.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

var ErrUnknownStage = errors.New("unknown shader stage")

// MeshVertexShader transforms mesh positions by camera view/projection and the
// model matrix and emits the world position biased by 0.5 as texPos.
//
//go:embed mesh.vert.wgsl
var MeshVertexShader string

// CompositeFragmentShader samples the render texture at fragCoord / viewportSize.
//
//go:embed composite.frag.wgsl
var CompositeFragmentShader string

// SceneFragmentShader writes the interpolated texPos as an opaque colour.
//
//go:embed scene.frag.wgsl
var SceneFragmentShader string

var embedded = map[string]string{
	MeshVertex:        MeshVertexShader,
	CompositeFragment: CompositeFragmentShader,
	SceneFragment:     SceneFragmentShader,
}

// Stages lists every known stage name.
func Stages() []string {
	return []string{MeshVertex, CompositeFragment, SceneFragment}
}

// EntryPoint returns the entry function name for a stage.
func EntryPoint(name string) (string, error) {
	switch name {
	case MeshVertex:
		return VertexEntryPoint, nil
	case CompositeFragment, SceneFragment:
		return FragmentEntryPoint, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
}

// Library resolves stage sources, preferring files in Dir when set.
type Library struct {
	Dir string
}

// Load returns the source for a stage. A missing override falls back to the
// embedded copy; an unreadable or invalid one is an error.
func (l *Library) Load(name string) (string, error) {
	src, ok := embedded[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	if l == nil || l.Dir == "" {
		return src, nil
	}

	data, err := os.ReadFile(filepath.Join(l.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return src, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read shader override %s: %w", name, err)
	}
	if err := CheckEntryPoint(name, string(data)); err != nil {
		return "", err
	}
	return string(data), nil
}

// CheckEntryPoint catches overrides that lost their entry function before they
// reach the GPU compiler.
func CheckEntryPoint(name, source string) error {
	entry, err := EntryPoint(name)
	if err != nil {
		return err
	}
	re := regexp.MustCompile(`\bfn\s+` + entry + `\s*\(`)
	if !re.MatchString(source) {
		return fmt.Errorf("shader %s has no %s entry point", name, entry)
	}
	return nil
}
