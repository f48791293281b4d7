//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and starts the viewer with rtviewer.toml when present.
func (Run) Viewer() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run viewer...")
	if _, err := executeCmd("bin/rtviewer", withStream()); err != nil {
		return err
	}
	return nil
}

// Starts the viewer with hot reload on the shader sources in the tree.
func (Run) Shaders() error {
	mg.Deps(Build.Binary)
	if _, err := executeCmd("bin/rtviewer", withArgs("-log-level", "debug", "-shader-dir", "internal/shaders"), withStream()); err != nil {
		return err
	}
	return nil
}
