package app

import (
	"errors"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// CreateSurface creates a WebGPU surface for an X11 window
func CreateSurface(instance *wgpu.Instance, window *glfw.Window) (*wgpu.Surface, error) {
	display := glfw.GetX11Display()
	if display == nil {
		return nil, errors.New("no X11 display")
	}

	surface := instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "rtviewer_surface",
		XlibWindow: &wgpu.SurfaceDescriptorFromXlibWindow{
			Display: unsafe.Pointer(display),
			Window:  uint32(window.GetX11Window()),
		},
	})
	if surface == nil {
		return nil, errors.New("CreateSurface returned nil")
	}
	return surface, nil
}
