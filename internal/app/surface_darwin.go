package app

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework QuartzCore -framework Metal

#import <Cocoa/Cocoa.h>
#import <QuartzCore/CAMetalLayer.h>
#import <Metal/Metal.h>

void* setupMetalLayer(void* nsWindow) {
    if (nsWindow == NULL) {
        return NULL;
    }

    NSWindow* window = (__bridge NSWindow*)nsWindow;
    NSView* view = [window contentView];
    if (view == nil) {
        return NULL;
    }

    // layer-backed view so the Metal layer can replace the default one
    [view setWantsLayer:YES];

    CAMetalLayer* metalLayer = [CAMetalLayer layer];
    metalLayer.device = MTLCreateSystemDefaultDevice();
    metalLayer.pixelFormat = MTLPixelFormatBGRA8Unorm;
    metalLayer.framebufferOnly = YES;
    metalLayer.frame = view.bounds;
    // match the retina framebuffer glfw reports, not the window points
    metalLayer.contentsScale = [window backingScaleFactor];

    [view setLayer:metalLayer];

    return (__bridge void*)metalLayer;
}
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"rtviewer/internal/logging"
)

// CreateSurface creates a WebGPU surface backed by a CAMetalLayer attached to
// the window's content view
func CreateSurface(instance *wgpu.Instance, window *glfw.Window) (*wgpu.Surface, error) {
	nsWindow := window.GetCocoaWindow()
	if nsWindow == nil {
		return nil, errors.New("GetCocoaWindow returned nil")
	}

	metalLayer := C.setupMetalLayer(nsWindow)
	if metalLayer == nil {
		return nil, errors.New("setupMetalLayer returned nil")
	}
	logging.Debug("metal layer created: %p", metalLayer)

	surface := instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "rtviewer_surface",
		MetalLayer: &wgpu.SurfaceDescriptorFromMetalLayer{
			Layer: unsafe.Pointer(metalLayer),
		},
	})
	if surface == nil {
		return nil, errors.New("CreateSurface returned nil")
	}
	return surface, nil
}
