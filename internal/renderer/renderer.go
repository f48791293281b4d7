package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"rtviewer/internal/mesh"
	"rtviewer/internal/shaders"
	"rtviewer/internal/shading"
	"rtviewer/internal/uniforms"
)

// ErrNotReady is returned by Render while the swap chain or render target is
// missing, e.g. after a failed Resize.
var ErrNotReady = errors.New("renderer targets not available")

// Options configures a Renderer
type Options struct {
	Width, Height uint32
	VSync         bool
	ClearColor    [4]float64
	// Shaders resolves stage sources; nil uses the embedded copies
	Shaders *shaders.Library
}

// Renderer draws meshes with the mesh vertex stage, either straight to the
// swap chain or into an offscreen render target that the composite stage
// then re-samples in screen space through the effect mesh.
type Renderer struct {
	device          *wgpu.Device
	queue           *wgpu.Queue
	surface         *wgpu.Surface
	adapter         *wgpu.Adapter
	swapChain       *wgpu.SwapChain
	swapChainFormat wgpu.TextureFormat
	presentMode     wgpu.PresentMode

	library *shaders.Library
	sampler *wgpu.Sampler
	layouts bindGroupLayouts

	pipelines map[pipelineKind]*wgpu.RenderPipeline

	cameraBlock     *uniforms.Block
	cameraBuffer    *wgpu.Buffer
	cameraBindGroup *wgpu.BindGroup

	materialBlock     *uniforms.Block
	materialBuffer    *wgpu.Buffer
	materialBindGroup *wgpu.BindGroup

	target *renderTarget
	depth  *depthTarget

	effect   *mesh.Mesh
	meshes   map[*mesh.Mesh]*gpuMesh
	meshesMu sync.Mutex

	clear wgpu.Color

	width  uint32
	height uint32
}

// NewRenderer creates a new WebGPU renderer
func NewRenderer(adapter *wgpu.Adapter, device *wgpu.Device, queue *wgpu.Queue, surface *wgpu.Surface, opts Options) (*Renderer, error) {
	if opts.Width == 0 || opts.Height == 0 {
		return nil, fmt.Errorf("renderer size must be positive, got %dx%d", opts.Width, opts.Height)
	}

	effect, err := mesh.New(mesh.Cube())
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surface:       surface,
		presentMode:   presentMode(opts.VSync),
		library:       opts.Shaders,
		pipelines:     make(map[pipelineKind]*wgpu.RenderPipeline),
		cameraBlock:   uniforms.NewBlock(shading.CameraBlockSizes()...),
		materialBlock: uniforms.NewBlock(shading.MaterialBlockSizes()...),
		effect:        effect,
		meshes:        make(map[*mesh.Mesh]*gpuMesh),
		clear:         clearColor(opts.ClearColor),
		width:         opts.Width,
		height:        opts.Height,
	}

	if err := r.init(); err != nil {
		r.Release()
		return nil, err
	}

	return r, nil
}

func (r *Renderer) init() error {
	r.swapChainFormat = r.surface.GetPreferredFormat(r.adapter)

	if err := r.createSwapChain(); err != nil {
		return err
	}

	var err error
	r.sampler, err = r.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:   wgpu.AddressMode_ClampToEdge,
		AddressModeV:   wgpu.AddressMode_ClampToEdge,
		AddressModeW:   wgpu.AddressMode_ClampToEdge,
		MagFilter:      wgpu.FilterMode_Linear,
		MinFilter:      wgpu.FilterMode_Linear,
		MipmapFilter:   wgpu.MipmapFilterMode_Nearest,
		MaxAnisotrophy: 1,
	})
	if err != nil {
		return fmt.Errorf("sampler creation failed: %w", err)
	}

	if err := r.createLayouts(); err != nil {
		return err
	}

	r.cameraBuffer, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "camera_uniform",
		Size:  r.cameraBlock.Size(),
		Usage: wgpu.BufferUsage_Uniform | wgpu.BufferUsage_CopyDst,
	})
	if err != nil {
		return fmt.Errorf("camera buffer creation failed: %w", err)
	}
	r.cameraBindGroup, err = r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "camera_bind_group",
		Layout: r.layouts.camera,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.cameraBuffer, Size: r.cameraBlock.Size()},
		},
	})
	if err != nil {
		return fmt.Errorf("camera bind group creation failed: %w", err)
	}

	r.materialBuffer, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "material_uniform",
		Size:  r.materialBlock.Size(),
		Usage: wgpu.BufferUsage_Uniform | wgpu.BufferUsage_CopyDst,
	})
	if err != nil {
		return fmt.Errorf("material buffer creation failed: %w", err)
	}

	if err := r.createTargets(); err != nil {
		return err
	}

	for _, kind := range allPipelines {
		p, err := r.buildPipeline(kind)
		if err != nil {
			return err
		}
		r.pipelines[kind] = p
	}

	return nil
}

func (r *Renderer) createSwapChain() error {
	var err error
	r.swapChain, err = r.device.CreateSwapChain(r.surface, &wgpu.SwapChainDescriptor{
		Usage:       wgpu.TextureUsage_RenderAttachment,
		Format:      r.swapChainFormat,
		Width:       r.width,
		Height:      r.height,
		PresentMode: r.presentMode,
	})
	if err != nil {
		return fmt.Errorf("swap chain creation failed: %w", err)
	}
	return nil
}

// Size returns the swap chain and render target size in pixels
func (r *Renderer) Size() (uint32, uint32) {
	return r.width, r.height
}

// ViewportSize is the value bound to the composite stage
func (r *Renderer) ViewportSize() mgl32.Vec2 {
	if r.target == nil {
		return mgl32.Vec2{}
	}
	return targetMaterial(r.target).ViewportSize
}

// SetEffectTransformation positions the mesh that carries the composite stage
func (r *Renderer) SetEffectTransformation(t mgl32.Mat4) {
	r.effect.SetTransformation(t)
}

// Resize recreates the swap chain, depth buffer and render target. Zero sizes
// (minimised windows) are ignored.
func (r *Renderer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if width == r.width && height == r.height && r.ready() == nil {
		return nil
	}
	r.width = width
	r.height = height

	if r.swapChain != nil {
		r.swapChain.Release()
		r.swapChain = nil
	}
	if err := r.createSwapChain(); err != nil {
		return err
	}

	r.releaseTargets()
	return r.createTargets()
}

// Release frees all GPU resources
func (r *Renderer) Release() {
	r.meshesMu.Lock()
	for m, g := range r.meshes {
		g.release()
		delete(r.meshes, m)
	}
	r.meshesMu.Unlock()

	for kind, p := range r.pipelines {
		p.Release()
		delete(r.pipelines, kind)
	}

	r.releaseTargets()

	if r.cameraBindGroup != nil {
		r.cameraBindGroup.Release()
		r.cameraBindGroup = nil
	}
	if r.cameraBuffer != nil {
		r.cameraBuffer.Release()
		r.cameraBuffer = nil
	}
	if r.materialBuffer != nil {
		r.materialBuffer.Release()
		r.materialBuffer = nil
	}
	r.layouts.release()
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	if r.swapChain != nil {
		r.swapChain.Release()
		r.swapChain = nil
	}
}

func (r *Renderer) ready() error {
	if r.swapChain == nil || r.target == nil || r.depth == nil || r.materialBindGroup == nil {
		return ErrNotReady
	}
	return nil
}

func presentMode(vsync bool) wgpu.PresentMode {
	if vsync {
		return wgpu.PresentMode_Fifo
	}
	return wgpu.PresentMode_Immediate
}

func clearColor(c [4]float64) wgpu.Color {
	return wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}
