package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"rtviewer/internal/shading"
)

const (
	renderTargetFormat = wgpu.TextureFormat_RGBA8Unorm
	depthFormat        = wgpu.TextureFormat_Depth24Plus
)

// renderTarget is the offscreen colour texture the scene pass draws into and
// the composite pass samples.
type renderTarget struct {
	Label   string
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
}

func (t *renderTarget) release() {
	if t.View != nil {
		t.View.Release()
	}
	if t.Texture != nil {
		t.Texture.Release()
	}
}

type depthTarget struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

func (t *depthTarget) release() {
	if t.View != nil {
		t.View.Release()
	}
	if t.Texture != nil {
		t.Texture.Release()
	}
}

func targetLabel() string {
	return "render_target_" + uuid.NewString()
}

func (r *Renderer) createTexture(label string, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
	texture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              r.width,
			Height:             r.height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension_2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, err
	}

	view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label + "_view",
		Format:          format,
		Dimension:       wgpu.TextureViewDimension_2D,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspect_All,
	})
	if err != nil {
		texture.Release()
		return nil, nil, err
	}
	return texture, view, nil
}

// createTargets sizes the render target and depth buffer to the current
// viewport and rebinds the material group so viewportSize matches the
// texture being sampled.
func (r *Renderer) createTargets() error {
	label := targetLabel()
	texture, view, err := r.createTexture(label, renderTargetFormat,
		wgpu.TextureUsage_RenderAttachment|wgpu.TextureUsage_TextureBinding)
	if err != nil {
		return fmt.Errorf("render target creation failed: %w", err)
	}
	r.target = &renderTarget{
		Label:   label,
		Texture: texture,
		View:    view,
		Width:   r.width,
		Height:  r.height,
	}

	depthTexture, depthView, err := r.createTexture("depth_texture", depthFormat, wgpu.TextureUsage_RenderAttachment)
	if err != nil {
		return fmt.Errorf("depth texture creation failed: %w", err)
	}
	r.depth = &depthTarget{Texture: depthTexture, View: depthView}

	material := targetMaterial(r.target)
	if err := r.materialBlock.Set(material.Floats()); err != nil {
		return err
	}
	r.queue.WriteBuffer(r.materialBuffer, 0, r.materialBlock.Bytes())
	r.materialBlock.ClearDirty()

	r.materialBindGroup, err = r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + "_bind_group",
		Layout: r.layouts.material,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.materialBuffer, Size: r.materialBlock.Size()},
			{Binding: 1, Sampler: r.sampler},
			{Binding: 2, TextureView: r.target.View},
		},
	})
	if err != nil {
		return fmt.Errorf("material bind group creation failed: %w", err)
	}
	return nil
}

// targetMaterial binds viewportSize to the size of the texture being sampled
func targetMaterial(t *renderTarget) shading.MaterialUniforms {
	return shading.MaterialUniforms{ViewportSize: mgl32.Vec2{float32(t.Width), float32(t.Height)}}
}

func (r *Renderer) releaseTargets() {
	if r.materialBindGroup != nil {
		r.materialBindGroup.Release()
		r.materialBindGroup = nil
	}
	if r.target != nil {
		r.target.release()
		r.target = nil
	}
	if r.depth != nil {
		r.depth.release()
		r.depth = nil
	}
}
