package renderer

import (
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"rtviewer/internal/camera"
	"rtviewer/internal/mesh"
	"rtviewer/internal/shading"
)

// Render draws one frame. With the effect on, scene meshes go into the render
// target and the effect mesh is drawn to the screen sampling it at
// fragCoord / viewportSize; with it off, scene meshes go straight to the screen.
func (r *Renderer) Render(cam *camera.Camera, scene []*mesh.Mesh, effect bool) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.writeCamera(cam); err != nil {
		return err
	}

	drawn := make([]*gpuMesh, 0, len(scene))
	for _, m := range scene {
		g, err := r.writeModel(m)
		if err != nil {
			return err
		}
		drawn = append(drawn, g)
	}

	view, err := r.swapChain.GetCurrentTextureView()
	if err != nil {
		return fmt.Errorf("acquiring swap chain texture failed: %w", err)
	}
	defer view.Release()

	encoder, err := r.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{})
	if err != nil {
		return err
	}
	defer encoder.Release()

	if effect {
		effectMesh, err := r.writeModel(r.effect)
		if err != nil {
			return err
		}

		pass := r.beginPass(encoder, r.target.View, "scene_pass")
		pass.SetPipeline(r.pipelines[scenePipeline])
		pass.SetBindGroup(0, r.cameraBindGroup, nil)
		for _, g := range drawn {
			g.draw(pass)
		}
		pass.End()

		pass = r.beginPass(encoder, view, "composite_pass")
		pass.SetPipeline(r.pipelines[compositePipeline])
		pass.SetBindGroup(0, r.cameraBindGroup, nil)
		pass.SetBindGroup(2, r.materialBindGroup, nil)
		effectMesh.draw(pass)
		pass.End()
	} else {
		pass := r.beginPass(encoder, view, "direct_pass")
		pass.SetPipeline(r.pipelines[directPipeline])
		pass.SetBindGroup(0, r.cameraBindGroup, nil)
		for _, g := range drawn {
			g.draw(pass)
		}
		pass.End()
	}

	cmdBuffer, err := encoder.Finish(&wgpu.CommandBufferDescriptor{})
	if err != nil {
		return err
	}
	defer cmdBuffer.Release()

	r.queue.Submit(cmdBuffer)
	r.swapChain.Present()

	return nil
}

func (r *Renderer) beginPass(encoder *wgpu.CommandEncoder, target *wgpu.TextureView, label string) *wgpu.RenderPassEncoder {
	return encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOp_Clear,
			StoreOp:    wgpu.StoreOp_Store,
			ClearValue: r.clear,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depth.View,
			DepthLoadOp:     wgpu.LoadOp_Clear,
			DepthStoreOp:    wgpu.StoreOp_Store,
			DepthClearValue: 1.0,
			StencilLoadOp:   wgpu.LoadOp_Undefined,
			StencilStoreOp:  wgpu.StoreOp_Undefined,
		},
	})
}

func (r *Renderer) writeCamera(cam *camera.Camera) error {
	u := shading.CameraUniforms{View: cam.View(), Projection: cam.Projection()}
	if err := r.cameraBlock.Update(shading.CameraViewSlot, u.View[:]); err != nil {
		return err
	}
	if err := r.cameraBlock.Update(shading.CameraProjectionSlot, u.Projection[:]); err != nil {
		return err
	}
	if r.cameraBlock.Dirty() {
		r.queue.WriteBuffer(r.cameraBuffer, 0, r.cameraBlock.Bytes())
		r.cameraBlock.ClearDirty()
	}
	return nil
}

func (r *Renderer) writeModel(m *mesh.Mesh) (*gpuMesh, error) {
	g, err := r.gpuMesh(m)
	if err != nil {
		return nil, err
	}
	r.queue.WriteBuffer(g.modelBuffer, 0, wgpu.ToBytes(shading.ModelFloats(m.Transformation())))
	return g, nil
}
