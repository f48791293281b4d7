package renderer

import (
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"rtviewer/internal/mesh"
	"rtviewer/internal/shading"
)

const modelUniformSize = shading.Mat4Floats * 4

// gpuMesh holds the buffers for one mesh instance. Each instance owns its
// model uniform so every draw sees its own transformation.
type gpuMesh struct {
	vertexBuffer   *wgpu.Buffer
	indexBuffer    *wgpu.Buffer
	elementCount   uint32
	modelBuffer    *wgpu.Buffer
	modelBindGroup *wgpu.BindGroup
}

func (g *gpuMesh) release() {
	if g.modelBindGroup != nil {
		g.modelBindGroup.Release()
	}
	if g.modelBuffer != nil {
		g.modelBuffer.Release()
	}
	if g.indexBuffer != nil {
		g.indexBuffer.Release()
	}
	if g.vertexBuffer != nil {
		g.vertexBuffer.Release()
	}
}

func (g *gpuMesh) draw(pass *wgpu.RenderPassEncoder) {
	pass.SetBindGroup(1, g.modelBindGroup, nil)
	pass.SetVertexBuffer(0, g.vertexBuffer, 0, wgpu.WholeSize)
	if g.indexBuffer != nil {
		pass.SetIndexBuffer(g.indexBuffer, wgpu.IndexFormat_Uint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(g.elementCount, 1, 0, 0, 0)
		return
	}
	pass.Draw(g.elementCount, 1, 0, 0)
}

// Upload creates GPU buffers for m. Uploading the same mesh twice is a no-op.
func (r *Renderer) Upload(m *mesh.Mesh) error {
	_, err := r.gpuMesh(m)
	return err
}

// Forget releases the GPU buffers of m
func (r *Renderer) Forget(m *mesh.Mesh) {
	r.meshesMu.Lock()
	defer r.meshesMu.Unlock()

	if g, ok := r.meshes[m]; ok {
		g.release()
		delete(r.meshes, m)
	}
}

func (r *Renderer) gpuMesh(m *mesh.Mesh) (*gpuMesh, error) {
	r.meshesMu.Lock()
	defer r.meshesMu.Unlock()

	if g, ok := r.meshes[m]; ok {
		return g, nil
	}

	g, err := r.createGPUMesh(m.CPU)
	if err != nil {
		return nil, fmt.Errorf("upload of mesh %q failed: %w", m.CPU.Name, err)
	}
	r.meshes[m] = g
	return g, nil
}

func (r *Renderer) createGPUMesh(cpu *mesh.CPUMesh) (*gpuMesh, error) {
	g := &gpuMesh{elementCount: cpu.ElementCount()}

	var err error
	g.vertexBuffer, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    cpu.Name + "_vertex_buffer",
		Contents: wgpu.ToBytes(cpu.Flatten()),
		Usage:    wgpu.BufferUsage_Vertex,
	})
	if err != nil {
		return nil, err
	}

	if cpu.Indices != nil {
		g.indexBuffer, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    cpu.Name + "_index_buffer",
			Contents: wgpu.ToBytes(cpu.Indices),
			Usage:    wgpu.BufferUsage_Index,
		})
		if err != nil {
			g.release()
			return nil, err
		}
	}

	g.modelBuffer, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: cpu.Name + "_model_uniform",
		Size:  modelUniformSize,
		Usage: wgpu.BufferUsage_Uniform | wgpu.BufferUsage_CopyDst,
	})
	if err != nil {
		g.release()
		return nil, err
	}

	g.modelBindGroup, err = r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  cpu.Name + "_model_bind_group",
		Layout: r.layouts.model,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: g.modelBuffer, Size: modelUniformSize},
		},
	})
	if err != nil {
		g.release()
		return nil, err
	}
	return g, nil
}
