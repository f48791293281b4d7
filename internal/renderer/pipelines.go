package renderer

import (
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"rtviewer/internal/logging"
	"rtviewer/internal/mesh"
	"rtviewer/internal/shaders"
)

type pipelineKind int

const (
	// scene meshes into the offscreen render target
	scenePipeline pipelineKind = iota
	// effect mesh into the swap chain, sampling the render target
	compositePipeline
	// scene meshes straight into the swap chain
	directPipeline
)

var allPipelines = []pipelineKind{scenePipeline, compositePipeline, directPipeline}

func (k pipelineKind) String() string {
	switch k {
	case scenePipeline:
		return "scene"
	case compositePipeline:
		return "composite"
	case directPipeline:
		return "direct"
	default:
		return fmt.Sprintf("pipeline(%d)", int(k))
	}
}

// fragmentStage names the fragment source linked with the mesh vertex stage
func (k pipelineKind) fragmentStage() string {
	if k == compositePipeline {
		return shaders.CompositeFragment
	}
	return shaders.SceneFragment
}

// groups is the number of bind groups the pipeline layout declares
func (k pipelineKind) groups() int {
	if k == compositePipeline {
		return 3
	}
	return 2
}

// affectedPipelines lists the pipelines that link a stage
func affectedPipelines(stage string) []pipelineKind {
	switch stage {
	case shaders.MeshVertex:
		return allPipelines
	case shaders.SceneFragment:
		return []pipelineKind{scenePipeline, directPipeline}
	case shaders.CompositeFragment:
		return []pipelineKind{compositePipeline}
	default:
		return nil
	}
}

type bindGroupLayouts struct {
	camera   *wgpu.BindGroupLayout
	model    *wgpu.BindGroupLayout
	material *wgpu.BindGroupLayout
}

func (l *bindGroupLayouts) ordered() []*wgpu.BindGroupLayout {
	return []*wgpu.BindGroupLayout{l.camera, l.model, l.material}
}

func (l *bindGroupLayouts) release() {
	for _, layout := range l.ordered() {
		if layout != nil {
			layout.Release()
		}
	}
	*l = bindGroupLayouts{}
}

func (r *Renderer) createLayouts() error {
	var err error
	r.layouts.camera, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "camera_bind_group_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStage_Vertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingType_Uniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("camera bind group layout creation failed: %w", err)
	}

	r.layouts.model, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "model_bind_group_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStage_Vertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingType_Uniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("model bind group layout creation failed: %w", err)
	}

	r.layouts.material, err = r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "material_bind_group_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStage_Fragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingType_Uniform},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStage_Fragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingType_Filtering},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStage_Fragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleType_Float,
					ViewDimension: wgpu.TextureViewDimension_2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("material bind group layout creation failed: %w", err)
	}
	return nil
}

func (r *Renderer) shaderModule(stage string) (*wgpu.ShaderModule, error) {
	src, err := r.library.Load(stage)
	if err != nil {
		return nil, err
	}
	module, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          stage,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if err != nil {
		return nil, fmt.Errorf("shader %s compilation failed: %w", stage, err)
	}
	return module, nil
}

func (r *Renderer) colorFormat(kind pipelineKind) wgpu.TextureFormat {
	if kind == scenePipeline {
		return renderTargetFormat
	}
	return r.swapChainFormat
}

func (r *Renderer) buildPipeline(kind pipelineKind) (*wgpu.RenderPipeline, error) {
	vertex, err := r.shaderModule(shaders.MeshVertex)
	if err != nil {
		return nil, err
	}
	defer vertex.Release()

	fragment, err := r.shaderModule(kind.fragmentStage())
	if err != nil {
		return nil, err
	}
	defer fragment.Release()

	pipelineLayout, err := r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            kind.String() + "_pipeline_layout",
		BindGroupLayouts: r.layouts.ordered()[:kind.groups()],
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline layout creation failed: %w", kind, err)
	}
	defer pipelineLayout.Release()

	keep := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunction_Always,
		FailOp:      wgpu.StencilOperation_Keep,
		DepthFailOp: wgpu.StencilOperation_Keep,
		PassOp:      wgpu.StencilOperation_Keep,
	}

	pipeline, err := r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  kind.String() + "_pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vertex,
			EntryPoint: shaders.VertexEntryPoint,
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: mesh.VertexStride,
				StepMode:    wgpu.VertexStepMode_Vertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormat_Float32x3, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fragment,
			EntryPoint: shaders.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    r.colorFormat(kind),
				Blend:     &wgpu.BlendState_Replace,
				WriteMask: wgpu.ColorWriteMask_All,
			}},
		},
		// two-sided: the built-in cube winds clockwise, OBJ files counter-clockwise
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopology_TriangleList,
			FrontFace: wgpu.FrontFace_CCW,
			CullMode:  wgpu.CullMode_None,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunction_Less,
			StencilFront:      keep,
			StencilBack:       keep,
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline creation failed: %w", kind, err)
	}
	return pipeline, nil
}

// ReloadShader rebuilds every pipeline linking stage. If any of them fails to
// build, all previous pipelines stay in use.
func (r *Renderer) ReloadShader(stage string) error {
	kinds := affectedPipelines(stage)
	if len(kinds) == 0 {
		return fmt.Errorf("%w: %q", shaders.ErrUnknownStage, stage)
	}

	rebuilt := make(map[pipelineKind]*wgpu.RenderPipeline, len(kinds))
	for _, kind := range kinds {
		p, err := r.buildPipeline(kind)
		if err != nil {
			for _, built := range rebuilt {
				built.Release()
			}
			return err
		}
		rebuilt[kind] = p
	}

	for kind, p := range rebuilt {
		if old := r.pipelines[kind]; old != nil {
			old.Release()
		}
		r.pipelines[kind] = p
		logging.Info("rebuilt %s pipeline after %s changed", kind, stage)
	}
	return nil
}
