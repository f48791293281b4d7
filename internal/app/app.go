package app

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"rtviewer/internal/assets"
	"rtviewer/internal/camera"
	"rtviewer/internal/config"
	"rtviewer/internal/debugserver"
	"rtviewer/internal/logging"
	"rtviewer/internal/mesh"
	"rtviewer/internal/metrics"
	"rtviewer/internal/renderer"
	"rtviewer/internal/shaders"
)

const (
	// DragSensitivity is the orbit angle in radians per dragged pixel
	DragSensitivity = 0.01
	// ScrollZoom is the fraction of the distance moved per wheel step
	ScrollZoom = 0.1

	idleWait     = 1.0 / 30
	loadTimeout  = 60 * time.Second
	titleRefresh = time.Second
)

type App struct {
	window   *glfw.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	cfg      *config.Config
	renderer *renderer.Renderer
	camera   *camera.Camera
	assets   *assets.Cache
	watcher  *shaders.Watcher
	debug    *debugserver.Server
	frames   *metrics.Frames

	scene []*mesh.Mesh

	keys   map[glfw.Key]bool
	keysMu sync.RWMutex

	// changed requests a redraw on the next loop iteration
	changed bool
	effect  bool

	stats   debugserver.Stats
	statsMu sync.RWMutex

	width, height int
}

// New opens the window, initialises WebGPU and loads the scene
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	runtime.LockOSThread()

	backend, err := backendFlags(cfg.Rendering.Backend)
	if err != nil {
		return nil, err
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("GLFW init failed: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.True)

	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window creation failed: %w", err)
	}

	app := &App{
		window:  window,
		cfg:     cfg,
		frames:  metrics.New(),
		keys:    make(map[glfw.Key]bool),
		changed: true,
		effect:  cfg.Rendering.EffectEnabled,
	}
	app.width, app.height = window.GetFramebufferSize()

	if err := app.initWebGPU(backend); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.camera = camera.NewPerspective(app.width, app.height,
		mgl32.Vec3(cfg.Camera.Position), mgl32.Vec3(cfg.Camera.Target), mgl32.Vec3(cfg.Camera.Up),
		cfg.Camera.FovDegrees, cfg.Camera.Near, cfg.Camera.Far)

	app.renderer, err = renderer.NewRenderer(app.adapter, app.device, app.queue, app.surface, renderer.Options{
		Width:      uint32(app.width),
		Height:     uint32(app.height),
		VSync:      cfg.Rendering.VSync,
		ClearColor: cfg.Rendering.ClearColor,
		Shaders:    &shaders.Library{Dir: cfg.Rendering.ShaderDir},
	})
	if err != nil {
		app.Cleanup()
		return nil, fmt.Errorf("renderer creation failed: %w", err)
	}

	if err := app.loadScene(ctx); err != nil {
		app.Cleanup()
		return nil, err
	}

	if cfg.Rendering.ShaderDir != "" {
		app.watcher, err = shaders.NewWatcher(cfg.Rendering.ShaderDir)
		if err != nil {
			logging.Warn("shader hot reload disabled: %v", err)
		}
	}

	if cfg.Debug.Addr != "" {
		app.debug = debugserver.NewServer(app, cfg.Debug.Addr)
		if err := app.debug.Start(); err != nil {
			logging.Warn("debug server disabled: %v", err)
			app.debug = nil
		}
	}

	app.setupCallbacks()
	return app, nil
}

func (app *App) initWebGPU(backend wgpu.InstanceBackend) error {
	app.instance = wgpu.CreateInstance(&wgpu.InstanceDescriptor{
		Backends: backend,
	})
	if app.instance == nil {
		return fmt.Errorf("failed to create WebGPU instance")
	}

	var err error
	app.surface, err = CreateSurface(app.instance, app.window)
	if err != nil {
		return fmt.Errorf("surface creation failed: %w", err)
	}

	// Request adapter - try with surface first, then without
	app.adapter, err = app.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: app.surface,
		PowerPreference:   wgpu.PowerPreference_HighPerformance,
	})
	if err != nil {
		logging.Warn("no adapter for surface, retrying without surface constraint: %v", err)
		app.adapter, err = app.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreference_HighPerformance,
		})
		if err != nil {
			return fmt.Errorf("adapter request failed: %w", err)
		}
	}

	props := app.adapter.GetProperties()
	logging.Info("GPU: %s (%s)", props.Name, props.DriverDescription)

	app.device, err = app.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "rtviewer_device",
	})
	if err != nil {
		return fmt.Errorf("device request failed: %w", err)
	}

	app.queue = app.device.GetQueue()
	return nil
}

// loadScene uploads the configured model, or a cube when none is set
func (app *App) loadScene(ctx context.Context) error {
	cpu := mesh.Cube()
	if source := app.cfg.Scene.Model; source != "" {
		cache, err := assets.NewCache(app.cfg.Scene.CacheDir)
		if err != nil {
			return err
		}
		app.assets = cache

		ctx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()
		cpu, err = cache.Model(ctx, source)
		if err != nil {
			return fmt.Errorf("loading model %s failed: %w", source, err)
		}
	}

	m, err := mesh.New(cpu)
	if err != nil {
		return err
	}
	if err := app.renderer.Upload(m); err != nil {
		return err
	}
	aabb := m.AABB()
	logging.Info("scene %q: %d indices, bounds %v..%v", cpu.Name, cpu.ElementCount(), aabb.Min, aabb.Max)

	app.scene = append(app.scene, m)
	return nil
}

// Run drives the frame loop until the window closes or ctx is cancelled
func (app *App) Run(ctx context.Context) error {
	last := time.Now()
	lastTitle := last

	for !app.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if shouldRedraw(app.changed, app.effect) {
			glfw.PollEvents()
		} else {
			glfw.WaitEventsTimeout(idleWait)
		}
		app.processInput()
		app.reloadShaders()

		if effect := config.EffectEnabled(); effect != app.effect {
			app.effect = effect
			app.changed = true
			logging.Info("effect: %v", effect)
		}

		if !shouldRedraw(app.changed, app.effect) {
			continue
		}
		app.changed = false

		if err := app.renderer.Render(app.camera, app.scene, app.effect); err != nil {
			logging.Error("render error: %v", err)
		}

		now := time.Now()
		app.frames.Update(now.Sub(last).Seconds())
		last = now
		app.updateStats()

		if now.Sub(lastTitle) >= titleRefresh {
			fps, ms := app.frames.Frame()
			app.window.SetTitle(windowTitle(app.cfg.Window.Title, fps, ms, app.effect))
			lastTitle = now
		}
	}

	return nil
}

func (app *App) reloadShaders() {
	if app.watcher == nil {
		return
	}
	for _, stage := range app.watcher.Drain() {
		if err := app.renderer.ReloadShader(stage); err != nil {
			logging.Error("keeping previous pipelines: %v", err)
			continue
		}
		app.changed = true
	}
}

func (app *App) updateStats() {
	fps, ms := app.frames.Frame()
	app.statsMu.Lock()
	app.stats = debugserver.Stats{
		FPS:            fps,
		FrameTimeMS:    ms,
		ViewportWidth:  app.width,
		ViewportHeight: app.height,
		Meshes:         len(app.scene),
		EffectEnabled:  app.effect,
	}
	app.statsMu.Unlock()
}

// Stats implements debugserver.StatsSource
func (app *App) Stats() debugserver.Stats {
	app.statsMu.RLock()
	defer app.statsMu.RUnlock()
	return app.stats
}

func (app *App) Cleanup() {
	if app.debug != nil {
		app.debug.Stop()
	}
	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.renderer != nil {
		app.renderer.Release()
	}
	if app.assets != nil {
		app.assets.Close()
	}
	if app.queue != nil {
		app.queue.Release()
	}
	if app.device != nil {
		app.device.Release()
	}
	if app.adapter != nil {
		app.adapter.Release()
	}
	if app.surface != nil {
		app.surface.Release()
	}
	if app.instance != nil {
		app.instance.Release()
	}
	if app.window != nil {
		app.window.Destroy()
	}
	glfw.Terminate()
}

// shouldRedraw presents a new frame when something changed, and every frame
// while the composite is active.
func shouldRedraw(changed, effect bool) bool {
	return changed || effect
}

func windowTitle(base string, fps, frameMS float64, effect bool) string {
	state := "off"
	if effect {
		state = "on"
	}
	return fmt.Sprintf("%s | FPS: %.0f (%.2f ms) | effect: %s", base, fps, frameMS, state)
}

func backendFlags(name string) (wgpu.InstanceBackend, error) {
	switch strings.ToLower(name) {
	case "", "primary":
		return wgpu.InstanceBackend_Primary, nil
	case "vulkan":
		return wgpu.InstanceBackend_Vulkan, nil
	case "metal":
		return wgpu.InstanceBackend_Metal, nil
	case "dx12":
		return wgpu.InstanceBackend_DX12, nil
	case "gl":
		return wgpu.InstanceBackend_GL, nil
	default:
		return 0, fmt.Errorf("unknown rendering backend %q", name)
	}
}
