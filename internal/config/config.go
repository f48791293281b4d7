package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"rtviewer/internal/logging"
)

// DefaultPath is read by Get when present in the working directory.
const DefaultPath = "rtviewer.toml"

var ErrUnknownFormat = errors.New("unknown config format")

// Config holds application configuration
type Config struct {
	Window    Window    `toml:"window" yaml:"window" json:"window"`
	Camera    Camera    `toml:"camera" yaml:"camera" json:"camera"`
	Rendering Rendering `toml:"rendering" yaml:"rendering" json:"rendering"`
	Scene     Scene     `toml:"scene" yaml:"scene" json:"scene"`
	Log       Log       `toml:"log" yaml:"log" json:"log"`
	Debug     Debug     `toml:"debug" yaml:"debug" json:"debug"`
}

type Window struct {
	Width  int    `toml:"width" yaml:"width" json:"width"`
	Height int    `toml:"height" yaml:"height" json:"height"`
	Title  string `toml:"title" yaml:"title" json:"title"`
}

// Camera is the initial perspective camera
type Camera struct {
	Position   [3]float32 `toml:"position" yaml:"position" json:"position"`
	Target     [3]float32 `toml:"target" yaml:"target" json:"target"`
	Up         [3]float32 `toml:"up" yaml:"up" json:"up"`
	FovDegrees float32    `toml:"fov_degrees" yaml:"fov_degrees" json:"fov_degrees"`
	Near       float32    `toml:"near" yaml:"near" json:"near"`
	Far        float32    `toml:"far" yaml:"far" json:"far"`
	// Speed is the keyboard movement per frame in world units
	Speed float32 `toml:"speed" yaml:"speed" json:"speed"`
}

// Rendering contains renderer parameters
type Rendering struct {
	// Backend is one of "primary", "vulkan", "metal", "dx12", "gl"
	Backend string `toml:"backend" yaml:"backend" json:"backend"`
	VSync   bool   `toml:"vsync" yaml:"vsync" json:"vsync"`

	// EffectEnabled draws the screen-space composite; when off the scene goes straight to the screen
	EffectEnabled bool `toml:"effect_enabled" yaml:"effect_enabled" json:"effect_enabled"`

	ClearColor [4]float64 `toml:"clear_color" yaml:"clear_color" json:"clear_color"`

	// ShaderDir overrides the embedded stage sources and is watched for changes
	ShaderDir string `toml:"shader_dir" yaml:"shader_dir" json:"shader_dir"`
}

type Scene struct {
	// Model is a local path or http(s) URL of an OBJ file; empty renders a cube
	Model    string `toml:"model" yaml:"model" json:"model"`
	CacheDir string `toml:"cache_dir" yaml:"cache_dir" json:"cache_dir"`
}

type Log struct {
	Level string `toml:"level" yaml:"level" json:"level"`
}

type Debug struct {
	// Addr enables the inspection server, e.g. "127.0.0.1:7070"
	Addr string `toml:"addr" yaml:"addr" json:"addr"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Window: Window{
			Width:  1280,
			Height: 720,
			Title:  "rtviewer",
		},
		Camera: Camera{
			Position:   [3]float32{4, 4, 5},
			Target:     [3]float32{0, 0, 0},
			Up:         [3]float32{0, 1, 0},
			FovDegrees: 45,
			Near:       0.1,
			Far:        1000,
			Speed:      0.05,
		},
		Rendering: Rendering{
			Backend:       "primary",
			VSync:         true,
			EffectEnabled: true,
			ClearColor:    [4]float64{0, 0, 0, 1},
		},
		Scene: Scene{
			CacheDir: ".asset_cache",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if instance != nil {
			return
		}
		instance = loadDefault(DefaultPath)
	})
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// loadDefault reads path when it exists. A file that fails to decode or
// validate is reported and replaced by the defaults as a whole.
func loadDefault(path string) *Config {
	cfg, err := readFile(path)
	switch {
	case err == nil:
		return cfg
	case errors.Is(err, os.ErrNotExist):
	default:
		logging.Warn("ignoring %s, using defaults: %v", path, err)
	}
	return DefaultConfig()
}

// readFile decodes path on top of the defaults and validates the result
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads configuration from a file on top of the defaults
func Load(path string) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}

	once.Do(func() {})

	mu.Lock()
	defer mu.Unlock()
	instance = cfg
	return nil
}

// Save saves configuration to a file, the format follows the extension
func Save(path string) error {
	mu.RLock()
	cfg := instance
	mu.RUnlock()

	if cfg == nil {
		cfg = DefaultConfig()
	}

	data, err := encode(path, cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate reports settings the renderer cannot work with
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera planes must satisfy 0 < near < far, got near=%v far=%v", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		return fmt.Errorf("camera fov must be in (0, 180), got %v", c.Camera.FovDegrees)
	}
	return nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

func encode(path string, cfg *Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Marshal(cfg)
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	case ".json":
		return json.MarshalIndent(cfg, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// EffectEnabled returns whether the screen-space composite is drawn
func EffectEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()

	if instance == nil {
		return true
	}
	return instance.Rendering.EffectEnabled
}

// SetEffectEnabled turns the screen-space composite on or off
func SetEffectEnabled(enabled bool) {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = DefaultConfig()
	}
	instance.Rendering.EffectEnabled = enabled
}

// ToggleEffect flips the composite flag and returns the new value
func ToggleEffect() bool {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = DefaultConfig()
	}
	instance.Rendering.EffectEnabled = !instance.Rendering.EffectEnabled
	return instance.Rendering.EffectEnabled
}
