package app

import (
	"strings"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

func TestMovement(t *testing.T) {
	tests := []struct {
		name    string
		keys    []glfw.Key
		right   float32
		up      float32
		forward float32
	}{
		{name: "idle"},
		{name: "forward", keys: []glfw.Key{glfw.KeyW}, forward: 0.05},
		{name: "arrow back", keys: []glfw.Key{glfw.KeyDown}, forward: -0.05},
		{name: "strafe", keys: []glfw.Key{glfw.KeyD}, right: 0.05},
		{name: "opposite keys cancel", keys: []glfw.Key{glfw.KeyA, glfw.KeyD}},
		{name: "rise", keys: []glfw.Key{glfw.KeyE}, up: 0.05},
		{name: "diagonal sink", keys: []glfw.Key{glfw.KeyW, glfw.KeyLeft, glfw.KeyQ}, right: -0.05, up: -0.05, forward: 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := make(map[glfw.Key]bool)
			for _, k := range tt.keys {
				keys[k] = true
			}
			right, up, forward := movement(keys, 0.05)
			if right != tt.right || up != tt.up || forward != tt.forward {
				t.Errorf("movement() = (%v, %v, %v), want (%v, %v, %v)", right, up, forward, tt.right, tt.up, tt.forward)
			}
		})
	}
}

func TestShouldRedraw(t *testing.T) {
	tests := []struct {
		changed, effect, want bool
	}{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, true},
	}
	for _, tt := range tests {
		if got := shouldRedraw(tt.changed, tt.effect); got != tt.want {
			t.Errorf("shouldRedraw(%v, %v) = %v, want %v", tt.changed, tt.effect, got, tt.want)
		}
	}
}

func TestWindowTitle(t *testing.T) {
	got := windowTitle("rtviewer", 59.6, 16.78, true)
	for _, want := range []string{"rtviewer", "FPS: 60", "16.78 ms", "effect: on"} {
		if !strings.Contains(got, want) {
			t.Errorf("windowTitle() = %q, missing %q", got, want)
		}
	}
	if got := windowTitle("x", 0, 0, false); !strings.Contains(got, "effect: off") {
		t.Errorf("windowTitle() = %q", got)
	}
}

func TestBackendFlags(t *testing.T) {
	tests := []struct {
		name    string
		want    wgpu.InstanceBackend
		wantErr bool
	}{
		{"", wgpu.InstanceBackend_Primary, false},
		{"primary", wgpu.InstanceBackend_Primary, false},
		{"Vulkan", wgpu.InstanceBackend_Vulkan, false},
		{"metal", wgpu.InstanceBackend_Metal, false},
		{"dx12", wgpu.InstanceBackend_DX12, false},
		{"gl", wgpu.InstanceBackend_GL, false},
		{"glide", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := backendFlags(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("backendFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("backendFlags() = %v, want %v", got, tt.want)
			}
		})
	}
}
