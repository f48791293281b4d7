package app

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"rtviewer/internal/config"
	"rtviewer/internal/logging"
)

func (app *App) setupCallbacks() {
	app.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if width == 0 || height == 0 {
			return
		}
		app.width = width
		app.height = height
		if app.camera.SetViewport(width, height) {
			app.changed = true
		}
		if err := app.renderer.Resize(uint32(width), uint32(height)); err != nil {
			logging.Error("resize to %dx%d failed: %v", width, height, err)
		}
	})

	app.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft {
			x, y := w.GetCursorPos()
			if action == glfw.Press {
				app.camera.StartDrag(x, y)
			} else {
				app.camera.EndDrag()
			}
		}
	})

	app.window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		if app.camera.IsDragging() {
			app.camera.Drag(x, y, DragSensitivity)
			app.changed = true
		}
	})

	app.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		if yoff != 0 {
			app.camera.Zoom(float32(yoff) * ScrollZoom)
			app.changed = true
		}
	})

	app.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		app.keysMu.Lock()
		if action == glfw.Press {
			app.keys[key] = true
		} else if action == glfw.Release {
			app.keys[key] = false
		}
		app.keysMu.Unlock()

		// Handle single-press actions (not held)
		if action == glfw.Press {
			switch key {
			case glfw.KeyEscape:
				w.SetShouldClose(true)
			case glfw.KeyF:
				// picked up by the loop, which marks the frame changed
				config.ToggleEffect()
			}
		}
	})
}

func (app *App) processInput() {
	app.keysMu.RLock()
	right, up, forward := movement(app.keys, app.cfg.Camera.Speed)
	app.keysMu.RUnlock()

	if right != 0 || up != 0 || forward != 0 {
		app.camera.Translate(right, up, forward)
		app.changed = true
	}
}

// movement maps held keys to a camera translation along (right, up, forward)
func movement(keys map[glfw.Key]bool, speed float32) (right, up, forward float32) {
	if keys[glfw.KeyW] || keys[glfw.KeyUp] {
		forward += speed
	}
	if keys[glfw.KeyS] || keys[glfw.KeyDown] {
		forward -= speed
	}
	if keys[glfw.KeyD] || keys[glfw.KeyRight] {
		right += speed
	}
	if keys[glfw.KeyA] || keys[glfw.KeyLeft] {
		right -= speed
	}
	if keys[glfw.KeyE] {
		up += speed
	}
	if keys[glfw.KeyQ] {
		up -= speed
	}
	return right, up, forward
}
