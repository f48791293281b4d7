package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rtviewer/internal/app"
	"rtviewer/internal/config"
	"rtviewer/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "config file (.toml, .yaml, .json); defaults to "+config.DefaultPath+" when present")
	saveConfig := flag.String("save-config", "", "write the effective config to this file and exit")
	logLevel := flag.String("log-level", "", "override log.level")
	shaderDir := flag.String("shader-dir", "", "override rendering.shader_dir")
	flag.Parse()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			logging.Fatal("%v", err)
		}
	}
	cfg := config.Get()

	if *shaderDir != "" {
		cfg.Rendering.ShaderDir = *shaderDir
	}

	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logging.SetLevel(level)

	if *saveConfig != "" {
		if err := config.Save(*saveConfig); err != nil {
			logging.Fatal("%v", err)
		}
		logging.Info("config written to %s", *saveConfig)
		return
	}

	fmt.Println("rtviewer - WebGPU")
	fmt.Println("Controls:")
	fmt.Println("  Mouse drag    : Orbit")
	fmt.Println("  Mouse wheel   : Zoom")
	fmt.Println("  WASD / Arrows : Move")
	fmt.Println("  Q / E         : Down / Up")
	fmt.Println("  F             : Toggle screen-space effect")
	fmt.Println("  Escape        : Exit")
	fmt.Println()

	// capture sigterm and other system calls
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logging.Fatal("%v", err)
	}
	defer application.Cleanup()

	if err := application.Run(ctx); err != nil {
		logging.Error("%v", err)
	}
}
