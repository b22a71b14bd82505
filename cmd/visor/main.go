// Command visor opens a live camera viewfinder window with a vector
// telemetry HUD composited onto every frame.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/e7canasta/visor/overlay"
	"github.com/e7canasta/visor/pipeline"
	"github.com/e7canasta/visor/platform"
	"github.com/e7canasta/visor/viewer"
)

const defaultFontPath = "assets/fonts/DejaVuSansMono.ttf"

func main() {
	device := flag.String("device", "", "Capture device selector (empty = host default)")
	resolution := flag.String("resolution", "720p", "Capture resolution: 480p, 720p or 1080p")
	fps := flag.Float64("fps", 30, "Target frames per second")
	fontPath := flag.String("font", defaultFontPath, "HUD font file path")
	fontSize := flag.Float64("font-size", 14, "HUD default font size in logical pixels")
	warmup := flag.Duration("warmup", 0, "Optional warmup duration to verify capture stability (e.g. 5s)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(*device, *resolution, *fps, *fontPath, *fontSize, *warmup); err != nil {
		slog.Error("visor failed", "error", err)
		os.Exit(1)
	}
}

func run(device, resolution string, fps float64, fontPath string, fontSize float64, warmup time.Duration) error {
	desc, err := platform.Resolve()
	if err != nil {
		return err
	}

	res, err := parseResolution(resolution)
	if err != nil {
		return err
	}
	width, height := res.Dimensions()

	if !desc.HasCamera {
		slog.Warn("no capture device detected, viewfinder will wait for one")
	}

	pipe := pipeline.New(desc)
	if err := pipe.Initialize(pipeline.Config{
		Width:     width,
		Height:    height,
		TargetFPS: fps,
		Device:    device,
	}); err != nil {
		return err
	}

	// A failed camera degrades to "no frame yet": the window opens and
	// keeps presenting, it does not exit.
	if err := pipe.Start(); err != nil {
		if errors.Is(err, pipeline.ErrSourceUnavailable) {
			slog.Warn("capture source unavailable, starting without frames", "error", err)
		} else {
			return err
		}
	} else if warmup > 0 {
		if stats, werr := pipe.Warmup(context.Background(), warmup); werr != nil {
			slog.Warn("warmup reported instability, continuing anyway", "error", werr)
		} else {
			slog.Info("warmup passed",
				"fps_mean", fmt.Sprintf("%.2f", stats.FPSMean),
				"fps_stddev", fmt.Sprintf("%.2f", stats.FPSStdDev),
			)
		}
	}
	defer func() {
		if pipe.State() != pipeline.StateUninitialized {
			if err := pipe.Stop(); err != nil {
				slog.Error("pipeline stop failed", "error", err)
			}
		}
	}()

	comp := overlay.New()
	hudDisabled := false
	if err := comp.Initialize(overlay.Config{FontPath: fontPath, FontSize: fontSize}); err != nil {
		// The render loop must keep running even when overlay drawing
		// cannot initialize; it simply skips the HUD.
		slog.Error("overlay unavailable, continuing without HUD", "error", err)
		hudDisabled = true
	}
	defer comp.Shutdown()

	v := viewer.New(pipe, comp, desc, width, height, hudDisabled)
	return v.Run()
}

func parseResolution(s string) (platform.Resolution, error) {
	switch s {
	case "480p":
		return platform.Res480p, nil
	case "720p":
		return platform.Res720p, nil
	case "1080p":
		return platform.Res1080p, nil
	default:
		return 0, fmt.Errorf("unknown resolution %q (use 480p, 720p or 1080p)", s)
	}
}
