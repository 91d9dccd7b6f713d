package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/Pradene/scop/internal/camera"
	"github.com/Pradene/scop/internal/config"
	"github.com/Pradene/scop/internal/mesh"
	"github.com/Pradene/scop/internal/render"
	"github.com/Pradene/scop/internal/selection"
	"github.com/Pradene/scop/internal/window"
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"golang.org/x/sync/errgroup"
)

const statsInterval = time.Second

func main() {
	runtime.LockOSThread()

	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		return
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "scop: %v\n", err)
		os.Exit(2)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	render.SetLogger(logger)

	if err = run(cfg, logger); err != nil {
		logger.Error("scop failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	var (
		m       *mesh.Mesh
		shaders render.ShaderSet
		g       errgroup.Group
	)
	g.Go(func() (err error) {
		m, err = mesh.Load(cfg.MeshPath)
		return err
	})
	g.Go(func() (err error) {
		shaders, err = render.LoadShaders(cfg.ShaderDir)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("mesh loaded",
		slog.String("path", cfg.MeshPath),
		slog.Int("triangles", len(m.Indices)/3),
		slog.Float64("radius", float64(m.Radius)))

	win, err := window.Open(window.Options{Title: cfg.Title, Width: cfg.Width, Height: cfg.Height})
	if err != nil {
		return err
	}
	defer win.Close()

	cam := camera.New(float32(cfg.FovY))
	cam.Fit(m.Radius)

	req := selection.DefaultRequirements()
	req.GeometryShader = cfg.RequireGeometryShader

	ctx, err := render.Initialize(win, m, render.Options{
		ApplicationName:   cfg.Title,
		Validation:        cfg.Validation,
		Requirements:      req,
		Shaders:           shaders,
		ShaderDir:         cfg.ShaderDir,
		PipelineCachePath: cfg.PipelineCache,
		Camera:            cam,
	})
	if err != nil {
		return err
	}
	defer ctx.Close()

	return loop(win, ctx, cfg.Title, logger)
}

func loop(win *window.Window, ctx *render.Context, title string, logger *slog.Logger) error {
	start := hrtime.Now()
	lastReport := start
	lastDrawn := 0
	rendering := true

	var events []window.Event
	for {
		events = win.Poll(events[:0])
		for _, e := range events {
			switch e.Kind {
			case window.EventClose:
				logger.Info("window closed", slog.Int("frames", ctx.Stats().Frames.Drawn))
				return nil
			case window.EventMinimize:
				rendering = false
			case window.EventRestore:
				rendering = true
				if err := ctx.Resize(); err != nil {
					return err
				}
			case window.EventResize:
				rendering = e.Width > 0 && e.Height > 0
				if rendering {
					if err := ctx.Resize(); err != nil {
						return err
					}
				}
			}
		}

		if !rendering {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		now := hrtime.Now()
		if err := ctx.DrawFrame(now - start); err != nil {
			return err
		}

		if since := now - lastReport; since >= statsInterval {
			stats := ctx.Stats()
			fps := float64(stats.Frames.Drawn-lastDrawn) / since.Seconds()
			logger.Debug("frame stats",
				slog.Float64("fps", fps),
				slog.Int("drawn", stats.Frames.Drawn),
				slog.Int("skipped", stats.Frames.Skipped),
				slog.Int("recreations", stats.Frames.Recreations))
			win.SetTitle(fmt.Sprintf("%s - %.0f fps", title, fps))

			lastReport, lastDrawn = now, stats.Frames.Drawn
		}
	}
}
