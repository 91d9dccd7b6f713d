// Package config holds the command-line configuration of scop.
package config

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// LogLevelEnv overrides the default log level when set.
const LogLevelEnv = "SCOP_LOG_LEVEL"

// ErrHelp is returned by Parse when -h or -help was given.
var ErrHelp = flag.ErrHelp

type Config struct {
	MeshPath   string
	ShaderDir  string
	Width      int
	Height     int
	Title      string
	Validation bool

	// PipelineCache is where the pipeline cache is persisted between runs.
	// Empty disables it.
	PipelineCache string

	RequireGeometryShader bool
	LogLevel              string
	FovY                  float64
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	cfg := Config{
		ShaderDir:             "shaders",
		Width:                 800,
		Height:                600,
		Title:                 "scop",
		RequireGeometryShader: true,
		LogLevel:              "info",
		FovY:                  45,
	}
	if level := os.Getenv(LogLevelEnv); level != "" {
		cfg.LogLevel = level
	}
	return cfg
}

// Parse reads flags from args (without the program name) on top of
// Default. A single positional argument is taken as the mesh path.
func Parse(args []string, output io.Writer) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("scop", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.MeshPath, "mesh", cfg.MeshPath, "Wavefront OBJ file to display")
	fs.StringVar(&cfg.ShaderDir, "shaders", cfg.ShaderDir, "directory holding vert.spv and frag.spv")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "initial window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "initial window height")
	fs.StringVar(&cfg.Title, "title", cfg.Title, "window title")
	fs.BoolVar(&cfg.Validation, "validation", cfg.Validation, "enable the Khronos validation layer")
	fs.StringVar(&cfg.PipelineCache, "pipeline-cache", cfg.PipelineCache, "file to persist the pipeline cache in")
	fs.BoolVar(&cfg.RequireGeometryShader, "require-geometry-shader", cfg.RequireGeometryShader, "reject adapters without geometry shader support")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.Float64Var(&cfg.FovY, "fov", cfg.FovY, "vertical field of view in degrees")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		if cfg.MeshPath != "" {
			return cfg, errors.New("mesh given both as -mesh and as an argument")
		}
		cfg.MeshPath = fs.Arg(0)
	default:
		return cfg, errors.Newf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	return cfg, cfg.Validate()
}

// Validate checks that cfg can start a session.
func (c Config) Validate() error {
	switch {
	case c.MeshPath == "":
		return errors.New("no mesh given")
	case c.Width <= 0 || c.Height <= 0:
		return errors.Newf("window size %dx%d must be positive", c.Width, c.Height)
	case c.FovY <= 0 || c.FovY >= 180:
		return errors.Newf("fov %g must be between 0 and 180 degrees", c.FovY)
	}

	_, err := c.Level()
	return err
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	return level, nil
}
