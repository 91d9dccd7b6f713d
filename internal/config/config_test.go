package config

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv(LogLevelEnv, "")

	cfg, err := Parse([]string{"42.obj"}, io.Discard)
	require.NoError(t, err)

	want := Default()
	want.MeshPath = "42.obj"
	assert.Equal(t, want, cfg)
	assert.True(t, cfg.RequireGeometryShader)
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse([]string{
		"-mesh", "teapot.obj",
		"-shaders", "build/shaders",
		"-width", "1280", "-height", "720",
		"-validation",
		"-pipeline-cache", "scop.cache",
		"-require-geometry-shader=false",
		"-log-level", "debug",
		"-fov", "60",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "teapot.obj", cfg.MeshPath)
	assert.Equal(t, "build/shaders", cfg.ShaderDir)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.True(t, cfg.Validation)
	assert.Equal(t, "scop.cache", cfg.PipelineCache)
	assert.False(t, cfg.RequireGeometryShader)
	assert.Equal(t, 60.0, cfg.FovY)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseEnvLogLevel(t *testing.T) {
	t.Setenv(LogLevelEnv, "warn")

	cfg, err := Parse([]string{"a.obj"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg, err = Parse([]string{"-log-level", "error", "a.obj"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestParseHelp(t *testing.T) {
	_, err := Parse([]string{"-h"}, io.Discard)
	assert.True(t, errors.Is(err, ErrHelp))
}

func TestParseRejects(t *testing.T) {
	t.Setenv(LogLevelEnv, "")

	tests := []struct {
		name string
		args []string
	}{
		{"no mesh", nil},
		{"two meshes", []string{"-mesh", "a.obj", "b.obj"}},
		{"extra args", []string{"a.obj", "b.obj"}},
		{"zero width", []string{"-width", "0", "a.obj"}},
		{"negative height", []string{"-height", "-1", "a.obj"}},
		{"fov", []string{"-fov", "180", "a.obj"}},
		{"log level", []string{"-log-level", "loud", "a.obj"}},
		{"unknown flag", []string{"-frobnicate", "a.obj"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}
