package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 800.0, cfg.Layout.ViewportWidth)
	assert.Equal(t, 16.0, cfg.Layout.DefaultFontSize)
	assert.Equal(t, 1, cfg.Layout.Columns)
	assert.True(t, cfg.Layout.WidowsOrphans)
	assert.Equal(t, "simple", cfg.Text.ShaperKind)
	assert.Equal(t, 60.0, cfg.Frame.RatePerSecond)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styledom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
layout:
  viewport_width: 1024
  page_height: 500
text:
  shaper: harfbuzz
`), 0o600))
	t.Setenv("STYLEDOM_LOGGER_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1024.0, cfg.Layout.ViewportWidth)
	assert.Equal(t, 600.0, cfg.Layout.ViewportHeight)
	assert.Equal(t, 500.0, cfg.Layout.PageHeight)
	assert.Equal(t, "harfbuzz", cfg.Text.ShaperKind)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("text:\n  shaper: magic\n"), 0o600))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidShaper)

	t.Setenv("STYLEDOM_LAYOUT_VIEWPORT_WIDTH", "0")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalidViewport)
}
