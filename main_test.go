package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/relbump/cmd"
	logadapter "github.com/MyCarrier-DevOps/relbump/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/relbump/internal/adapters/output"
	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/infrastructure/config"
)

func TestToAppConfig(t *testing.T) {
	cfg := &config.Config{
		Ecosystem:  "cargo",
		TagPrefix:  "release-",
		Commits:    config.CommitsConfig{Strict: true},
		Release:    config.ReleaseConfig{Strategy: "maximum", Commit: true, Message: "chore: ship"},
		LogLevel:   "debug",
		LogAppName: "relbump",
	}

	got := toAppConfig(cfg)

	assert.Equal(t, &cmd.AppConfig{
		Ecosystem:  "cargo",
		TagPrefix:  "release-",
		Strict:     true,
		Strategy:   "maximum",
		Commit:     true,
		Message:    "chore: ship",
		LogLevel:   "debug",
		LogAppName: "relbump",
	}, got)
}

func TestNewOutputWriter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{name: "default is table", format: ""},
		{name: "table", format: output.FormatTable},
		{name: "json", format: output.FormatJSON},
		{name: "yaml", format: output.FormatYAML},
		{name: "unsupported", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer, err := newOutputWriter(&bytes.Buffer{}, tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, output.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, writer)
		})
	}
}

func TestNewWorkspace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"),
		[]byte(`{"name": "web", "version": "1.0.0"}`), 0o644))

	t.Run("auto detects npm", func(t *testing.T) {
		ws, err := newWorkspace(dir, &cmd.AppConfig{Ecosystem: "auto"}, logadapter.Nop{})
		require.NoError(t, err)
		assert.Equal(t, "npm", ws.Format().Name())

		packages, err := ws.Packages(context.Background())
		require.NoError(t, err)
		require.Len(t, packages, 1)
		assert.Equal(t, "web", packages[0].Name)
	})

	t.Run("explicit ecosystem", func(t *testing.T) {
		ws, err := newWorkspace(dir, &cmd.AppConfig{Ecosystem: "cargo"}, logadapter.Nop{})
		require.NoError(t, err)
		assert.Equal(t, "cargo", ws.Format().Name())
	})

	t.Run("nothing to detect", func(t *testing.T) {
		_, err := newWorkspace(t.TempDir(), &cmd.AppConfig{Ecosystem: "auto"}, logadapter.Nop{})
		assert.ErrorIs(t, err, domain.ErrManifestNotFound)
	})

	t.Run("unknown ecosystem", func(t *testing.T) {
		_, err := newWorkspace(dir, &cmd.AppConfig{Ecosystem: "maven"}, logadapter.Nop{})
		assert.ErrorIs(t, err, domain.ErrUnsupportedEcosystem)
	})
}

func TestComponent(t *testing.T) {
	zap := logadapter.NewZapAdapter(logadapter.Nop{})
	assert.IsType(t, &logadapter.ZapAdapter{}, component(zap, "git"))
	assert.NotSame(t, zap, component(zap, "git"))

	nop := logadapter.Nop{}
	assert.Equal(t, nop, component(nop, "git"))
}
