package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
[log]
level = "debug"

[decompile]
mode = "best-effort"
resolvers = ["straight-line", "sequence"]
trace = true

[render]
theme = "mono"
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, c.Level())
	assert.Equal(t, "best-effort", c.Decompile.Mode)
	assert.Equal(t, []string{"straight-line", "sequence"}, c.Decompile.Resolvers)
	assert.True(t, c.Decompile.Trace)
	assert.Equal(t, "mono", c.Render.Theme)
	assert.Equal(t, "out", c.Output.Dir)
	assert.True(t, filepath.IsAbs(c.Path))
}

func TestLoadOrDefaultMissing(t *testing.T) {
	c, err := LoadOrDefault(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, zerolog.InfoLevel, c.Level())
	assert.Equal(t, "strict", c.Decompile.Mode)
	assert.Empty(t, c.Path)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[log\nlevel = 1"},
		{"unknown key", "[log]\ncolour = true\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"bad mode", "[decompile]\nmode = \"lenient\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadOrDefault(writeFile(t, tc.body))
			assert.Error(t, err)
		})
	}
}
