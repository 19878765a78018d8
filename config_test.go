package oplc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "oplc.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "permissive", cfg.Profile)
	assert.Equal(t, 5, cfg.Script.TimeoutSeconds)
	assert.Equal(t, 100, cfg.Script.RecursionLimit)
	assert.Equal(t, "text", cfg.Report.Format)
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oplc.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("profile: strict\nreport:\n  format: yaml\n"), 0o644))

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "strict", cfg.Profile)
	assert.Equal(t, "yaml", cfg.Report.Format)
	assert.Equal(t, 5, cfg.Script.TimeoutSeconds)
}

func TestLoadConfigRejectsUnknownProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oplc.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("profile: lax\n"), 0o644))

	_, err := LoadConfig(path)
	assert.IsError(t, err, ErrConfigValidation)
}

func TestProfileCapabilities(t *testing.T) {
	p, err := ProfileFromName("")
	assert.NoError(t, err)
	assert.Equal(t, Permissive, p)
	assert.True(t, p.AllowsLegacyVar())

	p, err = ProfileFromName("strict")
	assert.NoError(t, err)
	assert.False(t, p.AllowsLegacyVar())
	assert.False(t, p.AllowsCoefficientJuxtaposition())

	_, err = ProfileFromName("lax")
	assert.IsError(t, err, ErrUnknownProfile)
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("x"))
	assert.True(t, ValidIdentifier("_set_2"))
	assert.False(t, ValidIdentifier("2x"))
	assert.False(t, ValidIdentifier("a-b"))
	assert.False(t, ValidIdentifier(""))
}
