package scaffold_test

import (
	"os"
	"path/filepath"
	"testing"

	"extforge/internal/config"
	"extforge/internal/scaffold"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_CreatesConfigAndCrateStubs(t *testing.T) {
	cwd := t.TempDir()
	cfg := config.Default()

	require.NoError(t, scaffold.Write(cwd, scaffold.Options{Cfg: cfg}))

	cfgPath := filepath.Join(cwd, config.DefaultFileName)
	assert.FileExists(t, cfgPath)

	extDir := cfg.ExtensionDir(cwd)
	assert.FileExists(t, filepath.Join(extDir, "manifest.json"))
	assert.FileExists(t, filepath.Join(extDir, "index.html"))
	assert.FileExists(t, filepath.Join(extDir, cfg.BackgroundScriptIndexName))
	assert.FileExists(t, filepath.Join(extDir, cfg.ContentScriptIndexName))

	for _, crate := range []string{cfg.PopupName, "background", "content"} {
		assert.FileExists(t, filepath.Join(extDir, crate, "Cargo.toml"))
		assert.FileExists(t, filepath.Join(extDir, crate, "src", "lib.rs"))
	}

	loaded, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.PopupName, loaded.PopupName)
}

func TestWrite_WithoutForceRefusesExistingConfig(t *testing.T) {
	cwd := t.TempDir()
	cfg := config.Default()
	require.NoError(t, scaffold.Write(cwd, scaffold.Options{Cfg: cfg}))

	err := scaffold.Write(cwd, scaffold.Options{Cfg: cfg})
	assert.ErrorIs(t, err, scaffold.ErrAlreadyExists)
}

func TestWrite_ForceOverwritesConfigButKeepsEditedAssets(t *testing.T) {
	cwd := t.TempDir()
	cfg := config.Default()
	require.NoError(t, scaffold.Write(cwd, scaffold.Options{Cfg: cfg}))

	manifestPath := filepath.Join(cfg.ExtensionDir(cwd), "manifest.json")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`{"custom":true}`), 0o644))

	require.NoError(t, scaffold.Write(cwd, scaffold.Options{Cfg: cfg, Force: true}))

	body, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "custom")
}

func TestWrite_WithOptionsScaffoldsOptionsCrate(t *testing.T) {
	cwd := t.TempDir()
	cfg := config.Default()
	cfg.OptionsName = "options"

	require.NoError(t, scaffold.Write(cwd, scaffold.Options{Cfg: cfg, WithOptions: true}))

	extDir := cfg.ExtensionDir(cwd)
	assert.FileExists(t, filepath.Join(extDir, "options", "Cargo.toml"))
	assert.FileExists(t, filepath.Join(extDir, "options.html"))
	assert.FileExists(t, filepath.Join(extDir, "options.js"))
}
