// Package config loads and validates the extforge project configuration.
// The file format is TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the typed decode target for extforge.toml.
type Config struct {
	ExtensionDirectoryName    string `toml:"extension-directory-name"`
	PopupName                 string `toml:"popup-name"`
	BackgroundScriptIndexName string `toml:"background-script-index-name"`
	ContentScriptIndexName    string `toml:"content-script-index-name"`
	AssetsDirectory           string `toml:"assets-directory"`
	EnableIncrementalBuilds   bool   `toml:"enable-incremental-builds"`

	// OptionsName names the options crate directory. Empty means the
	// project has no options page/component.
	OptionsName string `toml:"options-name"`
}

// DefaultFileName is the configuration file `init` writes and `build`/`watch`
// read by default.
const DefaultFileName = "extforge.toml"

// Default returns a Config populated with the documented defaults, applied
// for every key the file omits.
func Default() Config {
	return Config{
		ExtensionDirectoryName:    "ext",
		PopupName:                "popup",
		BackgroundScriptIndexName: "background.js",
		ContentScriptIndexName:    "content.js",
		AssetsDirectory:           "assets",
		EnableIncrementalBuilds:   true,
	}
}

// Load reads and decodes path, filling any key the file omits with the
// documented default.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate turns missing-input setup errors into a single descriptive
// error the CLI can report with a non-zero exit code.
func (c Config) Validate(cwd string) error {
	if c.ExtensionDirectoryName == "" {
		return fmt.Errorf("extension-directory-name must not be empty")
	}
	if c.PopupName == "" {
		return fmt.Errorf("popup-name must not be empty")
	}
	extDir := filepath.Join(cwd, c.ExtensionDirectoryName)
	info, err := os.Stat(extDir)
	if err != nil {
		return fmt.Errorf("extension directory %s: %w", extDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("extension directory %s is not a directory", extDir)
	}
	return nil
}

// ExtensionDir resolves the extension root as an absolute path under cwd.
func (c Config) ExtensionDir(cwd string) string {
	return filepath.Join(cwd, c.ExtensionDirectoryName)
}

// DistDir resolves the shared build output directory.
func (c Config) DistDir(cwd string) string {
	return filepath.Join(c.ExtensionDir(cwd), "dist")
}

// HasOptions reports whether the project configured an options component.
func (c Config) HasOptions() bool {
	return c.OptionsName != ""
}
