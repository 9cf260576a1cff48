// Package scaffold writes the files a freshly initialized project needs:
// the default extforge.toml plus a minimal crate stand-in for each
// built-in component, so build/watch have something to operate on
// immediately after init.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"extforge/internal/config"
)

// Options collects the init subcommand's flag-derived overrides.
type Options struct {
	Cfg         config.Config
	Force       bool // overwrite extforge.toml if it exists; existing crate stubs and top-level files are kept
	WithOptions bool
}

// ErrAlreadyExists is returned when the target config file exists and
// Force was not set.
var ErrAlreadyExists = fmt.Errorf("%s already exists", config.DefaultFileName)

// Write lays out cfg's config file and placeholder component crates under
// cwd. It is idempotent when Force is set.
func Write(cwd string, opts Options) error {
	cfgPath := filepath.Join(cwd, config.DefaultFileName)
	if _, err := os.Stat(cfgPath); err == nil && !opts.Force {
		return ErrAlreadyExists
	}

	if err := writeConfigFile(cfgPath, opts.Cfg); err != nil {
		return fmt.Errorf("write %s: %w", cfgPath, err)
	}

	extDir := opts.Cfg.ExtensionDir(cwd)
	if err := os.MkdirAll(extDir, 0o755); err != nil {
		return fmt.Errorf("create extension directory: %w", err)
	}

	if err := writeStaticAssets(extDir, opts.Cfg); err != nil {
		return err
	}

	crates := map[string]string{
		opts.Cfg.PopupName: "popup",
		"background":       "background",
		"content":          "content",
	}
	if opts.WithOptions {
		crates[opts.Cfg.OptionsName] = "options"
	}
	for crateName, kind := range crates {
		if crateName == "" {
			continue
		}
		if err := writeCrateStub(filepath.Join(extDir, crateName), crateName, kind); err != nil {
			return fmt.Errorf("scaffold %s crate: %w", kind, err)
		}
	}

	return os.MkdirAll(filepath.Join(extDir, opts.Cfg.AssetsDirectory), 0o755)
}

func writeConfigFile(path string, cfg config.Config) error {
	body := fmt.Sprintf(`extension-directory-name = %q
popup-name = %q
background-script-index-name = %q
content-script-index-name = %q
assets-directory = %q
enable-incremental-builds = %t
options-name = %q
`,
		cfg.ExtensionDirectoryName,
		cfg.PopupName,
		cfg.BackgroundScriptIndexName,
		cfg.ContentScriptIndexName,
		cfg.AssetsDirectory,
		cfg.EnableIncrementalBuilds,
		cfg.OptionsName,
	)
	return os.WriteFile(path, []byte(body), 0o644)
}

func writeStaticAssets(extDir string, cfg config.Config) error {
	files := map[string]string{
		"manifest.json":                     manifestStub,
		"index.html":                        htmlStub("Popup"),
		"index.js":                          jsEntryStub(cfg.PopupName),
		cfg.BackgroundScriptIndexName:       "// background script entry\n",
		cfg.ContentScriptIndexName:          "// content script entry\n",
	}
	if cfg.HasOptions() {
		files["options.html"] = htmlStub("Options")
		files["options.js"] = jsEntryStub(cfg.OptionsName)
	}
	for name, body := range files {
		path := filepath.Join(extDir, name)
		if _, err := os.Stat(path); err == nil {
			continue // don't clobber hand-edited top-level files on re-init
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func writeCrateStub(dir, crateName, kind string) error {
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return err
	}
	cargoToml := fmt.Sprintf(cargoTomlTemplate, crateName)
	if err := writeIfAbsent(filepath.Join(dir, "Cargo.toml"), cargoToml); err != nil {
		return err
	}
	return writeIfAbsent(filepath.Join(dir, "src", "lib.rs"), fmt.Sprintf(libRsTemplate, kind))
}

func writeIfAbsent(path, body string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(body), 0o644)
}

func htmlStub(title string) string {
	return fmt.Sprintf("<!doctype html>\n<html><head><title>%s</title></head><body></body></html>\n", title)
}

func jsEntryStub(crateName string) string {
	return fmt.Sprintf("import init from './%s_bg.js'\ninit()\n", crateName)
}

const manifestStub = `{
  "manifest_version": 3,
  "name": "extforge project",
  "version": "0.1.0"
}
`

const cargoTomlTemplate = `[package]
name = %q
version = "0.1.0"
edition = "2021"

[lib]
crate-type = ["cdylib"]

[dependencies]
wasm-bindgen = "0.2"
`

const libRsTemplate = `// %s component entry point.
use wasm_bindgen::prelude::*;

#[wasm_bindgen(start)]
pub fn start() {}
`
