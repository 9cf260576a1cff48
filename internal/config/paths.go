package config

import (
	"path/filepath"

	"extforge/internal/model"
)

// CrateName resolves a component kind's source directory name, taken from
// configuration for Popup and by convention for the rest.
func (c Config) CrateName(kind model.ComponentKind) string {
	switch kind {
	case model.Popup:
		return c.PopupName
	case model.Background:
		return "background"
	case model.Content:
		return "content"
	case model.Options:
		return c.OptionsName
	default:
		return ""
	}
}

// ComponentSourceDir resolves the absolute source directory for a component.
func (c Config) ComponentSourceDir(cwd string, kind model.ComponentKind) string {
	crate := c.CrateName(kind)
	if crate == "" {
		return ""
	}
	return filepath.Join(c.ExtensionDir(cwd), crate)
}

// ComponentArtifacts returns the two well-known output artifact filenames
// the toolchain produces for a component.
func (c Config) ComponentArtifacts(kind model.ComponentKind) []string {
	crate := c.CrateName(kind)
	if crate == "" {
		return nil
	}
	return []string{crate + "_bg.js", crate + "_bg.wasm"}
}

// ActiveComponents returns the component kinds this project actually builds,
// skipping Options when no options crate is configured.
func (c Config) ActiveComponents() []model.ComponentKind {
	out := make([]model.ComponentKind, 0, len(model.AllComponents))
	for _, k := range model.AllComponents {
		if k == model.Options && !c.HasOptions() {
			continue
		}
		out = append(out, k)
	}
	return out
}

// ActiveAssets returns the asset kinds this project actually mirrors,
// skipping OptionsHtml/OptionsJs when no options component is configured.
func (c Config) ActiveAssets() []model.AssetKind {
	out := make([]model.AssetKind, 0, len(model.AllAssets))
	for _, a := range model.AllAssets {
		if (a == model.OptionsHtml || a == model.OptionsJs) && !c.HasOptions() {
			continue
		}
		out = append(out, a)
	}
	return out
}

// AssetSourcePath resolves the absolute source path (inside the extension
// root) for an asset kind.
func (c Config) AssetSourcePath(cwd string, a model.AssetKind) string {
	root := c.ExtensionDir(cwd)
	switch a {
	case model.Manifest:
		return filepath.Join(root, "manifest.json")
	case model.IndexHtml:
		return filepath.Join(root, "index.html")
	case model.IndexJs:
		return filepath.Join(root, "index.js")
	case model.OptionsHtml:
		return filepath.Join(root, "options.html")
	case model.OptionsJs:
		return filepath.Join(root, "options.js")
	case model.BackgroundScript:
		return filepath.Join(root, c.BackgroundScriptIndexName)
	case model.ContentScript:
		return filepath.Join(root, c.ContentScriptIndexName)
	case model.Assets:
		return filepath.Join(root, c.AssetsDirectory)
	default:
		return ""
	}
}

// AssetDestPath resolves the absolute destination path (inside dist/) for
// an asset kind.
func (c Config) AssetDestPath(cwd string, a model.AssetKind) string {
	dist := c.DistDir(cwd)
	switch a {
	case model.Manifest:
		return filepath.Join(dist, "manifest.json")
	case model.IndexHtml:
		return filepath.Join(dist, "index.html")
	case model.IndexJs:
		return filepath.Join(dist, "index.js")
	case model.OptionsHtml:
		return filepath.Join(dist, "options.html")
	case model.OptionsJs:
		return filepath.Join(dist, "options.js")
	case model.BackgroundScript:
		return filepath.Join(dist, c.BackgroundScriptIndexName)
	case model.ContentScript:
		return filepath.Join(dist, c.ContentScriptIndexName)
	case model.Assets:
		return filepath.Join(dist, "assets")
	default:
		return ""
	}
}
