// Package watch converts raw filesystem events into pending rebuild and
// copy sets, filtering editor/VCS noise, and watches the full set of
// component source trees plus the assets directory.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"extforge/internal/config"
	"extforge/internal/model"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Router owns the fsnotify watcher and the mapping from raw events to
// pending rebuild/copy insertions.
type Router struct {
	watcher   *fsnotify.Watcher
	cfg       config.Config
	cwd       string
	log       *zap.Logger
	rebuilds  *model.PendingComponents
	copies    *model.PendingAssets
	onPending func(model.ComponentKind) // called for each enqueued component so its task can show as Pending immediately
}

// NewRouter creates a Router and starts watching every configured source
// path: each active component's source subtree (recursive) and the
// assets directory.
func NewRouter(cfg config.Config, cwd string, log *zap.Logger, rebuilds *model.PendingComponents, copies *model.PendingAssets, onPending func(model.ComponentKind)) (*Router, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	r := &Router{watcher: w, cfg: cfg, cwd: cwd, log: log, rebuilds: rebuilds, copies: copies, onPending: onPending}

	for _, kind := range cfg.ActiveComponents() {
		dir := cfg.ComponentSourceDir(cwd, kind)
		if err := r.addRecursive(dir); err != nil {
			r.warnUnwatchable(dir, err)
		}
	}

	assetsDir := cfg.AssetSourcePath(cwd, model.Assets)
	if err := r.addRecursive(assetsDir); err != nil {
		r.warnUnwatchable(assetsDir, err)
	}

	// Watch the extension root itself for top-level files (manifest.json,
	// index.html, the background/content loader scripts).
	if err := w.Add(cfg.ExtensionDir(cwd)); err != nil {
		r.warnUnwatchable(cfg.ExtensionDir(cwd), err)
	}

	return r, nil
}

func (r *Router) warnUnwatchable(path string, err error) {
	if r.log != nil {
		r.log.Warn("failed to watch path", zap.String("path", path), zap.Error(err))
	}
}

// addRecursive adds root and every subdirectory beneath it to the
// fsnotify watcher: fsnotify watches a single directory level, so
// recursive watching means adding each directory individually.
func (r *Router) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if entry.Name() == ".git" {
			return filepath.SkipDir
		}
		return r.watcher.Add(path)
	})
}

// Close stops the underlying fsnotify watcher.
func (r *Router) Close() error {
	return r.watcher.Close()
}

// Run consumes fsnotify events until ctx is cancelled. Each surviving event
// is mapped into the pending rebuild/copy sets.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			r.handle(event)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			if r.log != nil {
				r.log.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (r *Router) handle(event fsnotify.Event) {
	if !isRelevantOp(event.Op) {
		return
	}
	if isFiltered(event.Name) {
		return
	}

	if r.matchesAPISegment(event.Name) {
		// Broad invalidation, deliberately unscoped: the substring "api"
		// anywhere in the full path triggers a full rebuild of every
		// active component, not just the one that owns the changed file. A
		// path containing "api" as part of a longer name (capital.rs,
		// rapidfire.rs) trips this too, which is wider than most callers
		// would expect.
		for _, kind := range r.cfg.ActiveComponents() {
			r.rebuilds.Insert(kind)
			r.onPending(kind)
		}
		return
	}

	for _, asset := range r.cfg.ActiveAssets() {
		if r.matchesAsset(event.Name, asset) {
			r.copies.Insert(asset)
		}
	}

	for _, kind := range r.cfg.ActiveComponents() {
		crate := r.cfg.CrateName(kind)
		if crate == "" {
			continue
		}
		if containsSegment(event.Name, crate) {
			r.rebuilds.Insert(kind)
			r.onPending(kind)
		}
	}
}

func (r *Router) matchesAsset(path string, asset model.AssetKind) bool {
	src := r.cfg.AssetSourcePath(r.cwd, asset)
	if src == "" {
		return false
	}
	if asset.IsDir() {
		rel, err := filepath.Rel(src, path)
		return err == nil && !strings.HasPrefix(rel, "..")
	}
	return filepath.Clean(path) == filepath.Clean(src)
}

func (r *Router) matchesAPISegment(path string) bool {
	return containsSegment(path, "api")
}

// containsSegment reports whether segment occurs anywhere in path as a raw
// substring, not anchored to a path element boundary: a crate named "api"
// matches a changed file path like ".../rapidfire/src/lib.rs" too.
func containsSegment(path, segment string) bool {
	return strings.Contains(filepath.ToSlash(path), segment)
}

func isRelevantOp(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) != 0
}

var filteredSuffixes = []string{".tmp", ".swp", "~"}

func isFiltered(path string) bool {
	for _, suf := range filteredSuffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".git" {
			return true
		}
	}
	return false
}
