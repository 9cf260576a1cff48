package scheduler_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"extforge/internal/builder"
	"extforge/internal/bus"
	"extforge/internal/config"
	"extforge/internal/model"
	"extforge/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every bus message sent to it, safe for concurrent
// senders (the scheduler fans builds out across goroutines).
type recordingSink struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (s *recordingSink) Send(msg interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSink) snapshot() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interface{}, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// alwaysSucceedsRunner reports a single progress line, writes the two
// artifacts the real toolchain emits into --out-dir, and exits 0.
type alwaysSucceedsRunner struct{ calls int }

func (r *alwaysSucceedsRunner) Run(ctx context.Context, dir string, env []string, name string, args []string, onStdout, onStderr func(string)) (string, error) {
	r.calls++
	onStdout("compiling")
	crate := filepath.Base(args[len(args)-1])
	for i, a := range args {
		if a == "--out-dir" && i+1 < len(args) {
			outDir := args[i+1]
			_ = os.MkdirAll(outDir, 0o755)
			for _, artifact := range []string{crate + "_bg.js", crate + "_bg.wasm"} {
				_ = os.WriteFile(filepath.Join(outDir, artifact), []byte("artifact"), 0o644)
			}
		}
	}
	return "", nil
}

func setupProject(t *testing.T) (string, config.Config) {
	t.Helper()
	cwd := t.TempDir()
	cfg := config.Default()
	ext := cfg.ExtensionDir(cwd)
	for _, dir := range []string{"popup", "background", "content"} {
		require.NoError(t, os.MkdirAll(filepath.Join(ext, dir), 0o755))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(ext, cfg.AssetsDirectory), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ext, "manifest.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ext, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ext, "index.js"), []byte("//js"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ext, cfg.BackgroundScriptIndexName), []byte("//bg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ext, cfg.ContentScriptIndexName), []byte("//content"), 0o644))
	return cwd, cfg
}

func TestInitialBuild_BuildsEveryActiveComponentAndCopiesAssets(t *testing.T) {
	cwd, cfg := setupProject(t)
	sink := &recordingSink{}
	runner := &alwaysSucceedsRunner{}
	b := &builder.Builder{Runner: runner, Cfg: cfg, Cwd: cwd, Incremental: false}
	s := scheduler.New(cfg, cwd, nil, sink, b)

	report := s.InitialBuild(context.Background())

	require.True(t, report.Succeeded)
	assert.Equal(t, len(cfg.ActiveComponents()), report.Total)
	assert.Equal(t, len(cfg.ActiveComponents()), runner.calls)

	// Every active asset should have been copied into dist/.
	for _, asset := range cfg.ActiveAssets() {
		if asset == model.Assets {
			continue
		}
		dst := cfg.AssetDestPath(cwd, asset)
		_, err := os.Stat(dst)
		assert.NoError(t, err, "expected %s to exist", dst)
	}

	// Every component should have reached a terminal UpdateTask(Success).
	successCount := 0
	for _, msg := range sink.snapshot() {
		if u, ok := msg.(bus.UpdateTask); ok && u.Status == model.Success {
			successCount++
		}
	}
	assert.Equal(t, len(cfg.ActiveComponents()), successCount)

	// A successful InitialBuild must leave the pending-copy set empty, or
	// the next watch-drain tick would spuriously re-copy every asset.
	assert.Equal(t, 0, s.Copies.Len())
}

func TestInitialBuild_IncrementalSecondRunSkipsToolchain(t *testing.T) {
	cwd, cfg := setupProject(t)
	runner := &alwaysSucceedsRunner{}
	b := &builder.Builder{Runner: runner, Cfg: cfg, Cwd: cwd, Incremental: true}
	s := scheduler.New(cfg, cwd, nil, &recordingSink{}, b)

	first := s.InitialBuild(context.Background())
	require.True(t, first.Succeeded)
	firstCalls := runner.calls

	s2 := scheduler.New(cfg, cwd, nil, &recordingSink{}, b)
	second := s2.InitialBuild(context.Background())
	require.True(t, second.Succeeded)

	assert.Equal(t, firstCalls, runner.calls, "second run should not invoke the toolchain again")
}

type assertErrT string

func (e assertErrT) Error() string { return string(e) }

var assertErr = assertErrT("compile error")

func TestInitialBuild_OneFailureDoesNotBlockOthers(t *testing.T) {
	cwd, cfg := setupProject(t)

	// Content always fails; everything else succeeds.
	mixed := &mixedRunner{failFor: "content"}
	b := &builder.Builder{Runner: mixed, Cfg: cfg, Cwd: cwd, Incremental: false}
	s := scheduler.New(cfg, cwd, nil, &recordingSink{}, b)

	report := s.InitialBuild(context.Background())
	require.False(t, report.Succeeded)
	assert.Contains(t, report.Failures, model.Content.TaskLabel())
	assert.NotContains(t, report.Failures, model.Popup.TaskLabel())
}

type mixedRunner struct {
	failFor string
	mu      sync.Mutex
	calls   int
}

func (m *mixedRunner) Run(ctx context.Context, dir string, env []string, name string, args []string, onStdout, onStderr func(string)) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if containsDir(args, m.failFor) {
		onStderr("error[E0433]: cannot find crate")
		return "error[E0433]: cannot find crate", assertErr
	}
	onStdout("compiling")
	return "", nil
}

func containsDir(args []string, name string) bool {
	for _, a := range args {
		if filepath.Base(a) == name {
			return true
		}
	}
	return false
}
