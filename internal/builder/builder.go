// Package builder invokes the external WASM toolchain for a single
// component: streaming its output, reporting monotone progress, and
// retrying on transient file-lock contention.
package builder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"extforge/internal/changedetect"
	"extforge/internal/config"
	"extforge/internal/model"

	"go.uber.org/zap"
)

const maxAttempts = 3

// maxStderrLines bounds the truncated excerpt returned on failure.
const maxStderrLines = 100

// Result is what the scheduler receives for one component build.
type Result struct {
	Component model.ComponentKind
	Success   bool
	Skipped   bool // true when incremental builds decided a rebuild wasn't needed
	Err       error
	StderrTail string
}

// Builder drives the toolchain for one component at a time; it holds no
// per-component state itself, so a single Builder can be shared across
// concurrent calls for different components.
type Builder struct {
	Runner  Runner
	Log     *zap.Logger
	Cfg     config.Config
	Cwd     string
	Incremental bool
	Release bool
}

// New returns a Builder wired to the real external toolchain.
func New(cfg config.Config, cwd string, log *zap.Logger, incremental, release bool) *Builder {
	return &Builder{Runner: ExecRunner{}, Log: log, Cfg: cfg, Cwd: cwd, Incremental: incremental, Release: release}
}

// Build runs the component-builder contract for kind, reporting
// monotonically non-decreasing progress through onProgress.
func (b *Builder) Build(ctx context.Context, detector *changedetect.Detector, kind model.ComponentKind, onProgress func(float64)) Result {
	onProgress(0.0)

	sourceDir := b.Cfg.ComponentSourceDir(b.Cwd, kind)
	distDir := b.Cfg.DistDir(b.Cwd)
	artifacts := b.Cfg.ComponentArtifacts(kind)

	if b.Incremental {
		fresh, err := changedetect.NeedsRebuild(sourceDir, distDir, artifacts)
		if err == nil && !fresh {
			onProgress(1.0)
			return Result{Component: kind, Success: true, Skipped: true}
		}
	}

	args := b.toolchainArgs(sourceDir, distDir)
	env := b.env()

	var lastErr error
	var stderrTail string
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tracker := newProgressTracker()

		onStdout := func(line string) {
			value, emit := tracker.Observe(line)
			if emit {
				onProgress(value)
			}
		}
		onStderr := func(line string) {
			b.forward(kind, line)
		}

		stderr, err := b.Runner.Run(ctx, b.Cwd, env, "wasm-pack", args, onStdout, onStderr)
		if err == nil {
			onProgress(1.0)
			return Result{Component: kind, Success: true}
		}

		if err == ErrToolchainNotFound {
			return Result{Component: kind, Success: false, Err: fmt.Errorf("%s: setup error: %w", kind, err)}
		}

		lastErr = err
		stderrTail = truncate(stderr, maxStderrLines)

		if hasFileLockMarker(stderr) && attempt < maxAttempts-1 {
			backoff := time.Duration(500*(1<<uint(attempt))) * time.Millisecond
			if b.Log != nil {
				b.Log.Warn("toolchain lock contention, retrying", zap.String("component", kind.String()), zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff))
			}
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return Result{Component: kind, Success: false, Err: ctx.Err()}
			}
		}
		break
	}

	return Result{
		Component:  kind,
		Success:    false,
		Err:        fmt.Errorf("building %s failed: %w", kind, lastErr),
		StderrTail: stderrTail,
	}
}

func (b *Builder) toolchainArgs(sourceDir, distDir string) []string {
	args := []string{"build", "--no-pack", "--no-typescript", "--target", "web", "--out-dir", distDir}
	if b.Release {
		args = append(args, "--release")
	}
	args = append(args, sourceDir)
	return args
}

func (b *Builder) env() []string {
	// Pass through the essentials a toolchain subprocess needs rather than
	// the full ambient environment.
	return passthroughEnv()
}

func (b *Builder) forward(kind model.ComponentKind, line string) {
	if b.Log == nil {
		return
	}
	fields := []zap.Field{zap.String("component", kind.String())}
	switch classifyStderr(line) {
	case markerError:
		b.Log.Error(strings.TrimSpace(line), fields...)
	case markerWarn:
		b.Log.Warn(strings.TrimSpace(line), fields...)
	case markerInfo:
		b.Log.Info(strings.TrimSpace(line), fields...)
	default:
		b.Log.Debug(strings.TrimSpace(line), fields...)
	}
}

func truncate(s string, maxLines int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
