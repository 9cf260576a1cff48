// Package scheduler owns the pending-rebuild and pending-copy sets and
// drives the initial build, watch-triggered rebuilds, and final reports.
// It only ever sends messages into the bus; it never reaches back into
// the UI-model.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"extforge/internal/bus"
	"extforge/internal/builder"
	"extforge/internal/changedetect"
	"extforge/internal/config"
	"extforge/internal/copier"
	"extforge/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DrainInterval is the fixed debounce tick the scheduler drains pending
// sets on.
const DrainInterval = time.Second

// Sink is the subset of *tea.Program the scheduler needs: fire-and-forget
// delivery of a bus message.
type Sink interface {
	Send(msg interface{})
}

// Scheduler coordinates builds and copies for one project.
type Scheduler struct {
	Cfg       config.Config
	Cwd       string
	Log       *zap.Logger
	Sink      Sink
	Detector  *changedetect.Detector
	Rebuilds  *model.PendingComponents
	Copies    *model.PendingAssets
	Builder   *builder.Builder
}

// New wires a Scheduler for the given project.
func New(cfg config.Config, cwd string, log *zap.Logger, sink Sink, b *builder.Builder) *Scheduler {
	return &Scheduler{
		Cfg:      cfg,
		Cwd:      cwd,
		Log:      log,
		Sink:     sink,
		Detector: changedetect.New(),
		Rebuilds: model.NewPendingComponents(),
		Copies:   model.NewPendingAssets(),
		Builder:  b,
	}
}

// Report is the terminal summary of one build pass.
type Report struct {
	RunID     string
	Total     int
	Failures  []string
	Succeeded bool
}

// InitialBuild runs the startup/reset protocol: seed both pending sets
// with every active component and asset kind, build every component
// concurrently, then copy every asset concurrently. No separate
// build-state message is sent; the UI-model derives the terminal build
// state from the per-component UpdateTask messages.
func (s *Scheduler) InitialBuild(ctx context.Context) Report {
	components := s.Cfg.ActiveComponents()
	assets := s.Cfg.ActiveAssets()
	for _, kind := range components {
		s.Rebuilds.Insert(kind)
	}
	for _, asset := range assets {
		s.Copies.Insert(asset)
	}

	runID := uuid.NewString()
	report := Report{RunID: runID, Total: len(components), Succeeded: true}

	if s.Log != nil {
		s.Log.Info("starting initial build", zap.String("run_id", runID), zap.Int("components", len(components)))
	}

	var g errgroup.Group
	results := make([]builder.Result, len(components))
	for i, kind := range components {
		i, kind := i, kind
		g.Go(func() error {
			s.send(bus.UpdateTask{Task: kind, Status: model.InProgress})
			result := s.Builder.Build(ctx, s.Detector, kind, func(v float64) {
				s.send(bus.TaskProgress{Task: kind, Value: v})
			})
			results[i] = result
			if result.Success {
				s.send(bus.UpdateTask{Task: kind, Status: model.Success})
				s.Rebuilds.Remove(kind)
			} else {
				s.send(bus.UpdateTask{Task: kind, Status: model.Failed})
				s.logBuildFailure(kind, result)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, result := range results {
		if !result.Success {
			report.Succeeded = false
			report.Failures = append(report.Failures, result.Component.TaskLabel())
		}
	}

	s.copyAssets(assets)

	return report
}

// WatchDrain runs one tick of the watch-driven rebuild protocol: snapshot
// and clear both pending sets, build/copy the snapshot concurrently, and
// finalize by coercing any still-InProgress task to Failed defensively.
func (s *Scheduler) WatchDrain(ctx context.Context) {
	components := s.Rebuilds.DrainSnapshot()
	assets := s.Copies.DrainSnapshot()

	if len(components) == 0 && len(assets) == 0 {
		return
	}

	runID := uuid.NewString()
	if s.Log != nil {
		s.Log.Info("watch-triggered rebuild", zap.String("run_id", runID), zap.Int("components", len(components)), zap.Int("assets", len(assets)))
	}

	resolved := make([]bool, len(components))
	var g errgroup.Group
	for i, kind := range components {
		i, kind := i, kind
		g.Go(func() error {
			s.send(bus.UpdateTask{Task: kind, Status: model.InProgress})
			s.send(bus.TaskProgress{Task: kind, Value: 0.0})
			result := s.Builder.Build(ctx, s.Detector, kind, func(v float64) {
				s.send(bus.TaskProgress{Task: kind, Value: v})
			})
			s.send(bus.TaskProgress{Task: kind, Value: 1.0})
			if result.Success {
				s.send(bus.UpdateTask{Task: kind, Status: model.Success})
			} else {
				s.send(bus.UpdateTask{Task: kind, Status: model.Failed})
				s.logBuildFailure(kind, result)
			}
			resolved[i] = true
			return nil
		})
	}
	_ = g.Wait()

	s.copyAssets(assets)

	// Finalize: any task this drain left InProgress is coerced to Failed
	// defensively. Every goroutine above marks its task resolved after
	// sending a terminal status (Build returns a Result even when ctx is
	// cancelled), so this loop only acts on a goroutine that did not reach
	// that point.
	for i, kind := range components {
		if !resolved[i] {
			s.send(bus.UpdateTask{Task: kind, Status: model.Failed})
		}
	}
}

func (s *Scheduler) copyAssets(assets []model.AssetKind) {
	var g errgroup.Group
	for _, asset := range assets {
		asset := asset
		g.Go(func() error {
			src := s.Cfg.AssetSourcePath(s.Cwd, asset)
			dst := s.Cfg.AssetDestPath(s.Cwd, asset)
			changed, err := copier.CopyPath(s.Detector, src, dst)
			if err != nil {
				if s.Log != nil {
					s.Log.Warn("asset copy failed", zap.String("asset", asset.String()), zap.Error(err))
				}
				s.send(bus.AssetCopyResult{Asset: asset, Err: err})
				// Not removed from pending: it will be retried on the next
				// trigger. The caller already drained the snapshot, so
				// re-insert for the next drain.
				s.Copies.Insert(asset)
				return nil
			}
			s.Copies.Remove(asset)
			s.send(bus.AssetCopyResult{Asset: asset, Changed: changed})
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) logBuildFailure(kind model.ComponentKind, result builder.Result) {
	if s.Log == nil {
		return
	}
	s.Log.Error("component build failed",
		zap.String("component", kind.String()),
		zap.Error(result.Err),
		zap.String("stderr_tail", result.StderrTail),
	)
}

func (s *Scheduler) send(msg bus.Message) {
	if s.Sink != nil {
		s.Sink.Send(msg)
	}
}

// FormatReport renders the final textual summary.
func FormatReport(r Report) string {
	if r.Succeeded {
		return fmt.Sprintf("Build completed successfully (%d components)", r.Total)
	}
	return fmt.Sprintf("Build failed: %v", r.Failures)
}
