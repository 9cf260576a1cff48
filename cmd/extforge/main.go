// Package main implements the extforge CLI: init scaffolds a new project,
// build runs one full build pass, and watch runs build-on-change until
// interrupted, driving the bubbletea dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"extforge/internal/builder"
	"extforge/internal/bus"
	"extforge/internal/config"
	"extforge/internal/logging"
	"extforge/internal/model"
	"extforge/internal/scaffold"
	"extforge/internal/scheduler"
	"extforge/internal/tui"
	"extforge/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	workDir string
)

var rootCmd = &cobra.Command{
	Use:   "extforge",
	Short: "Build orchestrator and live-reload supervisor for WASM browser extensions",
	Long: `extforge compiles a popup, background, and content-script WASM
component from source, mirrors the extension's static assets into dist/,
and can watch the project tree to keep dist/ live during development.`,
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "project directory (default: current directory)")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// setupError marks an error that should exit non-zero but isn't a bug --
// a missing directory, an already-initialized project, and so on.
type setupError struct{ err error }

func (e setupError) Error() string { return e.err.Error() }
func (e setupError) Unwrap() error { return e.err }

// exitCodeFor maps every returned error, setup error or I/O failure, to
// exit code 1. No command exits with 2: init has no interactive mode that
// a user could abort.
func exitCodeFor(err error) int {
	return 1
}

func resolveWorkDir() (string, error) {
	if workDir == "" {
		return os.Getwd()
	}
	return filepath.Abs(workDir)
}

func newInitCmd() *cobra.Command {
	var (
		extensionDir   string
		popupName      string
		backgroundName string
		contentName    string
		assetsDir      string
		optionsName    string
		force          bool
		incremental    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new extforge project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := resolveWorkDir()
			if err != nil {
				return setupError{err}
			}

			cfg := config.Default()
			if extensionDir != "" {
				cfg.ExtensionDirectoryName = extensionDir
			}
			if popupName != "" {
				cfg.PopupName = popupName
			}
			if backgroundName != "" {
				cfg.BackgroundScriptIndexName = backgroundName
			}
			if contentName != "" {
				cfg.ContentScriptIndexName = contentName
			}
			if assetsDir != "" {
				cfg.AssetsDirectory = assetsDir
			}
			cfg.EnableIncrementalBuilds = incremental
			cfg.OptionsName = optionsName

			err = scaffold.Write(cwd, scaffold.Options{
				Cfg:         cfg,
				Force:       force,
				WithOptions: optionsName != "",
			})
			if err == scaffold.ErrAlreadyExists {
				return setupError{fmt.Errorf("%s: use --force to reinitialize", err)}
			}
			if err != nil {
				return setupError{err}
			}

			fmt.Printf("initialized extforge project in %s\n", cfg.ExtensionDir(cwd))
			return nil
		},
	}

	cmd.Flags().StringVar(&extensionDir, "extension-dir", "", "extension source directory name (default \"ext\")")
	cmd.Flags().StringVar(&popupName, "popup-name", "", "popup crate directory name (default \"popup\")")
	cmd.Flags().StringVar(&backgroundName, "background-script", "", "background script entry filename")
	cmd.Flags().StringVar(&contentName, "content-script", "", "content script entry filename")
	cmd.Flags().StringVar(&assetsDir, "assets-dir", "", "static assets directory name")
	cmd.Flags().StringVar(&optionsName, "options-name", "", "options crate directory name (omit for no options page)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing project")
	cmd.Flags().BoolVarP(&incremental, "enable-incremental-builds", "i", true, "skip rebuilding components whose sources haven't changed")

	return cmd
}

func newBuildCmd() *cobra.Command {
	var (
		mode  string
		clean bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run a single build pass and copy assets into dist/",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := resolveWorkDir()
			if err != nil {
				return setupError{err}
			}
			cfg, err := loadAndValidate(cwd)
			if err != nil {
				return setupError{err}
			}

			log, err := logging.NewCLILogger(verbose)
			if err != nil {
				return setupError{err}
			}
			defer log.Sync()

			if clean {
				if err := os.RemoveAll(cfg.DistDir(cwd)); err != nil {
					return setupError{fmt.Errorf("clean dist: %w", err)}
				}
			}

			release := mode == "release"
			b := builder.New(cfg, cwd, log, cfg.EnableIncrementalBuilds, release)
			s := scheduler.New(cfg, cwd, log, nullSink{}, b)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report := s.InitialBuild(ctx)
			fmt.Println(scheduler.FormatReport(report))
			if !report.Succeeded {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "debug", "build mode: debug or release")
	cmd.Flags().BoolVarP(&clean, "clean", "c", false, "remove dist/ before building")

	return cmd
}

func newWatchCmd() *cobra.Command {
	var (
		mode  string
		clean bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, then keep dist/ live as the project changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := resolveWorkDir()
			if err != nil {
				return setupError{err}
			}
			cfg, err := loadAndValidate(cwd)
			if err != nil {
				return setupError{err}
			}

			if clean {
				if err := os.RemoveAll(cfg.DistDir(cwd)); err != nil {
					return setupError{fmt.Errorf("clean dist: %w", err)}
				}
			}

			return runWatch(cwd, cfg, mode == "release")
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "debug", "build mode: debug or release")
	cmd.Flags().BoolVarP(&clean, "clean", "c", false, "remove dist/ before building")

	return cmd
}

func loadAndValidate(cwd string) (config.Config, error) {
	path := filepath.Join(cwd, config.DefaultFileName)
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(cwd); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// nullSink discards bus messages; used by the non-interactive `build` path.
type nullSink struct{}

func (nullSink) Send(interface{}) {}

// programSink adapts *tea.Program's typed Send(tea.Msg) to the plain
// Send(interface{}) shape internal/scheduler and internal/logging consume,
// keeping those packages free of a bubbletea import.
type programSink struct{ program *tea.Program }

func (s programSink) Send(msg interface{}) { s.program.Send(msg) }

// runWatch wires the scheduler, watch-router, and TUI together and runs
// the program to completion, restoring the terminal on panic.
func runWatch(cwd string, cfg config.Config, release bool) (err error) {
	app := tui.NewApp(cfg.ActiveComponents(), release, nil)
	program := tea.NewProgram(app, tea.WithAltScreen())
	sink := programSink{program}

	log := logging.NewTUILogger(sink)
	b := builder.New(cfg, cwd, log, cfg.EnableIncrementalBuilds, release)
	s := scheduler.New(cfg, cwd, log, sink, b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onReset := func() tea.Cmd {
		return func() tea.Msg {
			s.InitialBuild(ctx)
			return nil
		}
	}
	app.OnReset = onReset

	onPending := func(kind model.ComponentKind) {
		sink.Send(bus.UpdateTask{Task: kind, Status: model.Pending})
	}
	router, rerr := watch.NewRouter(cfg, cwd, log, s.Rebuilds, s.Copies, onPending)
	if rerr != nil {
		return fmt.Errorf("start watcher: %w", rerr)
	}
	defer router.Close()

	defer func() {
		if r := recover(); r != nil {
			program.ReleaseTerminal()
			panic(r)
		}
	}()

	go func() {
		s.InitialBuild(ctx)
		go router.Run(ctx)
		drainLoop(ctx, s)
	}()

	_, runErr := program.Run()
	cancel()
	return runErr
}

func drainLoop(ctx context.Context, s *scheduler.Scheduler) {
	ticker := time.NewTicker(scheduler.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.WatchDrain(ctx)
		}
	}
}
