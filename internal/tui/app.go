package tui

import (
	"time"

	"extforge/internal/bus"
	"extforge/internal/model"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// scrollStep is how many lines Up/Down move the log viewport.
const scrollStep = 5

// ReleaseMode controls whether debug-level log entries are dropped.
type ReleaseMode bool

// App is the pure in-process UI-model mutated only by bus messages. It
// never calls back into the scheduler directly; OnReset is an opaque
// side-effect hook invoked via a tea.Cmd so the scheduler → bus → UI data
// flow stays a one-way DAG.
type App struct {
	components []model.ComponentKind

	tasks       map[model.ComponentKind]model.TaskState
	taskHistory map[model.ComponentKind]model.TaskState

	overallStart    time.Time
	overallProgress float64
	forcedProgress  bool

	logs *logBuffer

	spinner spinner.Model

	width, height int
	ready         bool
	shouldQuit    bool
	release       bool

	OnReset func() tea.Cmd
}

// NewApp constructs an App tracking the given set of known components.
func NewApp(components []model.ComponentKind, release bool, onReset func() tea.Cmd) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := &App{
		components:  components,
		tasks:       make(map[model.ComponentKind]model.TaskState),
		taskHistory: make(map[model.ComponentKind]model.TaskState),
		logs:        newLogBuffer(),
		spinner:     sp,
		release:     release,
		OnReset:     onReset,
	}
	for _, c := range components {
		a.tasks[c] = model.NewTaskState()
		a.taskHistory[c] = model.NewTaskState()
	}
	return a
}

// Init satisfies tea.Model.
func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update satisfies tea.Model, applying exactly one bus.Message (or a raw
// tea message like spinner ticks / WindowSizeMsg) per call.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(m)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd

	case bus.UpdateTask:
		a.applyUpdateTask(m)
		return a, nil

	case bus.TaskProgress:
		a.applyTaskProgress(m)
		return a, nil

	case bus.BuildProgress:
		if a.buildPhase() == model.Running {
			a.overallProgress = clamp01(m.Value)
			a.forcedProgress = true
		}
		return a, nil

	case bus.LogMessage:
		a.appendLog(m)
		return a, nil

	case bus.AssetCopyResult:
		if m.Err != nil {
			a.appendLog(bus.LogMessage{Level: bus.LevelWarn, Text: "asset copy failed: " + m.Err.Error()})
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		a.shouldQuit = true
		return a, tea.Quit
	case "r":
		a.reset()
		if a.OnReset != nil {
			return a, a.OnReset()
		}
		return a, nil
	case "up":
		a.logs.ScrollBy(-scrollStep)
		return a, nil
	case "down":
		a.logs.ScrollBy(scrollStep)
		return a, nil
	}
	return a, nil
}

// ShouldQuit reports whether the last key handled was 'q' or Ctrl+C.
func (a *App) ShouldQuit() bool { return a.shouldQuit }

func (a *App) applyUpdateTask(m bus.UpdateTask) {
	t := a.tasks[m.Task]
	now := time.Now()

	if t.Status == model.Pending && m.Status == model.InProgress {
		started := now
		t.Started = &started
		if a.overallStart.IsZero() {
			a.overallStart = now
		}
	}
	if m.Status.Terminal() {
		ended := now
		t.Ended = &ended
		t.Progress = 1.0
	}
	t.Status = m.Status
	a.tasks[m.Task] = t
	a.taskHistory[m.Task] = t

	a.recomputeOverallProgress()
}

func (a *App) applyTaskProgress(m bus.TaskProgress) {
	t, ok := a.tasks[m.Task]
	if !ok {
		return
	}
	value := clamp01(m.Value)
	// Progress is monotone: samples <= the last seen may be dropped.
	if value <= t.Progress && t.Status == model.InProgress {
		return
	}
	t.Progress = value
	a.tasks[m.Task] = t
	a.taskHistory[m.Task] = t

	if !a.forcedProgress {
		a.recomputeOverallProgress()
	}
}

func (a *App) recomputeOverallProgress() {
	state := model.DeriveBuildState(a.tasks, a.overallStart, time.Now())
	if state.Phase == model.Running {
		a.overallProgress = state.Progress
	}
	a.forcedProgress = false
}

func (a *App) buildPhase() model.BuildPhase {
	return model.DeriveBuildState(a.tasks, a.overallStart, time.Now()).Phase
}

func (a *App) appendLog(m bus.LogMessage) {
	if a.release && m.Level == bus.LevelDebug {
		return
	}
	a.logs.Append(logLine{level: levelName(m.Level), text: m.Text, at: time.Now()})
}

// reset clears tasks, task history, and the log buffer, and reseeds the
// known-component set to Pending. Reseeding the pending rebuild/copy sets
// and re-entering the initial-build protocol themselves happen in OnReset,
// which the caller wires to the scheduler.
func (a *App) reset() {
	a.tasks = make(map[model.ComponentKind]model.TaskState)
	a.taskHistory = make(map[model.ComponentKind]model.TaskState)
	for _, c := range a.components {
		a.tasks[c] = model.NewTaskState()
		a.taskHistory[c] = model.NewTaskState()
	}
	a.logs.Clear()
	a.overallStart = time.Now()
	a.overallProgress = 0
	a.forcedProgress = false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func levelName(l bus.LogLevel) string {
	switch l {
	case bus.LevelError:
		return "ERROR"
	case bus.LevelWarn:
		return "WARN"
	case bus.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
