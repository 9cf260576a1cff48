// Package logging wires a zap logger so every log record, emitted from
// CLI-stage code or from child-process stderr parsing inside the TUI,
// ends up on the same bus.LogMessage stream the render loop consumes.
package logging

import (
	"extforge/internal/bus"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink is anything that can accept a forwarded log message. *bubbletea.Program
// reaches it through the programSink adapter in cmd/extforge, since its Send
// takes a tea.Msg; tests can supply a plain channel-backed fake.
type Sink interface {
	Send(msg interface{})
}

// busCore is a zapcore.Core that forwards every entry as a bus.LogMessage
// instead of writing bytes anywhere. It never buffers: each Write call
// performs exactly one Send, preserving the order zap observed calls in.
type busCore struct {
	zapcore.LevelEnabler
	sink Sink
}

// NewBusCore returns a zapcore.Core that forwards entries into sink.
func NewBusCore(sink Sink, enab zapcore.LevelEnabler) zapcore.Core {
	return &busCore{LevelEnabler: enab, sink: sink}
}

func (c *busCore) With(fields []zapcore.Field) zapcore.Core {
	return c
}

func (c *busCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *busCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	c.sink.Send(bus.LogMessage{Level: toBusLevel(ent.Level), Text: ent.Message})
	return nil
}

func (c *busCore) Sync() error { return nil }

func toBusLevel(l zapcore.Level) bus.LogLevel {
	switch {
	case l >= zapcore.ErrorLevel:
		return bus.LevelError
	case l >= zapcore.WarnLevel:
		return bus.LevelWarn
	case l >= zapcore.InfoLevel:
		return bus.LevelInfo
	default:
		return bus.LevelDebug
	}
}

// NewCLILogger returns a production zap logger for the non-interactive
// build command, which hands it to the builder and scheduler once the
// config has been validated. verbose enables debug-level output.
func NewCLILogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// NewTUILogger returns a zap logger whose only output is the bus, at debug
// level or above. The UI-model itself is responsible for dropping debug
// entries in release mode.
func NewTUILogger(sink Sink) *zap.Logger {
	core := NewBusCore(sink, zap.NewAtomicLevelAt(zapcore.DebugLevel))
	return zap.New(core)
}
