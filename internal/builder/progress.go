package builder

import (
	"strings"
	"time"
)

// phase is one coarse build stage the toolchain's stdout hints at.
type phase int

const (
	phaseChecking phase = iota
	phaseCompiling
	phaseOptimizing
	phasePackaging
	phaseCount
)

// phaseWeight is the approximate share of total progress each phase
// represents; it sums to 1.0.
var phaseWeight = [phaseCount]float64{
	phaseChecking:   0.10,
	phaseCompiling:  0.40,
	phaseOptimizing: 0.30,
	phasePackaging:  0.20,
}

// phaseFloor is the cumulative progress at the *start* of each phase.
var phaseFloor = [phaseCount]float64{
	phaseChecking:   0.0,
	phaseCompiling:  0.10,
	phaseOptimizing: 0.50,
	phasePackaging:  0.80,
}

// progressTracker turns a stream of opaque stdout lines into a
// monotonically non-decreasing [0,1] progress estimate. Its contract is
// monotonicity and eventual 1.0, not accuracy.
type progressTracker struct {
	current         phase
	compilingSeen   int
	compilingEstMax int
	last            float64
	lastEmit        time.Time
	minInterval     time.Duration
}

func newProgressTracker() *progressTracker {
	return &progressTracker{minInterval: 100 * time.Millisecond, compilingEstMax: 8}
}

// Observe feeds one stdout line and returns (value, shouldEmit). shouldEmit
// is true when the rate limit and/or a phase transition permits a callback.
func (p *progressTracker) Observe(line string) (float64, bool) {
	lower := strings.ToLower(line)
	transitioned := p.advancePhase(lower)

	if p.current == phaseCompiling && strings.Contains(line, "Compiling") {
		p.compilingSeen++
		if p.compilingSeen > p.compilingEstMax {
			// Grow the estimate so intra-phase progress never exceeds 1.0
			// before the phase actually completes.
			p.compilingEstMax = p.compilingSeen + 1
		}
	}

	value := p.value()
	now := time.Now()
	shouldEmit := transitioned || now.Sub(p.lastEmit) >= p.minInterval
	if shouldEmit {
		p.lastEmit = now
	}
	if value > p.last {
		p.last = value
	}
	return p.last, shouldEmit
}

func (p *progressTracker) advancePhase(lower string) bool {
	var next phase
	switch {
	case strings.Contains(lower, "generating") || strings.Contains(lower, "packaging"):
		next = phasePackaging
	case strings.Contains(lower, "optimizing"):
		next = phaseOptimizing
	case strings.Contains(lower, "compiling"):
		next = phaseCompiling
	case strings.Contains(lower, "checking"):
		next = phaseChecking
	default:
		return false
	}
	if next > p.current {
		p.current = next
		return true
	}
	return false
}

func (p *progressTracker) value() float64 {
	floor := phaseFloor[p.current]
	weight := phaseWeight[p.current]

	if p.current != phaseCompiling {
		return floor
	}

	intra := float64(p.compilingSeen) / float64(p.compilingEstMax)
	if intra > 1 {
		intra = 1
	}
	return floor + weight*intra
}

// Final returns the terminal progress value, 1.0.
func (p *progressTracker) Final() float64 {
	return 1.0
}

// stderrMarker classifies a stderr line by its recognized structured
// prefix. Unrecognized lines are debug.
type stderrMarker int

const (
	markerDebug stderrMarker = iota
	markerInfo
	markerWarn
	markerError
)

func classifyStderr(line string) stderrMarker {
	switch {
	case strings.Contains(line, "[ERROR]:"):
		return markerError
	case strings.Contains(line, "[WARN]:"):
		return markerWarn
	case strings.Contains(line, "[INFO]:"):
		return markerInfo
	default:
		return markerDebug
	}
}

// hasFileLockMarker reports whether accumulated stderr indicates the
// toolchain hit a lock file held by a concurrent invocation: the only
// condition that triggers a retry.
func hasFileLockMarker(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "could not acquire lock") ||
		strings.Contains(lower, "resource temporarily unavailable") ||
		strings.Contains(lower, ".cargo-lock")
}
