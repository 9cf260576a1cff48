package model

import "time"

// BuildPhase distinguishes the variants of the overall BuildState sum type.
type BuildPhase int

const (
	Idle BuildPhase = iota
	Running
	Complete
	Failed
)

// BuildState is the overall build state, a small sum type derived
// mechanically from the aggregated task statuses (see DeriveBuildState).
type BuildState struct {
	Phase    BuildPhase
	Progress float64 // only meaningful when Phase == Running
	Start    time.Time
	Duration time.Duration // only meaningful when Phase == Complete or Failed
}

// DeriveBuildState applies the aggregation rule against the current task
// map. start is the overall_start_instant, zero if unset. now is used to
// compute elapsed duration for terminal states.
func DeriveBuildState(tasks map[ComponentKind]TaskState, start time.Time, now time.Time) BuildState {
	if len(tasks) == 0 {
		return BuildState{Phase: Idle}
	}

	var anyInProgress, anyPending, anyFailed, anySuccess, allResolved bool
	allResolved = true
	for _, t := range tasks {
		switch t.Status {
		case InProgress:
			anyInProgress = true
			allResolved = false
		case Pending:
			anyPending = true
			allResolved = false
		case Success:
			anySuccess = true
		case Failed:
			anyFailed = true
		}
	}

	switch {
	case allResolved && anySuccess && !anyFailed:
		return BuildState{Phase: Complete, Start: start, Duration: elapsed(start, now)}
	case allResolved && anyFailed:
		return BuildState{Phase: Failed, Start: start, Duration: elapsed(start, now)}
	case anyInProgress || (!allResolved && anyPending && (anySuccess || anyFailed)):
		return BuildState{Phase: Running, Progress: overallProgress(tasks), Start: start}
	case anyPending && !anyInProgress && !anySuccess && !anyFailed:
		return BuildState{Phase: Idle}
	default:
		return BuildState{Phase: Running, Progress: overallProgress(tasks), Start: start}
	}
}

func elapsed(start, now time.Time) time.Duration {
	if start.IsZero() {
		return 0
	}
	return now.Sub(start)
}

func overallProgress(tasks map[ComponentKind]TaskState) float64 {
	var weightSum, weighted float64
	for _, t := range tasks {
		w := t.Weight
		if w <= 0 {
			w = 1.0
		}
		weightSum += w
		weighted += w * t.Contribution()
	}
	if weightSum == 0 {
		return 0
	}
	p := weighted / weightSum
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}
