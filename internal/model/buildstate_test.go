package model_test

import (
	"testing"
	"time"

	"extforge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveBuildState_AllPendingIsIdle(t *testing.T) {
	tasks := map[model.ComponentKind]model.TaskState{
		model.Popup:      model.NewTaskState(),
		model.Background: model.NewTaskState(),
	}
	state := model.DeriveBuildState(tasks, time.Time{}, time.Now())
	assert.Equal(t, model.Idle, state.Phase)
}

func TestDeriveBuildState_AllSuccessIsComplete(t *testing.T) {
	start := time.Now().Add(-2 * time.Second)
	now := time.Now()
	tasks := map[model.ComponentKind]model.TaskState{
		model.Popup:      {Status: model.Success, Weight: 1},
		model.Background: {Status: model.Success, Weight: 1},
	}
	state := model.DeriveBuildState(tasks, start, now)
	require.Equal(t, model.Complete, state.Phase)
	assert.GreaterOrEqual(t, state.Duration, time.Duration(0))
}

func TestDeriveBuildState_AnyFailedAfterResolutionIsFailed(t *testing.T) {
	tasks := map[model.ComponentKind]model.TaskState{
		model.Popup:      {Status: model.Success, Weight: 1},
		model.Background: {Status: model.Failed, Weight: 1},
	}
	state := model.DeriveBuildState(tasks, time.Now(), time.Now())
	assert.Equal(t, model.Failed, state.Phase)
}

func TestDeriveBuildState_InProgressIsRunningAndMonotoneProgress(t *testing.T) {
	tasks := map[model.ComponentKind]model.TaskState{
		model.Popup:      {Status: model.InProgress, Progress: 0.5, Weight: 1},
		model.Background: {Status: model.Pending, Weight: 1},
	}
	state := model.DeriveBuildState(tasks, time.Now(), time.Now())
	require.Equal(t, model.Running, state.Phase)
	assert.InDelta(t, 0.25, state.Progress, 0.001)
	assert.GreaterOrEqual(t, state.Progress, 0.0)
	assert.LessOrEqual(t, state.Progress, 1.0)
}

func TestTaskState_ContributionBounds(t *testing.T) {
	assert.Equal(t, 0.0, model.TaskState{Status: model.Pending}.Contribution())
	assert.Equal(t, 1.0, model.TaskState{Status: model.Success}.Contribution())
	assert.Equal(t, 1.0, model.TaskState{Status: model.Failed}.Contribution())
	assert.Equal(t, 0.1, model.TaskState{Status: model.InProgress}.Contribution())
	assert.Equal(t, 0.7, model.TaskState{Status: model.InProgress, Progress: 0.7}.Contribution())
}

func TestPendingComponents_IdempotentInsertAndDrain(t *testing.T) {
	p := model.NewPendingComponents()
	p.Insert(model.Popup)
	p.Insert(model.Popup)
	p.Insert(model.Content)
	require.Equal(t, 2, p.Len())

	snap := p.DrainSnapshot()
	assert.ElementsMatch(t, []model.ComponentKind{model.Popup, model.Content}, snap)
	assert.Equal(t, 0, p.Len())

	// draining an empty set returns nil, not an error
	assert.Nil(t, p.DrainSnapshot())
}

func TestPendingComponents_InsertAllSeedsFullEnumeration(t *testing.T) {
	p := model.NewPendingComponents()
	p.InsertAll()
	snap := p.DrainSnapshot()
	assert.ElementsMatch(t, model.AllComponents, snap)
}
