package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Run Tests
// =============================================================================

func TestNewRun(t *testing.T) {
	run := NewRun(RunKindProvision, "network=phabricator_net")

	assert.True(t, strings.HasPrefix(run.ID, "run_"))
	assert.Equal(t, RunKindProvision, run.Kind)
	assert.Equal(t, RunStatusPending, run.Status)
	assert.Equal(t, "network=phabricator_net", run.Detail)
	assert.False(t, run.StartedAt.IsZero())
	assert.Nil(t, run.FinishedAt)
}

func TestGenerateRunID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRunID()
		assert.False(t, seen[id], "duplicate run ID: %s", id)
		seen[id] = true
	}
}

func TestRun_ValidTransitions(t *testing.T) {
	run := NewRun(RunKindSetup, "")

	require.NoError(t, run.Transition(RunStatusRunning))
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, run.Transition(RunStatusSucceeded))
	assert.Equal(t, RunStatusSucceeded, run.Status)
	require.NotNil(t, run.FinishedAt)
}

func TestRun_InvalidTransition(t *testing.T) {
	run := NewRun(RunKindDeploy, "")

	err := run.Transition(RunStatusSucceeded)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRunTransition)
	assert.Equal(t, RunStatusPending, run.Status)
}

func TestRun_TerminalIsFinal(t *testing.T) {
	run := NewRun(RunKindBootstrap, "")
	require.NoError(t, run.Transition(RunStatusRunning))
	require.NoError(t, run.Transition(RunStatusFailed))

	err := run.Transition(RunStatusRunning)
	assert.ErrorIs(t, err, ErrInvalidRunTransition)
}

func TestRun_Fail(t *testing.T) {
	run := NewRun(RunKindProvision, "")
	require.NoError(t, run.Transition(RunStatusRunning))

	require.NoError(t, run.Fail("container already exists"))
	assert.Equal(t, RunStatusFailed, run.Status)
	assert.Equal(t, "container already exists", run.Error)
	assert.NotNil(t, run.FinishedAt)
}

func TestRun_Duration(t *testing.T) {
	run := NewRun(RunKindSetup, "")
	assert.Zero(t, run.Duration())

	require.NoError(t, run.Transition(RunStatusRunning))
	require.NoError(t, run.Transition(RunStatusSucceeded))
	assert.GreaterOrEqual(t, run.Duration().Nanoseconds(), int64(0))
}
