package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_ValidPath(t *testing.T) {
	var observed [][2]State
	r := newRequest(func(from, to State) { observed = append(observed, [2]State{from, to}) })

	assert.Equal(t, StateIdle, r.State())
	for _, s := range []State{StateValidating, StateFetching, StateComputing, StateDone} {
		require.NoError(t, r.to(s))
	}

	assert.Equal(t, StateDone, r.State())
	assert.True(t, r.State().Terminal())
	assert.Equal(t, []State{StateIdle, StateValidating, StateFetching, StateComputing, StateDone}, r.History())
	assert.Equal(t, [2]State{StateComputing, StateDone}, observed[len(observed)-1])
}

func TestRequest_InvalidTransitions(t *testing.T) {
	r := newRequest(nil)

	assert.Error(t, r.to(StateFetching), "cannot skip validation")
	require.NoError(t, r.to(StateValidating))
	require.NoError(t, r.to(StateFailed))
	err := r.to(StateFetching)
	require.Error(t, err, "failed is terminal")
	assert.Contains(t, err.Error(), "already failed")
	assert.Equal(t, StateFailed, r.State())
}

func TestRequest_DoneIsFinal(t *testing.T) {
	r := newRequest(nil)
	for _, s := range []State{StateValidating, StateFetching, StateComputing, StateDone} {
		require.NoError(t, r.to(s))
	}

	err := r.to(StateFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already done")
	assert.Equal(t, StateDone, r.State())
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateFetching.Terminal())
}
