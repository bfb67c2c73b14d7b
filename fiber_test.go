package fibra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFiberName(t *testing.T) {
	require.True(t, ValidateFiberName("gen-1.worker"))
	require.True(t, ValidateFiberName("root"))
	require.False(t, ValidateFiberName("no spaces"))
	require.False(t, ValidateFiberName("no/slashes"))

	long := make([]byte, MaxFiberNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	require.False(t, ValidateFiberName(string(long)))
}

func TestFiber_TransitionNeverLeavesTerminated(t *testing.T) {
	f := &Fiber{mailbox: newMailbox(), doneCh: make(chan struct{})}
	require.Equal(t, StateCreated, f.State())

	require.True(t, f.transition(StateRunning))
	require.True(t, f.transition(StateSuspended))
	require.True(t, f.transition(StateRunning))
	require.True(t, f.transition(StateTerminated))

	require.False(t, f.transition(StateRunning))
	require.Equal(t, StateTerminated, f.State())
	require.False(t, f.Alive())
}

func TestFiber_String(t *testing.T) {
	f := &Fiber{id: 7, name: "squares", mailbox: newMailbox()}
	require.Equal(t, "fiber 7 (squares, created)", f.String())
}

func TestEnumStrings(t *testing.T) {
	require.Equal(t, "resume", OpResume.String())
	require.Equal(t, "yield", OpYield.String())
	require.Equal(t, "worker", WorkerBackend.String())
	require.Equal(t, "continuation", ContinuationBackend.String())
	require.Equal(t, "created", StateCreated.String())
	require.Equal(t, "terminated", StateTerminated.String())
}
