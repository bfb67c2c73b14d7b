package cont

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCont_LazyStart(t *testing.T) {
	started := false
	c := New(func() {
		started = true
	})

	require.False(t, started, "the bound function must not run before the first Run")

	again, err := c.Run()
	require.NoError(t, err)
	require.False(t, again)
	require.True(t, started)
	require.True(t, c.Done())
}

func TestCont_RunPauseRoundTrips(t *testing.T) {
	var trace []string
	var c *Cont
	c = New(func() {
		trace = append(trace, "step1")
		c.Pause()
		trace = append(trace, "step2")
		c.Pause()
		trace = append(trace, "step3")
	})

	again, err := c.Run()
	require.NoError(t, err)
	require.True(t, again)
	require.Equal(t, []string{"step1"}, trace)

	again, err = c.Run()
	require.NoError(t, err)
	require.True(t, again)
	require.Equal(t, []string{"step1", "step2"}, trace)

	again, err = c.Run()
	require.NoError(t, err)
	require.False(t, again)
	require.Equal(t, []string{"step1", "step2", "step3"}, trace)

	_, err = c.Run()
	require.ErrorIs(t, err, ErrDone)
}

func TestCont_StopBeforeStart(t *testing.T) {
	started := false
	c := New(func() {
		started = true
	})
	c.Stop()

	_, err := c.Run()
	require.ErrorIs(t, err, ErrDone)
	require.False(t, started)
}

func TestCont_PanicReachesDriver(t *testing.T) {
	c := New(func() {
		panic("kaboom")
	})

	require.PanicsWithValue(t, "kaboom", func() {
		_, _ = c.Run()
	})
	require.True(t, c.Done())
}
