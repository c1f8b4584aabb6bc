package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor_ConditionEventuallyHolds(t *testing.T) {
	var polls int32
	err := WaitFor(time.Second, 5*time.Millisecond, func() bool {
		return atomic.AddInt32(&polls, 1) >= 3
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&polls))
}

func TestWaitFor_Timeout(t *testing.T) {
	start := time.Now()
	err := WaitFor(50*time.Millisecond, 10*time.Millisecond, func() bool {
		return false
	})
	require.Error(t, err)
	assert.True(t, time.Since(start) >= 50*time.Millisecond)
}

func TestWaitFor_InvalidInterval(t *testing.T) {
	assert.Error(t, WaitFor(50*time.Millisecond, 100*time.Millisecond, func() bool { return true }))
	assert.Error(t, WaitFor(50*time.Millisecond, 0, func() bool { return true }))
}
