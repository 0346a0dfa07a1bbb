package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceTracker_TransitionEdges(t *testing.T) {
	tr := NewPresenceTracker()

	assert.True(t, tr.Connect("alice"), "first connection is the online edge")
	assert.False(t, tr.Connect("alice"), "second connection is churn")
	assert.True(t, tr.IsOnline("alice"))

	assert.False(t, tr.Disconnect("alice"), "1 connection left, still online")
	assert.True(t, tr.IsOnline("alice"))
	assert.True(t, tr.Disconnect("alice"), "last connection is the offline edge")
	assert.False(t, tr.IsOnline("alice"))
}

func TestPresenceTracker_ChurnEmitsNothing(t *testing.T) {
	tr := NewPresenceTracker()

	require.True(t, tr.Connect("bob"))
	// 1 -> 2 -> 1: no edges either way
	assert.False(t, tr.Connect("bob"))
	assert.False(t, tr.Disconnect("bob"))
	assert.True(t, tr.Disconnect("bob"))
}

func TestPresenceTracker_UnknownDisconnect(t *testing.T) {
	tr := NewPresenceTracker()

	// disconnect races are tolerated, never an offline edge
	assert.False(t, tr.Disconnect("ghost"))
	assert.False(t, tr.IsOnline("ghost"))
}

func TestPresenceTracker_Online(t *testing.T) {
	tr := NewPresenceTracker()
	tr.Connect("alice")
	tr.Connect("bob")
	tr.Connect("bob")

	online := tr.Online()
	assert.ElementsMatch(t, []string{"alice", "bob"}, online)

	tr.Disconnect("bob")
	assert.ElementsMatch(t, []string{"alice", "bob"}, tr.Online())
	tr.Disconnect("bob")
	assert.ElementsMatch(t, []string{"alice"}, tr.Online())
}

func TestPresenceTracker_ConcurrentChurn(t *testing.T) {
	tr := NewPresenceTracker()

	const workers = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		onlines  int
		offlines int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Connect("alice") {
				mu.Lock()
				onlines++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, onlines, "exactly one 0->1 edge across concurrent connects")
	require.True(t, tr.IsOnline("alice"))

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Disconnect("alice") {
				mu.Lock()
				offlines++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, offlines, "exactly one 1->0 edge across concurrent disconnects")
	require.False(t, tr.IsOnline("alice"))
}
