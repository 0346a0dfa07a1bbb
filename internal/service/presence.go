package service

import "sync"

// PresenceTracker counts open connections per user. A user is online while
// the count is above zero; only the 0->1 and 1->0 edges are transitions.
// State lives in memory only and starts empty after a restart.
type PresenceTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{counts: make(map[string]int)}
}

// Connect records one more connection for the user and reports whether the
// user just came online.
func (t *PresenceTracker) Connect(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[username]++
	return t.counts[username] == 1
}

// Disconnect records one connection gone and reports whether the user just
// went offline. A disconnect for an unknown user is ignored: transport
// disconnects can race.
func (t *PresenceTracker) Disconnect(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.counts[username]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(t.counts, username)
		return true
	}
	t.counts[username] = n - 1
	return false
}

func (t *PresenceTracker) IsOnline(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.counts[username] > 0
}

// Online returns the usernames currently holding at least one connection.
func (t *PresenceTracker) Online() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.counts))
	for u := range t.counts {
		out = append(out, u)
	}
	return out
}
