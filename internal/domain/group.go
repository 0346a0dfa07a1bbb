package domain

import "strings"

// NormalizeUsername folds a username to the canonical lowercase form the
// users table stores. Every entry point normalizes before lookups or group
// naming, so differing caller case cannot split a pair across groups.
func NormalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// GroupName builds the canonical name of the conversation group for two
// usernames. The name is order-independent: both parties resolve the same
// group regardless of who opened the thread. Usernames are stored lowercase
// and cannot contain '-', so the separator keeps distinct pairs distinct.
func GroupName(a, b string) string {
	if a < b {
		return a + "-" + b
	}
	return b + "-" + a
}

// Connection is one live transport session joined to a conversation group.
// Rows are owned by the registry and must not outlive the session.
type Connection struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	GroupName string `db:"group_name"`
}
