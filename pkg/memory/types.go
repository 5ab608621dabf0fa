package memory

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

/*
Key scopes a short-term window. Windows keyed by different tuples never see
each other's turns.
*/
type Key struct {
	UserID      string
	ConstructID string
	ThreadID    string
}

/*
Turn is a single conversation turn. It is immutable once appended to a
window; the window owns it exclusively until it is evicted.
*/
type Turn struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RecallEntry is one ranked snippet returned by the long-term store.
type RecallEntry struct {
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance_score"`
	Source    string  `json:"source"`
}

/*
RecallResult carries the entries of a long-term query plus a degraded flag.
Degraded means the remote call failed or timed out and the empty (or partial)
set is a documented fallback, not the service's actual answer.
*/
type RecallResult struct {
	Entries  []RecallEntry
	Degraded bool
}
