package memory

import "sync"

const defaultMaxTurns = 10

/*
Window is the short-term memory table: a bounded, ordered buffer of recent
turns per (user, construct, thread) key. Appending past the bound evicts the
oldest turns first. Windows are created lazily on first append; reading an
unknown key returns an empty slice, not an error.

The table lock isolates per-key mutation. Callers that need strict arrival
order within one key serialize their own appends; the window only guarantees
read-after-write consistency for a single caller.
*/
type Window struct {
	mu       sync.RWMutex
	turns    map[Key][]Turn
	maxTurns int
}

// NewWindow creates a short-term window table. maxTurns <= 0 selects the
// default bound of 10 turns per key.
func NewWindow(maxTurns int) *Window {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Window{
		turns:    make(map[Key][]Turn),
		maxTurns: maxTurns,
	}
}

// Append adds a turn to the key's window, then truncates to the most recent
// maxTurns. O(1) amortized.
func (w *Window) Append(key Key, turn Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	list := append(w.turns[key], turn)
	if len(list) > w.maxTurns {
		list = list[len(list)-w.maxTurns:]
	}
	w.turns[key] = list
}

// Read returns a defensive copy of the key's window, most-recent-last.
func (w *Window) Read(key Key) []Turn {
	w.mu.RLock()
	defer w.mu.RUnlock()

	list := w.turns[key]
	if len(list) == 0 {
		return []Turn{}
	}

	out := make([]Turn, len(list))
	copy(out, list)
	return out
}

// Len reports the current number of turns held for the key.
func (w *Window) Len(key Key) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.turns[key])
}

// Clear drops the key's window entirely.
func (w *Window) Clear(key Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.turns, key)
}
