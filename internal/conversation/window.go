// Package conversation holds the bounded dialogue history that is replayed
// to the model on every turn.
package conversation

import "sync"

// DefaultCapacity is the number of turns kept when no capacity is configured.
const DefaultCapacity = 20

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation. Turns are values and are never
// modified after they are appended.
type Turn struct {
	Role    Role
	Content string
}

// UserTurn is shorthand for a user turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn is shorthand for an assistant turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Window is a fixed-capacity FIFO of turns. When an append would exceed the
// capacity the oldest turns are dropped; the order of the remaining turns is
// preserved.
type Window struct {
	mu       sync.RWMutex
	capacity int
	turns    []Turn
	evicted  int
}

// NewWindow creates a window holding at most capacity turns. Capacities below
// one fall back to DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Window{
		capacity: capacity,
		turns:    make([]Turn, 0, capacity),
	}
}

// Append adds a turn to the end of the window, evicting from the front until
// the window is back within capacity.
func (w *Window) Append(t Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = append(w.turns, t)
	if over := len(w.turns) - w.capacity; over > 0 {
		// Reslicing keeps append amortized O(1); the dropped prefix is
		// reclaimed the next time append grows the backing array.
		w.turns = w.turns[over:]
		w.evicted += over
	}
}

// Snapshot returns a copy of the turns in order, oldest first.
func (w *Window) Snapshot() []Turn {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Len returns the number of turns currently held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.turns)
}

// Capacity returns the fixed maximum number of turns.
func (w *Window) Capacity() int {
	return w.capacity
}

// Evicted returns the total number of turns dropped since creation.
func (w *Window) Evicted() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.evicted
}
