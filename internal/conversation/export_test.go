package conversation

// TrackedLocks reports how many per-user locks the engine currently holds.
func (e *Engine) TrackedLocks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.locks)
}
