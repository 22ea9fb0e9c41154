package sessions

// Claimed reports how many session ids sys currently tracks as in use.
func Claimed(sys System) int {
	h := sys.(*host)
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.locks)
}
