package filter

// History is a FIFO buffer of the most recent raw fixes. Every incoming fix
// is recorded before scoring, so the buffer also holds fixes that were later
// rejected.
type History struct {
	fixes []Fix
	size  int
}

func NewHistory(size int) *History {
	return &History{
		fixes: make([]Fix, 0, size),
		size:  size,
	}
}

// Push appends a fix, evicting the oldest entry once the buffer is full.
func (h *History) Push(f Fix) {
	if len(h.fixes) == h.size {
		copy(h.fixes, h.fixes[1:])
		h.fixes[h.size-1] = f
		return
	}
	h.fixes = append(h.fixes, f)
}

func (h *History) Len() int {
	return len(h.fixes)
}

// Last returns the newest buffered fix.
func (h *History) Last() (Fix, bool) {
	if len(h.fixes) == 0 {
		return Fix{}, false
	}
	return h.fixes[len(h.fixes)-1], true
}

// SecondToLast returns the fix before the newest one.
func (h *History) SecondToLast() (Fix, bool) {
	if len(h.fixes) < 2 {
		return Fix{}, false
	}
	return h.fixes[len(h.fixes)-2], true
}
