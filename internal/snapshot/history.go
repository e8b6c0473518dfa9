package snapshot

// History is a linear undo/redo log of project snapshots with a movable
// cursor. The log is never empty; Append truncates the redo branch;
// Overwrite replaces the current entry by value for continuous edits that
// should not create separate undo steps.
type History struct {
	entries []ProjectSnapshot
	cursor  int
}

// NewHistory starts a single-entry log at initial.
func NewHistory(initial ProjectSnapshot) *History {
	return &History{entries: []ProjectSnapshot{initial.Clone()}}
}

// Current returns the snapshot at the cursor. The returned value is a
// clone, so callers cannot reach back into the log.
func (h *History) Current() ProjectSnapshot {
	return h.entries[h.cursor].Clone()
}

// Append drops any entries beyond the cursor, adds s, and moves the
// cursor to the new end.
func (h *History) Append(s ProjectSnapshot) {
	h.entries = append(h.entries[:h.cursor+1], s.Clone())
	h.cursor = len(h.entries) - 1
}

// Overwrite replaces the entry at the cursor in place. Log length and
// cursor are unchanged.
func (h *History) Overwrite(s ProjectSnapshot) {
	h.entries[h.cursor] = s.Clone()
}

// Undo moves the cursor back by one. No-op at the first entry.
func (h *History) Undo() bool {
	if h.cursor == 0 {
		return false
	}
	h.cursor--
	return true
}

// Redo moves the cursor forward by one. No-op at the last entry.
func (h *History) Redo() bool {
	if h.cursor >= len(h.entries)-1 {
		return false
	}
	h.cursor++
	return true
}

// Reset discards all history and starts a fresh single-entry log at s.
func (h *History) Reset(s ProjectSnapshot) {
	h.entries = []ProjectSnapshot{s.Clone()}
	h.cursor = 0
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }
func (h *History) Len() int      { return len(h.entries) }
