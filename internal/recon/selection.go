package recon

// Selection tracks which payments are marked for multi-edit and which
// are marked to skip at posting. Both sets live outside the arena so
// toggling never touches domain data. Skip is a posting-intent flag,
// not a filter: skipped payments stay in the flattened sequence.
type Selection struct {
	selected map[string]struct{}
	skipped  map[string]struct{}
	order    []string // selection insertion order

	// Multi-edit session state.
	session []string
	cursor  int
	active  bool
}

// NewSelection creates empty selection and skip sets.
func NewSelection() *Selection {
	return &Selection{
		selected: make(map[string]struct{}),
		skipped:  make(map[string]struct{}),
	}
}

// ToggleSkip flips the skip-at-posting flag for a payment.
func (s *Selection) ToggleSkip(id string) {
	if _, ok := s.skipped[id]; ok {
		delete(s.skipped, id)
		return
	}
	s.skipped[id] = struct{}{}
}

// Skipped reports whether a payment is marked to skip at posting.
func (s *Selection) Skipped(id string) bool {
	_, ok := s.skipped[id]
	return ok
}

// SkippedCount returns the size of the skip set.
func (s *Selection) SkippedCount() int {
	return len(s.skipped)
}

// ToggleSelect flips a payment's membership in the multi-edit set.
func (s *Selection) ToggleSelect(id string) {
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return
	}
	s.selected[id] = struct{}{}
	s.order = append(s.order, id)
}

// Selected reports whether a payment is in the multi-edit set.
func (s *Selection) Selected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedCount returns the size of the multi-edit set.
func (s *Selection) SelectedCount() int {
	return len(s.selected)
}

// SelectedIDs returns the multi-edit set in insertion order.
func (s *Selection) SelectedIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// ToggleAll selects every payment in the given universe, or clears the
// set when everything is already selected. The universe is the full
// payment population across all files, not just the visible rows.
func (s *Selection) ToggleAll(universe []string) {
	if len(s.selected) == len(universe) && len(universe) > 0 {
		s.selected = make(map[string]struct{})
		s.order = nil
		return
	}
	for _, id := range universe {
		if _, ok := s.selected[id]; !ok {
			s.selected[id] = struct{}{}
			s.order = append(s.order, id)
		}
	}
}

// OpenSession snapshots the current selection as an ordered multi-edit
// sequence with the cursor at the first entry. Returns false when
// nothing is selected.
func (s *Selection) OpenSession() bool {
	if len(s.order) == 0 {
		return false
	}
	s.session = make([]string, len(s.order))
	copy(s.session, s.order)
	s.cursor = 0
	s.active = true
	return true
}

// SessionActive reports whether a multi-edit session is open.
func (s *Selection) SessionActive() bool {
	return s.active
}

// Current returns the payment id under the session cursor.
func (s *Selection) Current() (string, bool) {
	if !s.active || s.cursor >= len(s.session) {
		return "", false
	}
	return s.session[s.cursor], true
}

// Next advances the session cursor, saturating at the last entry.
func (s *Selection) Next() {
	if s.active && s.cursor < len(s.session)-1 {
		s.cursor++
	}
}

// Prev moves the session cursor back, saturating at the first entry.
func (s *Selection) Prev() {
	if s.active && s.cursor > 0 {
		s.cursor--
	}
}

// CursorPosition returns the session cursor index and sequence length.
func (s *Selection) CursorPosition() (index, size int) {
	return s.cursor, len(s.session)
}

// CloseSession ends the multi-edit session, clearing both the session
// sequence and the underlying selection set.
func (s *Selection) CloseSession() {
	s.session = nil
	s.cursor = 0
	s.active = false
	s.selected = make(map[string]struct{})
	s.order = nil
}
