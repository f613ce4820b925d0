// Package selection tracks which prediction in the list is expanded.
//
// Every item is either closed or open, and at most one item is open at a
// time. Clicking an item flips it; opening an item closes whichever item was
// open before. State is not safe for concurrent use.
package selection

// Entry is the expansion state of one list item.
type Entry struct {
	ID     int64 `json:"id"`
	IsOpen bool  `json:"isOpen"`
}

// State holds one Entry per prediction, in list order.
type State struct {
	entries []Entry
	index   map[int64]int
}

// New returns a State with every id closed. Repeated ids are kept once.
func New(ids []int64) *State {
	s := &State{}
	s.reset(ids, nil)
	return s
}

func (s *State) reset(ids []int64, keepOpen func(int64) bool) {
	s.entries = make([]Entry, 0, len(ids))
	s.index = make(map[int64]int, len(ids))
	for _, id := range ids {
		if _, dup := s.index[id]; dup {
			continue
		}
		open := keepOpen != nil && keepOpen(id)
		s.index[id] = len(s.entries)
		s.entries = append(s.entries, Entry{ID: id, IsOpen: open})
	}
}

// Toggle flips the entry for id and closes every other entry. It reports
// whether id was found; an unknown id leaves the state unchanged.
func (s *State) Toggle(id int64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	next := !s.entries[i].IsOpen
	for j := range s.entries {
		s.entries[j].IsOpen = false
	}
	s.entries[i].IsOpen = next
	return true
}

// IsOpen reports whether id is expanded. Unknown ids are closed.
func (s *State) IsOpen(id int64) bool {
	i, ok := s.index[id]
	return ok && s.entries[i].IsOpen
}

// Open returns the id of the expanded entry, if any.
func (s *State) Open() (int64, bool) {
	for _, e := range s.entries {
		if e.IsOpen {
			return e.ID, true
		}
	}
	return 0, false
}

// Sync realigns the state with a refetched id list. Entries for vanished ids
// are dropped, new ids start closed, and a surviving open entry stays open.
func (s *State) Sync(ids []int64) {
	openID, hasOpen := s.Open()
	s.reset(ids, func(id int64) bool { return hasOpen && id == openID })
}

// Entries returns a copy of the entries in list order.
func (s *State) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *State) Len() int {
	return len(s.entries)
}
