package selection

import (
	"testing"
	"testing/quick"
)

func openIDs(s *State) []int64 {
	var ids []int64
	for _, e := range s.Entries() {
		if e.IsOpen {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func TestNewStartsClosed(t *testing.T) {
	s := New([]int64{1, 2, 3, 2})
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if ids := openIDs(s); len(ids) != 0 {
		t.Errorf("open ids = %v, want none", ids)
	}
	if _, ok := s.Open(); ok {
		t.Error("Open() reported an open entry")
	}
}

func TestToggleScenario(t *testing.T) {
	s := New([]int64{1, 2, 3})

	s.Toggle(2)
	if ids := openIDs(s); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("after toggle(2) open = %v, want [2]", ids)
	}

	s.Toggle(2)
	if ids := openIDs(s); len(ids) != 0 {
		t.Fatalf("after second toggle(2) open = %v, want none", ids)
	}

	s.Toggle(1)
	s.Toggle(3)
	if ids := openIDs(s); len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("after toggle(1), toggle(3) open = %v, want [3]", ids)
	}
	if !s.IsOpen(3) || s.IsOpen(1) {
		t.Errorf("IsOpen(3) = %v, IsOpen(1) = %v", s.IsOpen(3), s.IsOpen(1))
	}
}

func TestToggleUnknownIsNoop(t *testing.T) {
	s := New([]int64{1, 2})
	s.Toggle(1)

	if s.Toggle(99) {
		t.Error("Toggle(99) reported found")
	}
	if ids := openIDs(s); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("open = %v, want [1]", ids)
	}
	if s.IsOpen(99) {
		t.Error("IsOpen(99) = true for unknown id")
	}
}

func TestToggleOtherThenBack(t *testing.T) {
	s := New([]int64{10, 20})
	s.Toggle(10)
	s.Toggle(20)
	if !s.IsOpen(20) || s.IsOpen(10) {
		t.Fatalf("after A then B: open = %v, want [20]", openIDs(s))
	}
	s.Toggle(10)
	if !s.IsOpen(10) || s.IsOpen(20) {
		t.Fatalf("after B then A: open = %v, want [10]", openIDs(s))
	}
}

func TestAtMostOneOpenProperty(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5, 6}

	property := func(clicks []uint8) bool {
		s := New(ids)
		for _, c := range clicks {
			// Includes ids outside the list.
			s.Toggle(int64(c % 9))
			if len(openIDs(s)) > 1 {
				return false
			}
		}
		return true
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 1000}); err != nil {
		t.Error(err)
	}
}

func TestToggleMatchesModel(t *testing.T) {
	ids := []int64{1, 2, 3, 4}

	property := func(clicks []uint8) bool {
		s := New(ids)
		var open int64 = -1
		for _, c := range clicks {
			id := int64(c%4) + 1
			s.Toggle(id)
			if open == id {
				open = -1
			} else {
				open = id
			}
			got, ok := s.Open()
			if open == -1 && ok {
				return false
			}
			if open != -1 && (!ok || got != open) {
				return false
			}
		}
		return true
	}

	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestSync(t *testing.T) {
	s := New([]int64{1, 2, 3})
	s.Toggle(2)

	s.Sync([]int64{4, 2, 5})
	entries := s.Entries()
	want := []Entry{{ID: 4}, {ID: 2, IsOpen: true}, {ID: 5}}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v, want %+v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}

	s.Sync([]int64{4, 5})
	if _, ok := s.Open(); ok {
		t.Error("open entry survived removal of its id")
	}
	if s.IsOpen(1) || s.Len() != 2 {
		t.Errorf("unexpected state after second sync: %+v", s.Entries())
	}
}
