package hotkeys

import "testing"

func chord(ks uint32, mf uint32) Chord {
	return Chord{Keysym: ks, Modfield: mf, EventType: EventPress, Lock: LockOnce}
}

func TestStoreAddDelete(t *testing.T) {
	s := NewStore("/tmp/rc")
	s.Replace([]Hotkey{
		{Chain: []Chord{chord(1, 2)}, Command: "a"},
		{Chain: []Chord{chord(3, 4)}, Command: "b"},
	})
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	removed := s.Delete([]Chord{chord(1, 2)})
	if len(removed) != 1 || removed[0].Command != "a" {
		t.Fatalf("removed = %v, want [a]", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("len after delete = %d, want 1", s.Len())
	}
}

func TestStoreInterferes(t *testing.T) {
	s := NewStore("/tmp/rc")
	s.Replace([]Hotkey{{Chain: []Chord{chord(1, 2)}, Command: "a"}})
	if _, ok := s.Interferes([]Chord{chord(1, 2)}); !ok {
		t.Fatal("expected interference with an identical chain")
	}
	if _, ok := s.Interferes([]Chord{chord(9, 9)}); ok {
		t.Fatal("expected no interference with a distinct chain")
	}
}

func TestStoreMatchPrefix(t *testing.T) {
	s := NewStore("/tmp/rc")
	s.Replace([]Hotkey{
		{Chain: []Chord{chord(1, 2), chord(3, 4)}, Command: "a"},
		{Chain: []Chord{chord(1, 2), chord(5, 6)}, Command: "b"},
		{Chain: []Chord{chord(9, 9)}, Command: "c"},
	})
	matches := s.MatchPrefix([]Chord{chord(1, 2)})
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
}

func TestStoreRotateCycle(t *testing.T) {
	s := NewStore("/tmp/rc")
	if s.CyclePos(0) != 0 {
		t.Fatalf("initial cycle pos = %d, want 0", s.CyclePos(0))
	}
	s.RotateCycle(0, 3)
	s.RotateCycle(0, 3)
	if s.CyclePos(0) != 2 {
		t.Fatalf("cycle pos = %d, want 2", s.CyclePos(0))
	}
	s.RotateCycle(0, 3)
	if s.CyclePos(0) != 0 {
		t.Fatalf("cycle pos after wrap = %d, want 0", s.CyclePos(0))
	}
}
