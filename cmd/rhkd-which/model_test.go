package main

import (
	"hash/fnv"
	"strings"
	"testing"

	"github.com/Danondso/rhkd/internal/hotkeys"
)

// chord builds a test chord whose keysym is derived from repr, so chords
// with different names compare unequal under HasPrefix as real ones do.
func chord(repr string) hotkeys.Chord {
	h := fnv.New32a()
	h.Write([]byte(repr))
	return hotkeys.Chord{Repr: repr, Keysym: h.Sum32()}
}

func TestReachableGroupsSingleMatchShowsCommand(t *testing.T) {
	all := []hotkeys.Hotkey{
		{Chain: []hotkeys.Chord{chord("super")}, Command: "unreachable"},
		{Chain: []hotkeys.Chord{chord("super"), chord("a")}, Command: "firefox"},
	}
	groups := reachableGroups(all, []hotkeys.Chord{chord("super")})
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if groups[0].key != "a" {
		t.Errorf("key = %q, want a", groups[0].key)
	}
	if groups[0].label != "firefox" {
		t.Errorf("label = %q, want firefox", groups[0].label)
	}
}

func TestReachableGroupsPrefersTitle(t *testing.T) {
	all := []hotkeys.Hotkey{
		{Chain: []hotkeys.Chord{chord("super"), chord("a")}, Command: "firefox", Title: "Browser"},
	}
	groups := reachableGroups(all, []hotkeys.Chord{chord("super")})
	if groups[0].label != "Browser" {
		t.Errorf("label = %q, want Browser", groups[0].label)
	}
}

func TestReachableGroupsBranchesOnSharedNextChord(t *testing.T) {
	all := []hotkeys.Hotkey{
		{Chain: []hotkeys.Chord{chord("super"), chord("b"), chord("a")}, Command: "firefox"},
		{Chain: []hotkeys.Chord{chord("super"), chord("b"), chord("c")}, Command: "chrome"},
	}
	groups := reachableGroups(all, []hotkeys.Chord{chord("super")})
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if groups[0].key != "b" {
		t.Errorf("key = %q, want b", groups[0].key)
	}
	if !strings.Contains(groups[0].label, "a") || !strings.Contains(groups[0].label, "c") {
		t.Errorf("label = %q, want both continuations listed", groups[0].label)
	}
}

func TestReachableGroupsIgnoresNonPrefixedHotkeys(t *testing.T) {
	all := []hotkeys.Hotkey{
		{Chain: []hotkeys.Chord{chord("alt"), chord("tab")}, Command: "switch"},
	}
	groups := reachableGroups(all, []hotkeys.Chord{chord("super")})
	if len(groups) != 0 {
		t.Errorf("len(groups) = %d, want 0", len(groups))
	}
}

func TestReprChainJoinsWithLockAwareSeparators(t *testing.T) {
	locking := chord("super")
	locking.Lock = hotkeys.LockLocking
	chain := []hotkeys.Chord{locking, chord("a")}
	got := reprChain(chain)
	if got != "super : a" {
		t.Errorf("reprChain = %q, want %q", got, "super : a")
	}
}

func TestModelUpdateShowsAndHidesOnChainEvents(t *testing.T) {
	store := hotkeys.NewStore("")
	m := newModel(store)

	updated, _ := m.Update(chainStartedMsg{})
	m = updated.(model)
	if !m.visible {
		t.Fatal("expected visible after chainStartedMsg")
	}

	updated, _ = m.Update(hotkeyMsg{chain: []hotkeys.Chord{chord("super")}})
	m = updated.(model)
	if len(m.prefix) != 1 {
		t.Fatalf("len(prefix) = %d, want 1", len(m.prefix))
	}

	updated, _ = m.Update(chainEndedMsg{})
	m = updated.(model)
	if m.visible {
		t.Fatal("expected hidden after chainEndedMsg")
	}
}

func TestModelViewEmptyWhenHidden(t *testing.T) {
	store := hotkeys.NewStore("")
	m := newModel(store)
	if view := m.View(); view != "" {
		t.Errorf("View() = %q, want empty", view)
	}
}
