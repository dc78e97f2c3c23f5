package dsl

import (
	"testing"

	"github.com/Danondso/rhkd/internal/hotkeys"
)

func expandSrc(t *testing.T, src string) []Expanded {
	t.Helper()
	b := []byte(src)
	tokens, serrs := Scan(b)
	if len(serrs) != 0 {
		t.Fatalf("scan errors: %v", serrs)
	}
	triples, berrs := Build(tokens)
	if len(berrs) != 0 {
		t.Fatalf("build errors: %v", berrs)
	}
	out, eerrs := Expand(triples, b)
	if len(eerrs) != 0 {
		t.Fatalf("expand errors: %v", eerrs)
	}
	return out
}

func TestExpandPlainBinding(t *testing.T) {
	out := expandSrc(t, "super + Return\n\tfoot\n")
	if len(out) != 1 {
		t.Fatalf("got %d hotkeys, want 1", len(out))
	}
	hk := out[0].Hotkey
	if len(hk.Chain) != 1 {
		t.Fatalf("got %d chords, want 1", len(hk.Chain))
	}
	if hk.Command != "foot" {
		t.Errorf("command = %q, want %q", hk.Command, "foot")
	}
}

func TestExpandDirectionGroup(t *testing.T) {
	out := expandSrc(t, "super + {h,j,k,l}\n\twmctrl -x {left,down,up,right}\n")
	if len(out) != 4 {
		t.Fatalf("got %d hotkeys, want 4", len(out))
	}
	wantCmds := []string{
		"wmctrl -x left", "wmctrl -x down", "wmctrl -x up", "wmctrl -x right",
	}
	for i, hk := range out {
		if hk.Hotkey.Command != wantCmds[i] {
			t.Errorf("hotkey %d command = %q, want %q", i, hk.Hotkey.Command, wantCmds[i])
		}
	}
}

// TestExpandChainWithRangeGroup exercises the two-group chain binding
// described in the expander's worked example: a 2-alternative chord group
// chained to a 3-alternative range group must produce exactly 2*3 = 6
// hotkeys, enumerated back-first.
func TestExpandChainWithRangeGroup(t *testing.T) {
	out := expandSrc(t, "super + {space,shift + space} : {1-3}\n\techo go\n")
	if len(out) != 6 {
		t.Fatalf("got %d hotkeys, want 6", len(out))
	}
	for _, hk := range out {
		if len(hk.Hotkey.Chain) != 2 {
			t.Fatalf("chain length = %d, want 2", len(hk.Hotkey.Chain))
		}
		if hk.Hotkey.Command != "echo go" {
			t.Errorf("command = %q, want %q", hk.Hotkey.Command, "echo go")
		}
	}
}

func TestExpandUnderscorePlaceholderDropped(t *testing.T) {
	out := expandSrc(t, "super + {_,shift} + a\n\techo {normal,shifted}\n")
	if len(out) != 2 {
		t.Fatalf("got %d hotkeys, want 2", len(out))
	}
	if out[0].Hotkey.Command != "echo normal" {
		t.Errorf("command = %q, want %q", out[0].Hotkey.Command, "echo normal")
	}
}

func TestExpandSyncCommand(t *testing.T) {
	out := expandSrc(t, "super + r\n\t; rofi -show run\n")
	if len(out) != 1 {
		t.Fatalf("got %d hotkeys, want 1", len(out))
	}
	if !out[0].Hotkey.Sync {
		t.Error("expected Sync to be true for a ';'-prefixed command")
	}
	if out[0].Hotkey.Command != "rofi -show run" {
		t.Errorf("command = %q, want %q", out[0].Hotkey.Command, "rofi -show run")
	}
}

func TestExpandEscapedMetacharSurvives(t *testing.T) {
	out := expandSrc(t, "super + a\n\techo a\\{b\\}\n")
	if len(out) != 1 {
		t.Fatalf("got %d hotkeys, want 1", len(out))
	}
	if out[0].Hotkey.Command != "echo a{b}" {
		t.Errorf("command = %q, want %q", out[0].Hotkey.Command, "echo a{b}")
	}
}

func TestExpandModifierAndKeysymResolved(t *testing.T) {
	out := expandSrc(t, "super + shift + Return\n\tfoot\n")
	if len(out) != 1 {
		t.Fatalf("got %d hotkeys, want 1", len(out))
	}
	chord := out[0].Hotkey.Chain[0]
	if chord.Keysym == 0 {
		t.Error("expected Return to resolve to a nonzero keysym")
	}
	if chord.Modfield == 0 {
		t.Error("expected super+shift to resolve to a nonzero modfield")
	}
}

func TestExpandReleaseEvent(t *testing.T) {
	out := expandSrc(t, "super + @a\n\techo release\n")
	if len(out) != 1 {
		t.Fatalf("got %d hotkeys, want 1", len(out))
	}
	if out[0].Hotkey.Chain[0].EventType != hotkeys.EventRelease {
		t.Errorf("EventType = %v, want EventRelease", out[0].Hotkey.Chain[0].EventType)
	}
}

func TestExpandCycleBinding(t *testing.T) {
	out := expandSrc(t, "super + n\n\t{firefox,chromium,foot}\n")
	if len(out) != 3 {
		t.Fatalf("got %d hotkeys, want 3", len(out))
	}
	for i, hk := range out {
		if hk.Hotkey.Cycle == nil {
			t.Fatalf("hotkey %d: expected a Cycle to be attached", i)
		}
		if hk.Hotkey.Cycle.Period != len(out) {
			t.Errorf("hotkey %d: cycle period = %d, want %d", i, hk.Hotkey.Cycle.Period, len(out))
		}
		if hk.Hotkey.Cycle.Delay != i {
			t.Errorf("hotkey %d: cycle delay = %d, want %d", i, hk.Hotkey.Cycle.Delay, i)
		}
	}
}
