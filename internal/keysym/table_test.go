package keysym

import "testing"

func TestLookupExactAndFolded(t *testing.T) {
	cases := []struct {
		name string
		want Keysym
	}{
		{"Return", 0xff0d},
		{"return", 0xff0d},
		{"RETURN", 0xff0d},
		{"Page_Up", 0xff55},
		{"pageup", 0xff55},
		{"a", 0x0061},
		{"F12", 0xffc9},
	}
	for _, c := range cases {
		got, ok := Lookup(c.name)
		if !ok {
			t.Errorf("Lookup(%q): not found", c.name)
			continue
		}
		if got != c.want {
			t.Errorf("Lookup(%q) = %#x, want %#x", c.name, got, c.want)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("NotAKeysym"); ok {
		t.Error("expected unknown keysym to miss")
	}
}

func TestSuggestTypo(t *testing.T) {
	got, ok := Suggest("Retrun")
	if !ok {
		t.Fatal("expected a suggestion for 'Retrun'")
	}
	if got != "Return" {
		t.Errorf("Suggest(%q) = %q, want %q", "Retrun", got, "Return")
	}
}

func TestSuggestTooFar(t *testing.T) {
	if _, ok := Suggest("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"); ok {
		t.Error("expected no suggestion for a wildly dissimilar string")
	}
}

func TestModFieldFromName(t *testing.T) {
	cases := map[string]ModField{
		"shift": ModFieldShift,
		"super": ModFieldMod4,
		"Alt":   ModFieldMod1,
		"hyper": ModFieldHyper,
	}
	for name, want := range cases {
		got, ok := ModFieldFromName(name)
		if !ok {
			t.Errorf("ModFieldFromName(%q): not found", name)
			continue
		}
		if got != want {
			t.Errorf("ModFieldFromName(%q) = %v, want %v", name, got, want)
		}
	}
	if _, ok := ModFieldFromName("bogus"); ok {
		t.Error("expected unknown modifier to miss")
	}
}

func TestMaskLocks(t *testing.T) {
	m := ModFieldShift | ModFieldLock | ModFieldControl
	masked := MaskLocks(m)
	if masked&ModFieldLock != 0 {
		t.Error("expected lock bit to be cleared")
	}
	if masked&ModFieldShift == 0 || masked&ModFieldControl == 0 {
		t.Error("expected shift and control bits to survive masking")
	}
}
