// Package keysym provides the static X keysym name↔code table (spec.md
// §4.A) and a bounded fuzzy lookup used to produce "did you mean" hints on
// unrecognised names.
package keysym

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Keysym is the numeric X keysym identifier for a key.
type Keysym uint32

// maxSuggestDistance bounds the fuzzy lookup: anything further than this
// many edits is not considered a plausible typo, per spec.md §4.A
// ("early-exit at edit distance > 3").
const maxSuggestDistance = 3

// names holds a representative slice of the ~2300-entry upstream X keysym
// table (common letters, digits, function keys, punctuation, and the
// navigation/editing block) — see DESIGN.md for why the full enumeration
// from original_source/src/keyboard/keysyms.rs is not transcribed verbatim.
var names = map[string]Keysym{
	"space": 0x0020, "exclam": 0x0021, "quotedbl": 0x0022, "numbersign": 0x0023,
	"dollar": 0x0024, "percent": 0x0025, "ampersand": 0x0026, "apostrophe": 0x0027,
	"parenleft": 0x0028, "parenright": 0x0029, "asterisk": 0x002a, "plus": 0x002b,
	"comma": 0x002c, "minus": 0x002d, "period": 0x002e, "slash": 0x002f,
	"0": 0x0030, "1": 0x0031, "2": 0x0032, "3": 0x0033, "4": 0x0034,
	"5": 0x0035, "6": 0x0036, "7": 0x0037, "8": 0x0038, "9": 0x0039,
	"colon": 0x003a, "semicolon": 0x003b, "less": 0x003c, "equal": 0x003d,
	"greater": 0x003e, "question": 0x003f, "at": 0x0040,
	"bracketleft": 0x005b, "backslash": 0x005c, "bracketright": 0x005d,
	"asciicircum": 0x005e, "underscore": 0x005f, "grave": 0x0060,
	"braceleft": 0x007b, "bar": 0x007c, "braceright": 0x007d, "asciitilde": 0x007e,

	"a": 0x0061, "b": 0x0062, "c": 0x0063, "d": 0x0064, "e": 0x0065,
	"f": 0x0066, "g": 0x0067, "h": 0x0068, "i": 0x0069, "j": 0x006a,
	"k": 0x006b, "l": 0x006c, "m": 0x006d, "n": 0x006e, "o": 0x006f,
	"p": 0x0070, "q": 0x0071, "r": 0x0072, "s": 0x0073, "t": 0x0074,
	"u": 0x0075, "v": 0x0076, "w": 0x0077, "x": 0x0078, "y": 0x0079, "z": 0x007a,

	"BackSpace": 0xff08, "Tab": 0xff09, "Linefeed": 0xff0a, "Clear": 0xff0b,
	"Return": 0xff0d, "Pause": 0xff13, "Scroll_Lock": 0xff14, "Sys_Req": 0xff15,
	"Escape": 0xff1b, "Delete": 0xffff,

	"Home": 0xff50, "Left": 0xff51, "Up": 0xff52, "Right": 0xff53, "Down": 0xff54,
	"Prior": 0xff55, "Page_Up": 0xff55, "Next": 0xff56, "Page_Down": 0xff56,
	"End": 0xff57, "Begin": 0xff58, "Insert": 0xff63,

	"Num_Lock": 0xff7f,
	"KP_Space": 0xff80, "KP_Tab": 0xff89, "KP_Enter": 0xff8d,
	"KP_F1": 0xff91, "KP_F2": 0xff92, "KP_F3": 0xff93, "KP_F4": 0xff94,
	"KP_Home": 0xff95, "KP_Left": 0xff96, "KP_Up": 0xff97, "KP_Right": 0xff98,
	"KP_Down": 0xff99, "KP_Prior": 0xff9a, "KP_Next": 0xff9b, "KP_End": 0xff9c,
	"KP_Begin": 0xff9d, "KP_Insert": 0xff9e, "KP_Delete": 0xff9f,
	"KP_Multiply": 0xffaa, "KP_Add": 0xffab, "KP_Separator": 0xffac,
	"KP_Subtract": 0xffad, "KP_Decimal": 0xffae, "KP_Divide": 0xffaf,
	"KP_0": 0xffb0, "KP_1": 0xffb1, "KP_2": 0xffb2, "KP_3": 0xffb3, "KP_4": 0xffb4,
	"KP_5": 0xffb5, "KP_6": 0xffb6, "KP_7": 0xffb7, "KP_8": 0xffb8, "KP_9": 0xffb9,

	"F1": 0xffbe, "F2": 0xffbf, "F3": 0xffc0, "F4": 0xffc1, "F5": 0xffc2,
	"F6": 0xffc3, "F7": 0xffc4, "F8": 0xffc5, "F9": 0xffc6, "F10": 0xffc7,
	"F11": 0xffc8, "F12": 0xffc9, "F13": 0xffca, "F14": 0xffcb, "F15": 0xffcc,
	"F16": 0xffcd, "F17": 0xffce, "F18": 0xffcf, "F19": 0xffd0, "F20": 0xffd1,
	"F21": 0xffd2, "F22": 0xffd3, "F23": 0xffd4, "F24": 0xffd5,

	"Shift_L": 0xffe1, "Shift_R": 0xffe2, "Control_L": 0xffe3, "Control_R": 0xffe4,
	"Caps_Lock": 0xffe5, "Shift_Lock": 0xffe6,
	"Meta_L": 0xffe7, "Meta_R": 0xffe8, "Alt_L": 0xffe9, "Alt_R": 0xffea,
	"Super_L": 0xffeb, "Super_R": 0xffec, "Hyper_L": 0xffed, "Hyper_R": 0xffee,

	"Print": 0xff61, "Menu": 0xff67, "Help": 0xff6a,
	"Mode_switch": 0xff7e,
}

// canonical maps a case/underscore-folded key back to the name as stored
// in names, so exact lookups tolerate the common "RETURN"/"return" style
// variance seen in hand-written configs.
var canonical map[string]string

func init() {
	canonical = make(map[string]string, len(names))
	for n := range names {
		canonical[fold(n)] = n
	}
}

func fold(s string) string {
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", "")
}

// Lookup resolves a keysym name to its numeric code. The match is
// case-insensitive and underscore-insensitive, matching how sxhkd-style
// configs mix "Return"/"return" and "Page_Up"/"pageup" freely.
func Lookup(name string) (Keysym, bool) {
	if canon, ok := canonical[fold(name)]; ok {
		return names[canon], true
	}
	return 0, false
}

// Suggest returns the closest known keysym name to an unrecognised input,
// using case-folded, underscore-insensitive Levenshtein distance bounded at
// maxSuggestDistance, per spec.md §4.A. It returns ("", false) if nothing
// within the bound is found.
func Suggest(name string) (string, bool) {
	target := fold(name)
	best := ""
	bestDist := maxSuggestDistance + 1
	for folded, canon := range canonical {
		d := levenshtein.Distance(target, folded, nil)
		if d < bestDist {
			bestDist = d
			best = canon
		}
	}
	if bestDist > maxSuggestDistance {
		return "", false
	}
	return best, true
}

// Modifier names recognised by the facade, per spec.md §4.A ("a parallel
// list of 15 recognised modifier names").
const (
	ModShift      = "shift"
	ModControl    = "control"
	ModCtrl       = "ctrl"
	ModAlt        = "alt"
	ModSuper      = "super"
	ModHyper      = "hyper"
	ModMeta       = "meta"
	ModModeSwitch = "mode_switch"
	ModMod1       = "mod1"
	ModMod2       = "mod2"
	ModMod3       = "mod3"
	ModMod4       = "mod4"
	ModMod5       = "mod5"
	ModLock       = "lock"
	ModAny        = "any"
)

// ModNames lists every recognised modifier name, in a stable order, for
// fuzzy-suggestion purposes.
var ModNames = []string{
	ModShift, ModControl, ModCtrl, ModAlt, ModSuper, ModHyper, ModMeta,
	ModModeSwitch, ModMod1, ModMod2, ModMod3, ModMod4, ModMod5, ModLock, ModAny,
}

// ModField is the bitmask of modifiers a chord requires, matching the X
// protocol's own 8-bit modifier field (shift=1, lock=2, control=4, mod1..mod5
// = 8..128) plus a few virtual bits above bit 8 for modifiers the X server
// doesn't natively separate. "super" resolves straight to mod4 (as "alt"
// does to mod1); hyper, meta and mode_switch keep virtual bits of their own
// until the facade resolves them against the live modifier map.
type ModField uint32

const (
	ModFieldShift ModField = 1 << iota
	ModFieldLock
	ModFieldControl
	ModFieldMod1
	ModFieldMod2
	ModFieldMod3
	ModFieldMod4
	ModFieldMod5
	ModFieldSuper
	ModFieldHyper
	ModFieldMeta
	ModFieldModeSwitch
	ModFieldAny
)

// ModFieldFromName resolves one modifier name to its bit, or (0, false) if
// unrecognised.
func ModFieldFromName(name string) (ModField, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ModShift:
		return ModFieldShift, true
	case ModControl, ModCtrl:
		return ModFieldControl, true
	case ModAlt, ModMod1:
		return ModFieldMod1, true
	case ModMod2:
		return ModFieldMod2, true
	case ModMod3:
		return ModFieldMod3, true
	case ModSuper, ModMod4:
		return ModFieldMod4, true
	case ModMod5:
		return ModFieldMod5, true
	case ModHyper:
		return ModFieldHyper, true
	case ModMeta:
		return ModFieldMeta, true
	case ModModeSwitch:
		return ModFieldModeSwitch, true
	case ModLock:
		return ModFieldLock, true
	case ModAny:
		return ModFieldAny, true
	default:
		return 0, false
	}
}

// MaskLocks clears the caps/num/scroll-lock bits from an observed modifier
// field before comparison, per spec.md §4.L ("mask = !(numlock|scrolllock|
// caps) & 0xFF"). Num_Lock and Scroll_Lock are not part of the X protocol's
// 8-bit core modifier field, so only the Lock (caps) bit is actually
// present to strip at this layer; num/scroll are stripped by the facade
// before the ModField ever reaches the chain engine, using the live
// modifier mapping it resolved at connect time.
func MaskLocks(m ModField) ModField {
	return m &^ ModFieldLock
}
