// Package display implements the Keyboard Facade: the X11 connection,
// keysym-to-keycode resolution, batched grab/ungrab, and the sync/replay
// primitives the Chain Engine drives to recognise hotkeys.
package display

import (
	"fmt"

	"github.com/Danondso/rhkd/internal/hotkeys"
	"github.com/Danondso/rhkd/internal/keysym"
)

// Grab is one (keycode, modmask) pair to batch-grab or batch-ungrab.
type Grab struct {
	Keycode byte
	Modmask uint16
}

// GrabResult reports the outcome of one entry in a batched grab call.
type GrabResult struct {
	Grab Grab
	Err  error
}

// AccessError means another client already holds this keycode/modmask
// combination; callers should warn once per repr, not once per keycode.
type AccessError struct {
	Keycode byte
	Modmask uint16
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("keycode %d modmask %#x already grabbed by another client", e.Keycode, e.Modmask)
}

// KeyEvent is one observed press or release, with the modifier field
// already reduced to the 8-bit core X modifier mask.
type KeyEvent struct {
	Keycode   byte
	Modfield  uint16
	EventType hotkeys.EventType
}

// Conn is the facade the Chain Engine and Grabset Manager depend on. The
// real implementation (xgb_linux.go) talks to an X server over
// github.com/jezek/xgb; fakeConn in display_test.go exercises the same
// interface in memory so the rest of the package never needs a live
// display to test against.
type Conn interface {
	// Keycodes returns every physical key mapped to ks, empty if unmapped.
	Keycodes(ks keysym.Keysym) []byte
	// ModifierMask resolves a virtual ModField (which may alias a live
	// mod1..mod5 bit, e.g. super commonly means mod4) to the X protocol's
	// 8-bit core modifier mask. Reports false for an unrecognised field.
	ModifierMask(field keysym.ModField) (uint16, bool)

	// GrabMany issues one batched XGrabKey round trip for every entry.
	GrabMany(grabs []Grab) []GrabResult
	// UngrabAll releases every grab currently held on the root window.
	UngrabAll()

	// SyncKeyboard unblocks the frozen keyboard, replaying nothing.
	SyncKeyboard()
	// ReplayKeyboard unblocks the frozen keyboard, replaying the event to
	// whichever client would otherwise have received it.
	ReplayKeyboard()

	// Events starts (once) a background reader draining the connection and
	// returns the channels it publishes onto. The event loop selects over
	// these alongside IPC and signal channels, the Go-idiomatic analogue
	// of multiplexing a raw keyboard file descriptor.
	Events() (<-chan KeyEvent, <-chan error)

	Close() error
}

// MaskLocks clears the num-lock/scroll-lock/caps-lock bits from an observed
// modifier field before comparison, per the event loop's documented
// masking rule. Only the core protocol's Lock (caps) bit lives in the
// 8-bit field itself; num/scroll are resolved against the live modifier
// mapping by the concrete Conn before a KeyEvent is ever produced, so this
// is the single remaining mask applied uniformly to every observed event.
func MaskLocks(m uint16) uint16 {
	return m &^ uint16(keysym.ModFieldLock)
}
