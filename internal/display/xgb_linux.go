//go:build linux

package display

import (
	"fmt"
	"os"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/Danondso/rhkd/internal/hotkeys"
	"github.com/Danondso/rhkd/internal/keysym"
)

// xgbConn is the real Conn, backed by a connection to the display named by
// $DISPLAY.
type xgbConn struct {
	conn *xgb.Conn
	root xproto.Window

	setup       *xproto.SetupInfo
	keyboardMin xproto.Keycode
	keyboardMax xproto.Keycode
	keysymsPer  byte
	keysyms     []xproto.Keysym // flattened, keyboardMin..keyboardMax

	// modKeycodes maps each of the 8 core modifier slots to the keycodes
	// the live modifier mapping assigns it, so "super" (usually mod4)
	// resolves correctly even on layouts that remap it.
	modKeycodes [8][]xproto.Keycode

	// lockMask is every core modifier bit that must be stripped from an
	// observed KeyEvent.Modfield before it is matched against a grab: the
	// protocol's own Lock (caps) bit plus whichever live mod1..mod5 bits
	// Num_Lock and Scroll_Lock happen to be bound to, resolved once from
	// the modifier mapping fetched at connect time.
	lockMask uint16

	eventsOnce sync.Once
	events     chan KeyEvent
	errs       chan error
}

// Open connects to the display named by $DISPLAY and caches the keyboard
// and modifier mappings needed to resolve keysym names into grabs.
func Open() (Conn, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("display: DISPLAY is not set")
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("display: connect: %w", err)
	}

	c := &xgbConn{conn: conn, setup: xproto.Setup(conn)}
	screen := c.setup.DefaultScreen(conn)
	c.root = screen.Root
	c.keyboardMin = c.setup.MinKeycode
	c.keyboardMax = c.setup.MaxKeycode

	if err := c.loadKeyboardMapping(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.loadModifierMapping(); err != nil {
		conn.Close()
		return nil, err
	}
	c.lockMask = xproto.ModMaskLock | c.liveLockBit(numLockKeysym) | c.liveLockBit(scrollLockKeysym)
	return c, nil
}

// numLockKeysym and scrollLockKeysym are the keysyms GetModifierMapping's
// keycodes are checked against to find whichever mod1..mod5 bit the running
// X server happens to have assigned them to; neither lock key occupies a
// fixed slot the way the core Shift/Control/Lock bits do.
const (
	numLockKeysym    = keysym.Keysym(0xff7f)
	scrollLockKeysym = keysym.Keysym(0xff14)
)

// liveLockBit resolves ks to the live mod1..mod5 bit it's bound to, or 0 if
// the keysym isn't currently mapped to any modifier slot at all (e.g. no
// Scroll_Lock key on the keyboard) — unlike liveModMaskFor, there is no
// sensible fallback bit to guess here, since masking the wrong one would
// silently break unrelated hotkeys.
func (c *xgbConn) liveLockBit(ks keysym.Keysym) uint16 {
	for _, kc := range c.Keycodes(ks) {
		if bit, ok := c.modBitForKeycode(xproto.Keycode(kc)); ok {
			return modBitMask(bit)
		}
	}
	return 0
}

func (c *xgbConn) loadKeyboardMapping() error {
	count := byte(c.keyboardMax - c.keyboardMin + 1)
	reply, err := xproto.GetKeyboardMapping(c.conn, c.keyboardMin, count).Reply()
	if err != nil {
		return fmt.Errorf("display: get keyboard mapping: %w", err)
	}
	c.keysymsPer = reply.KeysymsPerKeycode
	c.keysyms = reply.Keysyms
	return nil
}

func (c *xgbConn) loadModifierMapping() error {
	reply, err := xproto.GetModifierMapping(c.conn).Reply()
	if err != nil {
		return fmt.Errorf("display: get modifier mapping: %w", err)
	}
	per := int(reply.KeycodesPerModifier)
	for i := 0; i < 8; i++ {
		start := i * per
		end := start + per
		if end > len(reply.Keycodes) {
			end = len(reply.Keycodes)
		}
		var kcs []xproto.Keycode
		for _, kc := range reply.Keycodes[start:end] {
			if kc != 0 {
				kcs = append(kcs, kc)
			}
		}
		c.modKeycodes[i] = kcs
	}
	return nil
}

func (c *xgbConn) Keycodes(ks keysym.Keysym) []byte {
	var out []byte
	per := int(c.keysymsPer)
	if per == 0 {
		return out
	}
	for kc := c.keyboardMin; kc <= c.keyboardMax; kc++ {
		idx := int(kc-c.keyboardMin) * per
		for j := 0; j < per && idx+j < len(c.keysyms); j++ {
			if xproto.Keysym(ks) == c.keysyms[idx+j] {
				out = append(out, byte(kc))
				break
			}
		}
	}
	return out
}

// modBitForKeycode reports which of the 8 core modifier slots (shift=0,
// lock=1, control=2, mod1..mod5=3..7) a keycode was assigned to, if any.
func (c *xgbConn) modBitForKeycode(kc xproto.Keycode) (int, bool) {
	for i, kcs := range c.modKeycodes {
		for _, candidate := range kcs {
			if candidate == kc {
				return i, true
			}
		}
	}
	return 0, false
}

func (c *xgbConn) ModifierMask(field keysym.ModField) (uint16, bool) {
	switch field {
	case keysym.ModFieldShift:
		return xproto.ModMaskShift, true
	case keysym.ModFieldLock:
		return xproto.ModMaskLock, true
	case keysym.ModFieldControl:
		return xproto.ModMaskControl, true
	case keysym.ModFieldMod1:
		return xproto.ModMask1, true
	case keysym.ModFieldMod2:
		return xproto.ModMask2, true
	case keysym.ModFieldMod3:
		return xproto.ModMask3, true
	case keysym.ModFieldMod4:
		return xproto.ModMask4, true
	case keysym.ModFieldMod5:
		return xproto.ModMask5, true
	case keysym.ModFieldAny:
		return xproto.ModMaskAny, true
	case keysym.ModFieldSuper:
		return c.liveModMaskFor(keysym.Keysym(0xffeb), xproto.ModMask4) // Super_L, fall back to mod4
	case keysym.ModFieldHyper:
		return c.liveModMaskFor(keysym.Keysym(0xffed), xproto.ModMask4) // Hyper_L
	case keysym.ModFieldMeta:
		return c.liveModMaskFor(keysym.Keysym(0xffe7), xproto.ModMask1) // Meta_L
	case keysym.ModFieldModeSwitch:
		return c.liveModMaskFor(keysym.Keysym(0xff7e), xproto.ModMask5) // Mode_switch
	default:
		return 0, false
	}
}

// liveModMaskFor resolves a virtual modifier to whichever core mod1..mod5
// bit the live keyboard mapping actually assigned its keysym to, falling
// back to a conventional default when the keysym isn't currently mapped to
// any modifier slot at all.
func (c *xgbConn) liveModMaskFor(ks keysym.Keysym, fallback uint16) (uint16, bool) {
	for _, kc := range c.Keycodes(ks) {
		if bit, ok := c.modBitForKeycode(xproto.Keycode(kc)); ok {
			return modBitMask(bit), true
		}
	}
	return fallback, true
}

func modBitMask(bit int) uint16 {
	masks := []uint16{
		xproto.ModMaskShift, xproto.ModMaskLock, xproto.ModMaskControl,
		xproto.ModMask1, xproto.ModMask2, xproto.ModMask3, xproto.ModMask4, xproto.ModMask5,
	}
	if bit < 0 || bit >= len(masks) {
		return 0
	}
	return masks[bit]
}

func (c *xgbConn) GrabMany(grabs []Grab) []GrabResult {
	results := make([]GrabResult, len(grabs))
	cookies := make([]xproto.VoidCookie, len(grabs))
	for i, g := range grabs {
		cookies[i] = xproto.GrabKeyChecked(c.conn, true, c.root, g.Modmask,
			xproto.Keycode(g.Keycode), xproto.GrabModeAsync, xproto.GrabModeAsync)
	}
	for i, cookie := range cookies {
		if err := cookie.Check(); err != nil {
			results[i] = GrabResult{Grab: grabs[i], Err: classifyGrabError(grabs[i], err)}
		} else {
			results[i] = GrabResult{Grab: grabs[i]}
		}
	}
	return results
}

func classifyGrabError(g Grab, err error) error {
	if _, ok := err.(xproto.AccessError); ok {
		return &AccessError{Keycode: g.Keycode, Modmask: g.Modmask}
	}
	return err
}

func (c *xgbConn) UngrabAll() {
	xproto.UngrabKey(c.conn, xproto.GrabAny, c.root, xproto.ModMaskAny)
}

func (c *xgbConn) SyncKeyboard() {
	xproto.AllowEvents(c.conn, xproto.AllowSyncKeyboard, xproto.TimeCurrentTime)
}

func (c *xgbConn) ReplayKeyboard() {
	xproto.AllowEvents(c.conn, xproto.AllowReplayKeyboard, xproto.TimeCurrentTime)
}

// Events starts a single background goroutine that blocks in
// WaitForEvent and republishes every key press/release onto a channel,
// pairing resetti's xgb-to-channel funneling idiom with this package's own
// Conn interface.
func (c *xgbConn) Events() (<-chan KeyEvent, <-chan error) {
	c.eventsOnce.Do(func() {
		c.events = make(chan KeyEvent, 16)
		c.errs = make(chan error, 1)
		go c.pump()
	})
	return c.events, c.errs
}

func (c *xgbConn) pump() {
	for {
		ev, err := c.conn.WaitForEvent()
		if err != nil {
			c.errs <- fmt.Errorf("display: wait for event: %w", err)
			return
		}
		if ev == nil {
			c.errs <- fmt.Errorf("display: connection closed")
			return
		}
		kev, ok := c.decode(ev)
		if !ok {
			continue
		}
		c.events <- kev
	}
}

func (c *xgbConn) decode(ev xgb.Event) (KeyEvent, bool) {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		return KeyEvent{Keycode: byte(e.Detail), Modfield: e.State &^ c.lockMask & 0xff, EventType: hotkeys.EventPress}, true
	case xproto.KeyReleaseEvent:
		return KeyEvent{Keycode: byte(e.Detail), Modfield: e.State &^ c.lockMask & 0xff, EventType: hotkeys.EventRelease}, true
	default:
		return KeyEvent{}, false
	}
}

func (c *xgbConn) Close() error {
	c.conn.Close()
	return nil
}
