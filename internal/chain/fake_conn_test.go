package chain

import (
	"github.com/Danondso/rhkd/internal/display"
	"github.com/Danondso/rhkd/internal/events"
	"github.com/Danondso/rhkd/internal/keysym"
)

// fakeConn is a minimal in-memory display.Conn: every keysym's keycode is
// its own low byte (collision-free for the small set of test keysyms), and
// every modfield bit maps to itself as the core mask, so the Engine's own
// internal consistency is exercised without needing real X semantics.
type fakeConn struct {
	denied    map[display.Grab]bool
	grabbed   map[display.Grab]bool
	syncs     int
	replays   int
	ungrabbed int
}

func newFakeConn() *fakeConn {
	return &fakeConn{denied: make(map[display.Grab]bool), grabbed: make(map[display.Grab]bool)}
}

func (c *fakeConn) Keycodes(ks keysym.Keysym) []byte {
	return []byte{byte(ks & 0xff)}
}

func (c *fakeConn) ModifierMask(field keysym.ModField) (uint16, bool) {
	return uint16(field), true
}

func (c *fakeConn) GrabMany(grabs []display.Grab) []display.GrabResult {
	out := make([]display.GrabResult, len(grabs))
	for i, g := range grabs {
		if c.denied[g] {
			out[i] = display.GrabResult{Grab: g, Err: &display.AccessError{Keycode: g.Keycode, Modmask: g.Modmask}}
			continue
		}
		c.grabbed[g] = true
		out[i] = display.GrabResult{Grab: g}
	}
	return out
}

func (c *fakeConn) UngrabAll() {
	c.ungrabbed++
	c.grabbed = make(map[display.Grab]bool)
}

func (c *fakeConn) SyncKeyboard()   { c.syncs++ }
func (c *fakeConn) ReplayKeyboard() { c.replays++ }

func (c *fakeConn) Events() (<-chan display.KeyEvent, <-chan error) {
	return nil, nil
}

func (c *fakeConn) Close() error { return nil }

var _ display.Conn = (*fakeConn)(nil)

// captureSink records every published event for assertions.
type captureSink struct {
	events []events.Event
}

func (s *captureSink) Publish(e events.Event) bool {
	s.events = append(s.events, e)
	return true
}

func (s *captureSink) kinds() []events.Kind {
	out := make([]events.Kind, len(s.events))
	for i, e := range s.events {
		out[i] = e.Kind
	}
	return out
}
