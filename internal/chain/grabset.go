package chain

import (
	"errors"

	"github.com/Danondso/rhkd/internal/display"
	"github.com/Danondso/rhkd/internal/events"
	"github.com/Danondso/rhkd/internal/keysym"
)

// grabKey identifies one grabbed (keycode, modmask) pair on the root window.
type grabKey struct {
	Keycode byte
	Modmask uint16
}

// grabInfo is what a grabbed key resolves back to: the virtual keysym and
// modfield the binding was written against, recovered by the event loop
// without needing a keycode-to-keysym reverse lookup of its own.
type grabInfo struct {
	Keysym   uint32
	Modfield uint32
}

// regrab implements the Grabset Manager, spec.md §4.H: ungrab everything,
// then re-grab the prescribed set in one batched call.
func (e *Engine) regrab() {
	e.conn.UngrabAll()
	e.grabs = make(map[grabKey]grabInfo)

	if !e.grabbingEnabled {
		return
	}

	type request struct {
		grab display.Grab
		repr string
	}
	var requests []request
	seen := make(map[grabKey]bool)

	add := func(ks uint32, mf uint32, repr string) {
		mask, ok := e.resolveModmask(mf)
		if !ok {
			return
		}
		for _, kc := range e.conn.Keycodes(keysym.Keysym(ks)) {
			key := grabKey{Keycode: kc, Modmask: mask}
			e.grabs[key] = grabInfo{Keysym: ks, Modfield: mf}
			if seen[key] {
				continue
			}
			seen[key] = true
			requests = append(requests, request{grab: display.Grab{Keycode: kc, Modmask: mask}, repr: repr})
		}
	}

	snap := e.store.Snapshot()

	if !e.locked {
		for _, hk := range snap {
			if len(hk.Chain) == 0 {
				continue
			}
			c := hk.Chain[0]
			add(c.Keysym, c.Modfield, hk.Repr())
		}
	}

	if len(e.chain) > 0 {
		add(e.abortKeysym, 0, "abort")

		depth := len(e.chain)
		for _, hk := range snap {
			if len(hk.Chain) <= depth {
				continue
			}
			matches := true
			for j := 0; j < depth; j++ {
				if !hk.MatchesAt(j, e.chain[j].Keysym, e.chain[j].Modfield, e.chain[j].EventType) {
					matches = false
					break
				}
			}
			if !matches {
				continue
			}
			c := hk.Chain[depth]
			add(c.Keysym, c.Modfield, hk.Repr())
		}
	}

	grabs := make([]display.Grab, len(requests))
	for i, r := range requests {
		grabs[i] = r.grab
	}
	results := e.conn.GrabMany(grabs)
	for i, res := range results {
		if res.Err == nil {
			continue
		}
		var accessErr *display.AccessError
		if errors.As(res.Err, &accessErr) {
			repr := requests[i].repr
			if e.reportedAccess[repr] {
				continue
			}
			e.reportedAccess[repr] = true
			e.bus.Publish(events.Event{Kind: events.KindError, Text: "grab denied for " + repr + ": " + res.Err.Error()})
			continue
		}
		e.bus.Publish(events.Event{Kind: events.KindError, Text: res.Err.Error()})
	}
}

// resolveModmask converts a parsed virtual modfield (possibly combining
// several keysym.ModField bits, including the ones the X protocol doesn't
// natively separate) into the 16-bit core modmask GrabKey expects.
func (e *Engine) resolveModmask(mf uint32) (uint16, bool) {
	if mf == 0 {
		return 0, true
	}
	var mask uint16
	for bit := uint32(1); bit != 0 && bit <= uint32(keysym.ModFieldAny); bit <<= 1 {
		if mf&bit == 0 {
			continue
		}
		m, ok := e.conn.ModifierMask(keysym.ModField(bit))
		if !ok {
			return 0, false
		}
		mask |= m
	}
	return mask, true
}
