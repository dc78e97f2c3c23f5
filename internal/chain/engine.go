// Package chain implements the Chain Engine: the per-key state machine that
// turns observed X key events into matched hotkeys, drives the grabset, and
// executes commands.
package chain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Danondso/rhkd/internal/display"
	"github.com/Danondso/rhkd/internal/events"
	"github.com/Danondso/rhkd/internal/executor"
	"github.com/Danondso/rhkd/internal/hotkeys"
)

// entry is one tentatively or durably pushed link of the active chain. It
// carries only what matching needs; display text for published events comes
// from the matched candidate's own Chord.Repr, not from entry.
type entry struct {
	Keysym    uint32
	Modfield  uint32
	EventType hotkeys.EventType
	Locking   bool
}

// Engine owns the active ChainState and drives it against the Config Store,
// the Keyboard Facade, and the Executor.
type Engine struct {
	conn  display.Conn
	store *hotkeys.Store
	exec  *executor.Executor
	bus   *events.Bus

	abortKeysym uint32
	timeoutDur  time.Duration
	timer       *time.Timer

	grabbingEnabled bool
	grabs           map[grabKey]grabInfo
	reportedAccess  map[string]bool

	chain  []entry
	locked bool
}

// New creates an Engine with an empty chain and a fully grabbed index-0
// grabset.
func New(conn display.Conn, store *hotkeys.Store, exec *executor.Executor, bus *events.Bus, abortKeysym uint32, timeoutDur time.Duration) *Engine {
	e := &Engine{
		conn:            conn,
		store:           store,
		exec:            exec,
		bus:             bus,
		abortKeysym:     abortKeysym,
		timeoutDur:      timeoutDur,
		grabbingEnabled: true,
		reportedAccess:  make(map[string]bool),
	}
	e.regrab()
	return e
}

// TimeoutC returns the channel of the currently scheduled inactivity timer,
// or nil when no timeout is pending. The daemon event loop re-reads this
// every iteration so a select always observes the live timer, per spec.md
// §4.G step 15.
func (e *Engine) TimeoutC() <-chan time.Time {
	if e.timer == nil {
		return nil
	}
	return e.timer.C
}

func (e *Engine) cancelTimeout() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) rescheduleTimeout() {
	e.cancelTimeout()
	if e.timeoutDur > 0 {
		e.timer = time.NewTimer(e.timeoutDur)
	}
}

// HandleKey drives the per-key state machine, spec.md §4.G.
func (e *Engine) HandleKey(observed display.KeyEvent) {
	if observed.EventType == hotkeys.EventPress {
		e.cancelTimeout()
	}

	modfield := uint32(display.MaskLocks(observed.Modfield))
	resolved, ok := e.grabs[grabKey{Keycode: observed.Keycode, Modmask: uint16(modfield)}]
	if !ok {
		return
	}

	origEmpty := len(e.chain) == 0

	if len(e.chain) > 0 && resolved.Keysym == e.abortKeysym && resolved.Modfield == 0 {
		e.chain = nil
		e.locked = false
		e.bus.Publish(events.Event{Kind: events.KindEndChain})
		e.conn.SyncKeyboard()
		e.regrab()
		return
	}

	priorLen := len(e.chain)
	e.chain = append(e.chain, entry{Keysym: resolved.Keysym, Modfield: resolved.Modfield, EventType: observed.EventType})

	candidates := e.matchCandidates(e.chain)

	if len(candidates) == 0 && priorLen > 0 && !e.locked {
		e.bus.Publish(events.Event{Kind: events.KindEndChain})
		e.chain = []entry{e.chain[len(e.chain)-1]}
		candidates = e.matchCandidates(e.chain)
	}

	if len(candidates) == 0 {
		e.chain = e.chain[:len(e.chain)-1]
		e.conn.SyncKeyboard()
		e.rescheduleTimeout()
		return
	}

	depth := len(e.chain)
	e.bus.Publish(events.Event{Kind: events.KindHotkey, Text: reprPrefix(candidates[0].Chain, depth)})

	for i := 0; i < depth; i++ {
		e.chain[i].Locking = anyLocksAt(candidates, i)
	}
	if anyReplaysAt(candidates, depth-1) {
		e.conn.ReplayKeyboard()
	} else {
		e.conn.SyncKeyboard()
	}

	// Steps 10-12 only pop the stack once a terminal has actually fired;
	// a key that merely extends an incomplete chain (no terminal at this
	// depth yet) stays pushed, awaiting the next key, per the chain's
	// whole purpose of recognising multi-key sequences.
	terminals := terminalsOf(candidates, depth)
	if len(terminals) > 0 {
		e.runTerminal(terminals)

		wasNonEmpty := len(e.chain) > 0
		for len(e.chain) > 0 && !e.chain[len(e.chain)-1].Locking {
			e.chain = e.chain[:len(e.chain)-1]
		}
		if len(e.chain) == 0 && wasNonEmpty {
			e.bus.Publish(events.Event{Kind: events.KindEndChain})
		}
	}
	e.locked = len(e.chain) > 0 && e.chain[len(e.chain)-1].Locking

	e.regrab()

	if origEmpty && len(e.chain) > 0 {
		e.bus.Publish(events.Event{Kind: events.KindBeginChain})
	}

	if len(e.chain) > 0 && !e.locked {
		e.rescheduleTimeout()
	} else {
		e.cancelTimeout()
	}
}

// runTerminal resolves which of possibly several terminal candidates fires
// (picking the current cycle slot for a cycle family, warning once on a
// genuine ambiguous binding otherwise), executes it, and rotates the cycle.
func (e *Engine) runTerminal(terminals []hotkeys.Hotkey) {
	if terminals[0].Cycle == nil {
		if len(terminals) > 1 {
			e.bus.Publish(events.Event{Kind: events.KindError, Text: fmt.Sprintf("ambiguous binding: %s matches %d commands", terminals[0].Repr(), len(terminals))})
		}
		e.execute(terminals[0])
		return
	}

	sort.Slice(terminals, func(i, j int) bool { return terminals[i].Cycle.Delay < terminals[j].Cycle.Delay })

	groupStart := -1
	for _, t := range terminals {
		if t.Cycle.Delay == 0 {
			groupStart = e.store.IndexOf(t)
			break
		}
	}
	if groupStart < 0 {
		groupStart = e.store.IndexOf(terminals[0])
	}

	period := len(terminals)
	pos := e.store.CyclePos(groupStart) % period
	e.execute(terminals[pos])
	e.store.RotateCycle(groupStart, period)
}

func (e *Engine) execute(hk hotkeys.Hotkey) {
	e.bus.Publish(events.Event{Kind: events.KindCommand, Text: hk.Command})
	if err := e.exec.Run(hk.Command, hk.Sync); err != nil {
		e.bus.Publish(events.Event{Kind: events.KindError, Text: err.Error()})
	}
}

// HandleTimeout fires when no progress has been made within the configured
// timeout, per spec.md §4.G's Timeout paragraph.
func (e *Engine) HandleTimeout() {
	e.bus.Publish(events.Event{Kind: events.KindTimeout})
	e.chain = nil
	e.locked = false
	e.timer = nil
	e.regrab()
	e.bus.Publish(events.Event{Kind: events.KindEndChain})
}

// Reload swaps in a freshly parsed hotkey list, resets the chain, and
// regrabs from scratch.
func (e *Engine) Reload(hks []hotkeys.Hotkey) {
	e.store.Replace(hks)
	e.chain = nil
	e.locked = false
	e.cancelTimeout()
	e.regrab()
	e.bus.Publish(events.Event{Kind: events.KindReload})
}

// ToggleGrab flips whether the daemon currently intercepts any keys at all.
func (e *Engine) ToggleGrab() {
	e.grabbingEnabled = !e.grabbingEnabled
	e.regrab()
}

// AddBindings appends new hotkeys (already expanded and deduplicated by the
// caller) and publishes a BindingAdded event per added hotkey.
func (e *Engine) AddBindings(hks []hotkeys.Hotkey) {
	e.store.Add(hks)
	// Published before regrab so a subscriber's view of what changed always
	// precedes its view of the grabset actually changing, per spec.md §5's
	// ordering guarantee.
	for _, hk := range hks {
		e.bus.Publish(events.Event{Kind: events.KindBindingAdded, Text: hk.Repr() + " -> " + hk.Command})
	}
	e.regrab()
}

// DeleteBindings removes every hotkey whose chain relaxed-matches prefix,
// publishing a BindingRemoved event per removed hotkey.
func (e *Engine) DeleteBindings(prefix []hotkeys.Chord) []hotkeys.Hotkey {
	removed := e.store.Delete(prefix)
	for _, hk := range removed {
		e.bus.Publish(events.Event{Kind: events.KindBindingRemoved, Text: hk.Repr() + " -> " + hk.Command})
	}
	e.regrab()
	return removed
}

func (e *Engine) matchCandidates(chain []entry) []hotkeys.Hotkey {
	chords := make([]hotkeys.Chord, len(chain))
	for i, en := range chain {
		chords[i] = hotkeys.Chord{Keysym: en.Keysym, Modfield: en.Modfield, EventType: en.EventType}
	}
	return e.store.MatchPrefix(chords)
}

func anyLocksAt(candidates []hotkeys.Hotkey, i int) bool {
	for _, c := range candidates {
		if i < len(c.Chain) && c.Chain[i].Lock == hotkeys.LockLocking {
			return true
		}
	}
	return false
}

func anyReplaysAt(candidates []hotkeys.Hotkey, i int) bool {
	for _, c := range candidates {
		if i < len(c.Chain) && c.Chain[i].Replay == hotkeys.ReplayReplay {
			return true
		}
	}
	return false
}

func terminalsOf(candidates []hotkeys.Hotkey, depth int) []hotkeys.Hotkey {
	var out []hotkeys.Hotkey
	for _, c := range candidates {
		if len(c.Chain) == depth {
			out = append(out, c)
		}
	}
	return out
}

// reprPrefix joins the first n chord reprs of chain the way Hotkey.Repr
// joins a whole chain, for the Hotkey event's matched-prefix text.
func reprPrefix(chain []hotkeys.Chord, n int) string {
	var b strings.Builder
	for i := 0; i < n && i < len(chain); i++ {
		if i > 0 {
			if chain[i-1].Lock == hotkeys.LockLocking {
				b.WriteString(" : ")
			} else {
				b.WriteString(" ; ")
			}
		}
		b.WriteString(chain[i].Repr)
	}
	return b.String()
}
