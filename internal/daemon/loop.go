// Package daemon implements the Event Loop: the single goroutine that owns
// the Chain Engine and multiplexes X key events, IPC requests, timeouts, and
// signals, per spec.md §4.L and §5.
package daemon

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/Danondso/rhkd/internal/chain"
	"github.com/Danondso/rhkd/internal/display"
	"github.com/Danondso/rhkd/internal/ipc"
)

// Loop ties the Keyboard Facade, the Chain Engine, and the IPC Server
// together into spec.md §4.L's single-threaded select.
type Loop struct {
	conn   display.Conn
	engine *chain.Engine
	ipc    *ipc.Server

	onReload func() error

	sigReload chan os.Signal
	sigToggle chan os.Signal
	sigTerm   chan os.Signal
}

// New builds a Loop. onReload is invoked on SIGUSR1 and is expected to parse
// the config file from disk and call engine.Reload itself — the loop has no
// opinion on where the config lives.
func New(conn display.Conn, engine *chain.Engine, server *ipc.Server, onReload func() error) *Loop {
	return &Loop{
		conn:     conn,
		engine:   engine,
		ipc:      server,
		onReload: onReload,
	}
}

// Run blocks until a terminate signal arrives or the keyboard connection
// reports a fatal error, then releases the keyboard and the socket and
// returns. A non-nil error means the loop exited because of a reader
// failure, not a clean SIGINT/SIGTERM.
func (l *Loop) Run() error {
	l.sigReload = make(chan os.Signal, 1)
	l.sigToggle = make(chan os.Signal, 1)
	l.sigTerm = make(chan os.Signal, 1)
	signal.Notify(l.sigReload, unix.SIGUSR1)
	signal.Notify(l.sigToggle, unix.SIGUSR2)
	signal.Notify(l.sigTerm, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(l.sigReload)
	defer signal.Stop(l.sigToggle)
	defer signal.Stop(l.sigTerm)

	keyEvents, keyErrs := l.conn.Events()

	for {
		// select has no native notion of priority, so the fixed order spec.md
		// §4.L demands on EINTR (terminate, timeout, reload, toggle-grab) is
		// enforced by draining each higher-priority channel non-blockingly
		// before falling through to the blocking select below — the channel
		// equivalent of checking four atomic flags in order.
		select {
		case <-l.sigTerm:
			return l.shutdown()
		default:
		}
		select {
		case <-l.engine.TimeoutC():
			l.engine.HandleTimeout()
			continue
		default:
		}
		select {
		case <-l.sigReload:
			l.reload()
			continue
		default:
		}
		select {
		case <-l.sigToggle:
			l.engine.ToggleGrab()
			continue
		default:
		}

		select {
		case <-l.sigTerm:
			return l.shutdown()
		case ev := <-keyEvents:
			l.engine.HandleKey(ev)
		case err := <-keyErrs:
			if err != nil {
				l.shutdown()
				return err
			}
		case req := <-l.ipc.Requests():
			l.ipc.HandleNext(req)
		case <-l.engine.TimeoutC():
			l.engine.HandleTimeout()
		case <-l.sigReload:
			l.reload()
		case <-l.sigToggle:
			l.engine.ToggleGrab()
		}
	}
}

func (l *Loop) reload() {
	if l.onReload == nil {
		return
	}
	// onReload is responsible for publishing its own error event with parse
	// detail and for leaving the existing bindings untouched on failure; the
	// loop itself never tears a working daemon down over a bad config edit.
	_ = l.onReload()
}

func (l *Loop) shutdown() error {
	l.conn.UngrabAll()
	l.conn.SyncKeyboard()
	_ = l.ipc.Close()
	return l.conn.Close()
}
