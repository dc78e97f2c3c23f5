package ipc

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/Danondso/rhkd/internal/chain"
	"github.com/Danondso/rhkd/internal/dsl"
	"github.com/Danondso/rhkd/internal/events"
	"github.com/Danondso/rhkd/internal/hotkeys"
)

// writeDeadline bounds every response and subscriber push; a client that
// can't keep up is dropped rather than allowed to stall the daemon, per
// spec.md §5's "a slow subscriber is dropped rather than buffered".
const writeDeadline = 50 * time.Millisecond

// SocketPath resolves the listening path per spec.md §4.K: an explicit
// override, or one socket per X display so multiple daemons never collide.
func SocketPath() string {
	if p := os.Getenv("RHKD_SOCKET_PATH"); p != "" {
		return p
	}
	display := os.Getenv("DISPLAY")
	if i := strings.LastIndexByte(display, ':'); i >= 0 {
		display = display[i+1:]
	}
	if display == "" {
		display = "_"
	}
	return "/tmp/rhkd_socket_" + display
}

// Request is one fully-read command paired with the connection it arrived
// on, handed from a per-connection reader goroutine to the single loop
// goroutine that owns the Store and Engine. The daemon event loop selects on
// Requests() and passes whatever it receives to HandleNext without
// inspecting it further.
type Request struct {
	conn net.Conn
	cmd  Command
	err  error
}

// Server listens on one UNIX socket, reads Bind/Unbind/Subscribe commands
// off accepted connections, and fans published events out to subscribers.
// Every mutation (Bind/Unbind) and every subscriber registration happens on
// whatever goroutine calls HandleNext — the daemon event loop's single
// goroutine — so the Store and Engine are never touched concurrently; only
// the blocking read of a client's command runs on its own per-connection
// goroutine, the same split already used for X events (internal/display)
// and documented in DESIGN.md.
type Server struct {
	ln   net.Listener
	path string

	store  *hotkeys.Store
	engine *chain.Engine
	bus    *events.Bus

	requests chan Request
}

// Listen binds the socket at path (removing a stale leftover first) and
// starts the background accept loop.
func Listen(path string, store *hotkeys.Store, engine *chain.Engine, bus *events.Bus) (*Server, error) {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", path, err)
	}
	s := &Server{
		ln:       ln,
		path:     path,
		store:    store,
		engine:   engine,
		bus:      bus,
		requests: make(chan Request),
	}
	go s.acceptLoop()
	return s, nil
}

// Requests exposes the channel of fully-read client commands for the daemon
// event loop to select on.
func (s *Server) Requests() <-chan Request { return s.requests }

// Close unlinks the socket file and stops accepting new connections.
func (s *Server) Close() error {
	err := s.ln.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.readLoop(conn)
	}
}

// readLoop blocks reading exactly one command off conn and forwards it to
// the single handling goroutine. A Bind or Unbind connection is done after
// one round trip; a Subscribe connection is handed off and this goroutine
// exits, since subscribers are pushed to, never read from, again.
func (s *Server) readLoop(conn net.Conn) {
	cmd, err := readCommand(bufio.NewReader(conn))
	s.requests <- Request{conn: conn, cmd: cmd, err: err}
}

// HandleNext processes one pending request. The daemon event loop calls
// this whenever Requests() is ready.
func (s *Server) HandleNext(req Request) {
	if req.err != nil {
		_ = req.conn.Close()
		return
	}

	switch req.cmd.Kind {
	case cmdBind:
		s.handleBind(req.conn, req.cmd.Fields)
		_ = req.conn.Close()
	case cmdUnbind:
		s.handleUnbind(req.conn, req.cmd.Fields)
		_ = req.conn.Close()
	case cmdSubscribe:
		s.handleSubscribe(req.conn, req.cmd.Mask)
	default:
		_ = req.conn.Close()
	}
}

func (s *Server) handleBind(conn net.Conn, fields []string) {
	title, description, hotkeyText, commandText, overwriteFlag := fields[0], fields[1], fields[2], fields[3], fields[4]
	overwrite := overwriteFlag == "t"

	src := []byte(hotkeyText + "\n\t" + commandText + "\n")
	tokens, scanErrs := dsl.Scan(src)
	triples, buildErrs := dsl.Build(tokens)
	expanded, expandErrs := dsl.Expand(triples, src)

	var out strings.Builder
	for _, e := range scanErrs {
		fmt.Fprintf(&out, "parse error: %s\n", e.Message)
	}
	for _, e := range buildErrs {
		fmt.Fprintf(&out, "parse error: %s\n", e.Message)
	}
	for _, e := range expandErrs {
		fmt.Fprintf(&out, "parse error: %s\n", e.Message)
	}

	for _, ex := range expanded {
		for _, e := range ex.Errs {
			fmt.Fprintf(&out, "parse error: %s\n", e.Message)
		}
		if len(ex.Errs) > 0 {
			continue
		}

		hk := ex.Hotkey
		hk.Title = title
		if hk.Description == "" {
			hk.Description = description
		}

		if overwrite {
			for {
				existing, ok := s.store.Interferes(hk.Chain)
				if !ok {
					break
				}
				removed := s.engine.DeleteBindings(existing.Chain)
				for _, r := range removed {
					fmt.Fprintf(&out, "removed: %s -> %s\n", r.Repr(), r.Command)
				}
			}
		} else if existing, ok := s.store.Interferes(hk.Chain); ok {
			fmt.Fprintf(&out, "WouldInterfere: %s -> %s (new: %s -> %s)\n", existing.Repr(), existing.Command, hk.Repr(), hk.Command)
			continue
		}

		s.engine.AddBindings([]hotkeys.Hotkey{hk})
		fmt.Fprintf(&out, "added: %s -> %s\n", hk.Repr(), hk.Command)
	}

	writeResponse(conn, out.String())
}

func (s *Server) handleUnbind(conn net.Conn, fields []string) {
	prefixText := fields[0]
	prefix, errs := dsl.ParseChainText([]byte(prefixText))

	var out strings.Builder
	for _, e := range errs {
		fmt.Fprintf(&out, "parse error: %s\n", e.Message)
	}
	if len(prefix) == 0 {
		writeResponse(conn, out.String())
		return
	}

	removed := s.engine.DeleteBindings(prefix)
	if len(removed) == 0 {
		out.WriteString("no matching bindings\n")
	}
	for _, hk := range removed {
		fmt.Fprintf(&out, "removed: %s -> %s\n", hk.Repr(), hk.Command)
	}
	writeResponse(conn, out.String())
}

func (s *Server) handleSubscribe(conn net.Conn, mask byte) {
	if mask == 0 {
		writeResponse(conn, "Attempted to subscribe to 0 events\n")
		_ = conn.Close()
		return
	}
	s.bus.Add(&subscriber{conn: conn, mask: mask})
}

func writeResponse(conn net.Conn, text string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	_, _ = conn.Write([]byte(text))
}

// subscriber is an events.Sink backed by one long-lived client connection.
type subscriber struct {
	conn net.Conn
	mask byte
}

// Publish writes e's wire line if it intersects the subscribed mask.
// A write failure (or one that doesn't clear within writeDeadline) drops
// the subscriber, per spec.md §4.K.
func (sub *subscriber) Publish(e events.Event) bool {
	if e.Kind.Bits()&sub.mask == 0 {
		return true
	}
	_ = sub.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if _, err := sub.conn.Write([]byte(e.Line() + "\n")); err != nil {
		_ = sub.conn.Close()
		return false
	}
	return true
}
