// Command rhkd is the hotkey daemon: it owns the X keyboard grab, parses the
// rhkdrc DSL, and drives hotkey execution through the event loop.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Danondso/rhkd/internal/chain"
	"github.com/Danondso/rhkd/internal/chime"
	"github.com/Danondso/rhkd/internal/daemon"
	"github.com/Danondso/rhkd/internal/display"
	"github.com/Danondso/rhkd/internal/dsl"
	"github.com/Danondso/rhkd/internal/events"
	"github.com/Danondso/rhkd/internal/executor"
	"github.com/Danondso/rhkd/internal/fifo"
	"github.com/Danondso/rhkd/internal/hotkeys"
	"github.com/Danondso/rhkd/internal/ipc"
	"github.com/Danondso/rhkd/internal/keysym"
	"github.com/Danondso/rhkd/internal/settings"
)

func main() {
	var abortKeysymName, redirFile, statusFifo, configPath string
	var timeoutSec, count int
	var debug bool

	for _, name := range []string{"a", "abort-keysym"} {
		flag.StringVar(&abortKeysymName, name, "", "abort keysym name (default Escape)")
	}
	for _, name := range []string{"r", "redir-file"} {
		flag.StringVar(&redirFile, name, "", "redirect command stdout/stderr to this file")
	}
	for _, name := range []string{"t", "timeout"} {
		flag.IntVar(&timeoutSec, name, 0, "chain inactivity timeout in seconds (default 3)")
	}
	for _, name := range []string{"m", "count"} {
		flag.IntVar(&count, name, 0, "reserved")
	}
	for _, name := range []string{"s", "status-fifo"} {
		flag.StringVar(&statusFifo, name, "", "legacy status FIFO path")
	}
	for _, name := range []string{"c", "config-path"} {
		flag.StringVar(&configPath, name, "", "rhkdrc path, bypassing config discovery")
	}
	flag.BoolVar(&debug, "debug", false, "enable debug logging to stderr")
	flag.Parse()

	var dbg *log.Logger
	if debug {
		dbg = log.New(os.Stderr, "[rhkd] ", log.Ltime|log.Lmicroseconds)
	} else {
		dbg = log.New(io.Discard, "", 0)
	}

	cfg, err := settings.Load(settings.DefaultPath())
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}
	if abortKeysymName != "" {
		cfg.AbortKeysym = abortKeysymName
	}
	if redirFile != "" {
		cfg.RedirFile = redirFile
	}
	if timeoutSec != 0 {
		cfg.TimeoutSec = timeoutSec
	}
	if statusFifo != "" {
		cfg.StatusFifo = statusFifo
	}

	if os.Getenv("DISPLAY") == "" {
		log.Fatal("DISPLAY is not set")
	}

	abortKeysym, ok := keysym.Lookup(cfg.AbortKeysym)
	if !ok {
		log.Fatalf("unknown abort keysym %q", cfg.AbortKeysym)
	}

	rcPath := settings.ConfigPath(configPath)
	var src []byte
	if rcPath != "" {
		src, err = os.ReadFile(rcPath)
		if err != nil {
			log.Fatalf("read config %s: %v", rcPath, err)
		}
	} else {
		dbg.Printf("no rhkdrc found, starting with no bindings")
	}

	hks, parseErrs := dsl.ParseConfig(src)
	for _, e := range parseErrs {
		dbg.Printf("config: %s", e.Error())
	}
	store := hotkeys.NewStore(rcPath)
	store.Replace(hks)
	dbg.Printf("loaded %d hotkeys from %s", len(hks), rcPath)

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "bash"
	}
	exec, err := executor.New(shell, cfg.RedirFile)
	if err != nil {
		log.Fatalf("create executor: %v", err)
	}
	defer exec.Close()

	bus := events.NewBus()

	if cfg.StatusFifo != "" {
		fifoSink, err := fifo.Open(cfg.StatusFifo)
		if err != nil {
			log.Fatalf("open status fifo %s: %v", cfg.StatusFifo, err)
		}
		defer fifoSink.Close()
		bus.Add(fifoSink)
	}

	chimePlayer, err := chime.New("", "", "", cfg.Chime, dbg)
	if err != nil {
		log.Fatalf("create chime player: %v", err)
	}
	bus.Add(chimePlayer)

	conn, err := display.Open()
	if err != nil {
		log.Fatalf("open display: %v", err)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	engine := chain.New(conn, store, exec, bus, uint32(abortKeysym), timeout)

	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = ipc.SocketPath()
	}
	server, err := ipc.Listen(socketPath, store, engine, bus)
	if err != nil {
		log.Fatalf("listen on %s: %v", socketPath, err)
	}

	onReload := func() error {
		path := settings.ConfigPath(configPath)
		if path == "" {
			return nil
		}
		src, err := os.ReadFile(path)
		if err != nil {
			bus.Publish(events.Event{Kind: events.KindError, Text: fmt.Sprintf("reload: %v", err)})
			return err
		}
		hks, errs := dsl.ParseConfig(src)
		for _, e := range errs {
			bus.Publish(events.Event{Kind: events.KindError, Text: e.Error()})
		}
		engine.Reload(hks)
		return nil
	}

	dbg.Printf("listening on %s, abort keysym %s, timeout %s", socketPath, cfg.AbortKeysym, timeout)

	loop := daemon.New(conn, engine, server, onReload)
	if err := loop.Run(); err != nil {
		log.Fatalf("event loop: %v", err)
	}
}
