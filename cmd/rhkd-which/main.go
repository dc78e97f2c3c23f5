// Command rhkd-which is the which-key discoverability overlay: it
// subscribes to a running rhkd's event feed and shows every hotkey
// reachable from the chain prefix currently in progress.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/rhkd/internal/dsl"
	"github.com/Danondso/rhkd/internal/events"
	"github.com/Danondso/rhkd/internal/hotkeys"
	"github.com/Danondso/rhkd/internal/ipc"
	"github.com/Danondso/rhkd/internal/settings"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config-path", "", "rhkdrc path, bypassing config discovery")
	flag.Parse()

	store := hotkeys.NewStore(configPath)
	loadStore(store, configPath)

	program := tea.NewProgram(newModel(store))

	go watch(program, store, configPath)

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "rhkd-which: %v\n", err)
		os.Exit(1)
	}
}

func loadStore(store *hotkeys.Store, configPath string) {
	path := settings.ConfigPath(configPath)
	if path == "" {
		return
	}
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rhkd-which: read config %s: %v\n", path, err)
		return
	}
	hks, _ := dsl.ParseConfig(src)
	store.Replace(hks)
}

// watch dials the daemon's socket, subscribes to chain/hotkey/reload/notify
// events, and feeds them to the Bubble Tea program as they arrive,
// reconnecting on a dropped connection the same way rhkc's subscribe does.
func watch(program *tea.Program, store *hotkeys.Store, configPath string) {
	mask := events.MaskChain | events.MaskHotkey | events.MaskReload | events.MaskNotify
	for {
		conn, err := net.Dial("unix", ipc.SocketPath())
		if err != nil {
			time.Sleep(time.Second)
			continue
		}
		if _, err := conn.Write([]byte{'S', mask}); err != nil {
			conn.Close()
			time.Sleep(time.Second)
			continue
		}

		readLines(program, store, configPath, conn)
		conn.Close()
		time.Sleep(time.Second)
	}
}

func readLines(program *tea.Program, store *hotkeys.Store, configPath string, conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\n")
		if line != "" {
			dispatch(program, store, configPath, line)
		}
		if err != nil {
			return
		}
	}
}

func dispatch(program *tea.Program, store *hotkeys.Store, configPath string, line string) {
	kind, text := line[0], line[1:]
	switch kind {
	case 'B':
		program.Send(chainStartedMsg{})
	case 'E':
		program.Send(chainEndedMsg{})
	case 'H':
		chain, _ := dsl.ParseChainText([]byte(text))
		program.Send(hotkeyMsg{chain: chain})
	case 'R':
		loadStore(store, configPath)
		program.Send(reloadMsg{})
	case 'A':
		applyBindingAdded(store, text)
	case 'D':
		applyBindingRemoved(store, text)
	}
}

// applyBindingAdded keeps the overlay's local copy of the hotkey list in
// sync with binds made through rhkc, which never touch the rhkdrc file on
// disk — only the running daemon's in-memory store.
func applyBindingAdded(store *hotkeys.Store, text string) {
	reprText, command, ok := strings.Cut(text, " -> ")
	if !ok {
		return
	}
	chain, errs := dsl.ParseChainText([]byte(reprText))
	if len(chain) == 0 || len(errs) > 0 {
		return
	}
	store.Add([]hotkeys.Hotkey{{Chain: chain, Command: command}})
}

func applyBindingRemoved(store *hotkeys.Store, text string) {
	reprText, _, ok := strings.Cut(text, " -> ")
	if !ok {
		return
	}
	chain, errs := dsl.ParseChainText([]byte(reprText))
	if len(chain) == 0 || len(errs) > 0 {
		return
	}
	store.Delete(chain)
}
