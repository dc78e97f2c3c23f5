// Command rhkc is the companion IPC client: a thin argv-driven tool that
// binds, unbinds, and subscribes against a running rhkd over its UNIX
// socket, per spec.md §4.K's wire protocol.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/Danondso/rhkd/internal/events"
	"github.com/Danondso/rhkd/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "bind":
		runBind(os.Args[2:])
	case "unbind":
		runUnbind(os.Args[2:])
	case "subscribe":
		runSubscribe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: rhkc bind [-title T] [-description D] [-overwrite] <hotkey> <command>")
	fmt.Fprintln(os.Stderr, "       rhkc unbind <hotkey-prefix>")
	fmt.Fprintln(os.Stderr, "       rhkc subscribe [-events notify,reload,errors,timeout,chain,hotkey,command,all] [-reconnect]")
}

func runBind(args []string) {
	fs := flag.NewFlagSet("bind", flag.ExitOnError)
	title := fs.String("title", "", "binding title")
	description := fs.String("description", "", "binding description")
	overwrite := fs.Bool("overwrite", false, "remove interfering bindings before adding this one")
	quiet := fs.Bool("quiet", false, "don't print rhkd's response")
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 2 {
		usage()
		os.Exit(2)
	}
	hotkeyText, commandText := rest[0], rest[1]

	conn := dial()
	defer conn.Close()

	var payload []byte
	payload = append(payload, 'B')
	for _, f := range []string{*title, *description, hotkeyText, commandText, overwriteFlag(*overwrite)} {
		payload = append(payload, f...)
		payload = append(payload, 0)
	}
	if _, err := conn.Write(payload); err != nil {
		fmt.Fprintf(os.Stderr, "rhkc: write: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		_, _ = io.Copy(os.Stdout, conn)
	}
}

func runUnbind(args []string) {
	fs := flag.NewFlagSet("unbind", flag.ExitOnError)
	quiet := fs.Bool("quiet", false, "don't print rhkd's response")
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 1 {
		usage()
		os.Exit(2)
	}

	conn := dial()
	defer conn.Close()

	payload := append([]byte{'U'}, rest[0]...)
	payload = append(payload, 0)
	if _, err := conn.Write(payload); err != nil {
		fmt.Fprintf(os.Stderr, "rhkc: write: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		_, _ = io.Copy(os.Stdout, conn)
	}
}

func runSubscribe(args []string) {
	fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
	eventsFlag := fs.String("events", "all", "comma-separated event list")
	reconnect := fs.Bool("reconnect", false, "automatically reconnect if the connection drops")
	_ = fs.Parse(args)

	mask, err := parseMask(*eventsFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rhkc:", err)
		os.Exit(2)
	}

	conn := dial()
	for {
		if _, err := conn.Write([]byte{'S', mask}); err != nil {
			fmt.Fprintf(os.Stderr, "rhkc: write: %v\n", err)
			os.Exit(1)
		}

		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if line != "" {
				fmt.Print(line)
			}
			if err != nil {
				break
			}
		}
		conn.Close()

		if !*reconnect {
			return
		}
		fmt.Fprintln(os.Stderr, "rhkc: connection broken, reconnecting...")
		time.Sleep(time.Second)
		conn = dial()
	}
}

func dial() net.Conn {
	conn, err := net.Dial("unix", ipc.SocketPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rhkc: connect %s: %v\n", ipc.SocketPath(), err)
		os.Exit(1)
	}
	return conn
}

func overwriteFlag(b bool) string {
	if b {
		return "t"
	}
	return "f"
}

func parseMask(spec string) (byte, error) {
	var mask byte
	for _, name := range strings.Split(spec, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "notify", "notifications":
			mask |= events.MaskNotify
		case "reload":
			mask |= events.MaskReload
		case "errors":
			mask |= events.MaskErrors
		case "timeout":
			mask |= events.MaskTimeout
		case "chain":
			mask |= events.MaskChain
		case "hotkey":
			mask |= events.MaskHotkey
		case "command":
			mask |= events.MaskCommand
		case "all":
			mask |= events.MaskAll
		default:
			return 0, fmt.Errorf("unknown event name %q", name)
		}
	}
	return mask, nil
}
