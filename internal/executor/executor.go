// Package executor runs hotkey commands via the user's shell, matching
// spec.md §4.I: fire-and-forget by default, optionally synchronous, with
// stdout/stderr redirected to a configured file when present.
package executor

import (
	"fmt"
	"os"
	"os/exec"
)

// Executor spawns commands through $SHELL -c, the way the Chain Engine's
// terminal-match step (§4.G step 11) demands.
type Executor struct {
	shell     string
	redirect  *os.File
}

// New creates an Executor. shell defaults to "bash" if empty, matching
// spec.md §6's environment table. redirectPath, if non-empty, is opened
// once and shared by every child's stdout/stderr.
func New(shell, redirectPath string) (*Executor, error) {
	if shell == "" {
		shell = "bash"
	}
	e := &Executor{shell: shell}
	if redirectPath != "" {
		f, err := os.OpenFile(redirectPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("executor: open redirect file: %w", err)
		}
		e.redirect = f
	}
	return e, nil
}

// Close releases the redirect file, if one was opened.
func (e *Executor) Close() error {
	if e.redirect == nil {
		return nil
	}
	return e.redirect.Close()
}

// Run spawns $SHELL -c command. If sync is true it waits for the child to
// exit before returning; otherwise it reaps the child asynchronously and
// returns immediately. Execution errors are returned to the caller, who is
// expected to publish them as Error events rather than treat them as
// fatal, per spec.md §4.I.
func (e *Executor) Run(command string, sync bool) error {
	cmd := exec.Command(e.shell, "-c", command)
	cmd.Stdin = nil
	if e.redirect != nil {
		cmd.Stdout = e.redirect
		cmd.Stderr = e.redirect
	}

	if sync {
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("executor: run %q: %w", command, err)
		}
		return nil
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("executor: start %q: %w", command, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
