package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/rhkd/internal/hotkeys"
)

var (
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00E5FF")).Bold(true)
	keyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6AC1")).Bold(true)
	cmdStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0"))
	arrowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00E5FF")).
			Padding(0, 1)
)

// chainStartedMsg arrives on KindBeginChain.
type chainStartedMsg struct{}

// chainEndedMsg arrives on KindEndChain.
type chainEndedMsg struct{}

// hotkeyMsg arrives on KindHotkey, carrying the chord chain matched so far.
type hotkeyMsg struct {
	chain []hotkeys.Chord
}

// reloadMsg arrives on KindReload; the store has already been swapped by
// the reader goroutine by the time this reaches Update.
type reloadMsg struct{}

// connErrMsg reports a fatal read-side error on the subscribe connection.
type connErrMsg struct{ err error }

// model is the Bubble Tea model for the which-key overlay: it shows every
// hotkey reachable from the chain prefix the daemon just reported, and
// hides itself the moment the chain ends.
type model struct {
	store   *hotkeys.Store
	visible bool
	prefix  []hotkeys.Chord
	quit    bool
}

func newModel(store *hotkeys.Store) model {
	return model{store: store}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quit = true
			return m, tea.Quit
		}
		return m, nil
	case chainStartedMsg:
		m.visible = true
		m.prefix = nil
		return m, nil
	case hotkeyMsg:
		m.visible = true
		m.prefix = msg.chain
		return m, nil
	case chainEndedMsg:
		m.visible = false
		m.prefix = nil
		return m, nil
	case reloadMsg:
		return m, nil
	case connErrMsg:
		m.quit = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.quit || !m.visible {
		return ""
	}

	groups := reachableGroups(m.store.Snapshot(), m.prefix)
	if len(groups) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(pathStyle.Render(reprChain(m.prefix)))
	b.WriteString("\n")
	for _, g := range groups {
		b.WriteString(keyStyle.Render(g.key))
		b.WriteString(arrowStyle.Render("  -> "))
		b.WriteString(cmdStyle.Render(g.label))
		b.WriteString("\n")
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// reachableGroup is one row of the overlay: the next chord in the chain and
// what it leads to, collapsing every hotkey sharing that next chord into a
// single row.
type reachableGroup struct {
	key   string
	label string
}

// reachableGroups mirrors the original which-key's per-continuation
// grouping: every hotkey whose chain extends prefix is bucketed by its next
// chord, in first-seen order, and each bucket becomes one displayed row.
func reachableGroups(all []hotkeys.Hotkey, prefix []hotkeys.Chord) []reachableGroup {
	depth := len(prefix)

	var order []string
	members := make(map[string][]hotkeys.Hotkey)
	for _, hk := range all {
		if len(hk.Chain) <= depth || !hk.HasPrefix(prefix) {
			continue
		}
		key := strings.TrimSpace(hk.Chain[depth].Repr)
		if _, ok := members[key]; !ok {
			order = append(order, key)
		}
		members[key] = append(members[key], hk)
	}

	groups := make([]reachableGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, reachableGroup{key: key, label: continuationLabel(members[key], depth)})
	}
	return groups
}

// continuationLabel describes what pressing this next chord leads to: the
// command (or title, if set) when exactly one hotkey matches, or a
// multi-way description when the chain branches further.
func continuationLabel(group []hotkeys.Hotkey, depth int) string {
	if len(group) == 1 {
		hk := group[0]
		if len(hk.Chain) == depth+1 {
			if hk.Title != "" {
				return hk.Title
			}
			return hk.Command
		}
		return fmt.Sprintf("%s : %s", reprChain(hk.Chain[depth+1:]), hk.Command)
	}

	for _, hk := range group {
		if hk.Title != "" {
			return hk.Title
		}
	}

	var next []string
	for _, hk := range group {
		if len(hk.Chain) > depth+1 {
			next = append(next, strings.TrimSpace(hk.Chain[depth+1].Repr))
		}
	}
	if len(next) == 0 {
		return "..."
	}
	return strings.Join(next, " | ")
}

// reprChain joins a chord slice the same way hotkeys.Hotkey.Repr does, for
// chain fragments that don't come attached to a full Hotkey.
func reprChain(chain []hotkeys.Chord) string {
	var b strings.Builder
	for i, c := range chain {
		if i > 0 {
			if chain[i-1].Lock == hotkeys.LockLocking {
				b.WriteString(" : ")
			} else {
				b.WriteString(" ; ")
			}
		}
		b.WriteString(c.Repr)
	}
	return b.String()
}
