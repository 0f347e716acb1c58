package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/wasm-aot/aot"
	"github.com/wippyai/wasm-aot/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type funcEntry struct {
	name string
	sig  string
	body string
}

type inspectModel struct {
	filename string
	funcs    []funcEntry
	selected int
	view     viewport.Model
	width    int
	height   int
}

// runInteractive compiles the module and opens a TUI browsing the IR of
// each compiled function.
func runInteractive(wasmFile string, level aot.OptLevel, gas, count, interrupt, generic bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	text, mod, err := compile(wasmFile, level, gas, count, interrupt, generic)
	if err != nil {
		return err
	}

	m := inspectModel{
		filename: wasmFile,
		funcs:    splitFunctions(text, mod),
		view:     viewport.New(80, 20),
	}
	if len(m.funcs) > 0 {
		m.view.SetContent(m.funcs[0].body)
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// splitFunctions carves the module text into per-definition chunks keyed by
// the f{i}/t{j} symbol names.
func splitFunctions(text string, mod *wasm.Module) []funcEntry {
	var out []funcEntry
	blocks := strings.Split(text, "\n\n")
	for _, b := range blocks {
		if !strings.HasPrefix(b, "define ") {
			continue
		}
		name := defineName(b)
		out = append(out, funcEntry{
			name: name,
			sig:  firstLine(b),
			body: b,
		})
	}
	return out
}

func defineName(block string) string {
	at := strings.Index(block, "@")
	if at < 0 {
		return "?"
	}
	rest := block[at+1:]
	end := strings.IndexAny(rest, "( ")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

func firstLine(block string) string {
	if i := strings.IndexByte(block, '\n'); i >= 0 {
		return block[:i]
	}
	return block
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width - 30
		m.view.Height = msg.Height - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.view.SetContent(m.funcs[m.selected].body)
				m.view.GotoTop()
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.funcs)-1 {
				m.selected++
				m.view.SetContent(m.funcs[m.selected].body)
				m.view.GotoTop()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m inspectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("wasmc — " + m.filename))
	b.WriteString("\n\n")

	var list strings.Builder
	for i, f := range m.funcs {
		line := f.name
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + line))
		} else {
			list.WriteString(funcStyle.Render("  " + line))
		}
		list.WriteByte('\n')
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(26).Render(list.String()),
		m.view.View())
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select function · pgup/pgdn scroll IR · q quit"))
	return b.String()
}
