package decider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/bump"
)

// Prompt asks the user to pick an increment in the terminal. Decisions
// with a single candidate are accepted without asking.
type Prompt struct {
	in  io.Reader
	out io.Writer
}

// NewPrompt creates a Prompt reading from in and drawing to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: in, out: out}
}

// Decide runs the prompt until the user confirms or aborts.
// Aborting returns domain.ErrDecisionAborted.
func (p *Prompt) Decide(ctx context.Context, d domain.Decision) (domain.Increment, error) {
	if len(d.Candidates) == 1 {
		return d.Candidates[0], nil
	}
	if err := ctx.Err(); err != nil {
		return domain.NoIncrement, err
	}

	program := tea.NewProgram(
		newPromptModel(d),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := program.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.NoIncrement, ctxErr
	}
	if err != nil {
		return domain.NoIncrement, fmt.Errorf("prompt failed: %w", err)
	}

	result, ok := final.(promptModel)
	if !ok || !result.chosen {
		return domain.NoIncrement, fmt.Errorf("%w: %s", domain.ErrDecisionAborted, d.Name)
	}
	return result.selected(), nil
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Abort   key.Binding
}

var defaultKeys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Abort: key.NewBinding(
		key.WithKeys("esc", "ctrl+c", "q"),
		key.WithHelp("esc", "abort"),
	),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6BCB77"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4D96FF"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// promptModel is the bubbletea model of a single decision.
type promptModel struct {
	decision domain.Decision
	keys     keyMap
	cursor   int
	chosen   bool
}

func newPromptModel(d domain.Decision) promptModel {
	return promptModel{decision: d, keys: defaultKeys}
}

func (m promptModel) Init() tea.Cmd {
	return nil
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Abort):
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.decision.Candidates)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Confirm):
		m.chosen = true
		return m, tea.Quit
	}
	return m, nil
}

func (m promptModel) View() string {
	if m.chosen {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Select version for %s", m.decision.Name)))
	b.WriteString("\n\n")
	for i, inc := range m.decision.Candidates {
		line := fmt.Sprintf("%s (%s)", label(inc), bump.Bump(m.decision.Version, inc))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf("%s • %s • %s",
		m.keys.Down.Help().Key+"/"+m.keys.Up.Help().Key,
		m.keys.Confirm.Help().Key+" "+m.keys.Confirm.Help().Desc,
		m.keys.Abort.Help().Key+" "+m.keys.Abort.Help().Desc,
	)))
	b.WriteString("\n")
	return b.String()
}

func (m promptModel) selected() domain.Increment {
	return m.decision.Candidates[m.cursor]
}

// label names an increment for display; no increment keeps the current version.
func label(inc domain.Increment) string {
	if !inc.Present() {
		return "current"
	}
	return inc.String()
}
