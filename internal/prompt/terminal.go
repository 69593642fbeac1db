package prompt

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Terminal prompts on an interactive terminal with tab completion.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminal prompts on stdin and stdout
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

func (t *Terminal) SelectMode(ctx context.Context) (Mode, error) {
	m := newLineModel("Choose a search mode:\n  1) caption search over detected scenes\n  2) ask the video model", "1 or 2", nil)
	m.validate = func(s string) error {
		_, err := ParseMode(s)
		return err
	}

	value, err := t.run(ctx, m)
	if err != nil {
		return 0, err
	}
	return ParseMode(value)
}

func (t *Terminal) Query(ctx context.Context, label string, vocabulary []string) (string, error) {
	m := newLineModel(label, "type and press tab to complete", vocabulary)
	m.validate = func(s string) error {
		if s == "" {
			return errors.New("query cannot be empty")
		}
		return nil
	}
	return t.run(ctx, m)
}

func (t *Terminal) run(ctx context.Context, m lineModel) (string, error) {
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(t.In),
		tea.WithOutput(t.Out),
	)

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}

	result := final.(lineModel)
	if result.aborted {
		return "", ErrAborted
	}
	return result.value, nil
}

type lineModel struct {
	title      string
	input      textinput.Model
	vocabulary []string
	validate   func(string) error

	value   string
	errMsg  string
	done    bool
	aborted bool
}

func newLineModel(title, placeholder string, vocabulary []string) lineModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.ShowSuggestions = len(vocabulary) > 0
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	return lineModel{
		title:      title,
		input:      ti,
		vocabulary: vocabulary,
	}
}

func (m lineModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m lineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			value := strings.TrimSpace(m.input.Value())
			if m.validate != nil {
				if err := m.validate(value); err != nil {
					m.errMsg = err.Error()
					return m, nil
				}
			}
			m.value = value
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.ShowSuggestions {
		m.input.SetSuggestions(completions(m.input.Value(), m.vocabulary))
	}
	m.errMsg = ""
	return m, cmd
}

func (m lineModel) View() string {
	if m.done || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.title)
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString("  ! ")
		b.WriteString(m.errMsg)
		b.WriteString("\n")
	}
	b.WriteString("\n  enter: confirm  tab: complete  esc: cancel\n")
	return b.String()
}
