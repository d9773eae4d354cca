// Package prompt asks the operator for answers, verification codes and passwords in the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"easyapply-engine/internal/domain"
	"easyapply-engine/internal/resolver"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	jobStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).PaddingLeft(2)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

// Terminal prompts on a TTY. One prompt is shown at a time.
type Terminal struct {
	In  io.Reader // defaults to os.Stdin
	Out io.Writer // defaults to os.Stdout

	mu sync.Mutex
}

// Prompt implements resolver.Prompter. An empty entry or esc means "no value".
func (t *Terminal) Prompt(ctx context.Context, q resolver.Question) (resolver.Reply, error) {
	in, err := t.ask(ctx, renderQuestion(q), "type an answer", false)
	if err != nil {
		return resolver.Reply{}, err
	}
	if in == "" {
		return resolver.Reply{}, nil
	}
	return resolver.Reply{Value: pickOptions(q.Field, in), Source: domain.SourcePrompt}, nil
}

// PIN implements auth.PINSource.
func (t *Terminal) PIN(ctx context.Context) (string, error) {
	pin, err := t.ask(ctx, titleStyle.Render("Verification code")+"\n"+hintStyle.Render("check your email for the code the site just sent"), "123456", false)
	if err != nil {
		return "", err
	}
	if pin == "" {
		return "", errors.New("no verification code entered")
	}
	return pin, nil
}

// Password reads a secret without echoing it.
func (t *Terminal) Password(ctx context.Context, label string) (string, error) {
	return t.ask(ctx, titleStyle.Render(label), "", true)
}

func (t *Terminal) ask(ctx context.Context, header, placeholder string, secret bool) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	in, out := t.In, t.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	p := tea.NewProgram(newModel(header, placeholder, secret),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("prompt: %w", err)
	}
	m := final.(model)
	if m.interrupted {
		return "", context.Canceled
	}
	if m.dismissed {
		return "", nil
	}
	return strings.TrimSpace(m.input.Value()), nil
}

type model struct {
	header      string
	input       textinput.Model
	done        bool
	dismissed   bool
	interrupted bool
}

func newModel(header, placeholder string, secret bool) model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 500
	ti.Width = 60
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	return model{header: header, input: ti}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyCtrlC:
			m.interrupted = true
			return m, tea.Quit
		case tea.KeyEsc:
			m.dismissed = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done || m.dismissed || m.interrupted {
		return ""
	}
	return m.header + "\n\n" + m.input.View() + "\n" + hintStyle.Render("enter to confirm, esc to skip") + "\n"
}

func renderQuestion(q resolver.Question) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(q.Field.Label))
	if q.Field.Required {
		b.WriteString(titleStyle.Render(" *"))
	}
	if q.Job.Title != "" {
		b.WriteString("\n" + jobStyle.Render(fmt.Sprintf("%s at %s", q.Job.Title, q.Job.Company)))
	}
	for i, o := range q.Field.Options {
		b.WriteString("\n" + optionStyle.Render(fmt.Sprintf("%d) %s", i+1, o)))
	}
	if q.Field.Kind == domain.KindMultiSelect {
		b.WriteString("\n" + hintStyle.Render("several options may be given separated by commas"))
	}
	return b.String()
}

// pickOptions maps option numbers typed by the operator to option text.
// Anything else is returned unchanged for the resolver to validate.
func pickOptions(f domain.FormField, in string) string {
	if len(f.Options) == 0 {
		return in
	}
	parts := strings.Split(in, ",")
	if f.Kind != domain.KindMultiSelect {
		parts = []string{in}
	}
	picked := make([]string, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 || n > len(f.Options) {
			return in
		}
		picked = append(picked, f.Options[n-1])
	}
	return strings.Join(picked, ", ")
}
