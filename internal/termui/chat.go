package termui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/drape/internal/chat"
	"github.com/hpungsan/drape/internal/ops"
)

// ChatBackend sends a message and returns the transcript after the reply.
type ChatBackend interface {
	Send(ctx context.Context, message string) ([]chat.Turn, error)
	Transcript() []chat.Turn
}

// AppChat adapts an App's chat operations to ChatBackend.
type AppChat struct {
	App *ops.App
}

func (c AppChat) Send(ctx context.Context, message string) ([]chat.Turn, error) {
	out, err := c.App.SendChat(ctx, message)
	if err != nil {
		return nil, err
	}
	return out.Transcript, nil
}

func (c AppChat) Transcript() []chat.Turn {
	return c.App.Chat().Transcript()
}

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

type replyMsg struct {
	transcript []chat.Turn
	err        error
}

// ChatModel is the bubbletea model of the interactive chat.
type ChatModel struct {
	ctx        context.Context
	backend    ChatBackend
	header     string
	input      textinput.Model
	spin       spinner.Model
	vp         viewport.Model
	transcript []chat.Turn
	waiting    bool
	ready      bool
	err        error
}

// NewChatModel builds the chat model. header is shown above the transcript
// (typically the analysis the chat refers to).
func NewChatModel(ctx context.Context, backend ChatBackend, header string) ChatModel {
	in := textinput.New()
	in.Placeholder = "Ask about colours, outfits, shopping..."
	in.Prompt = "You> "
	in.Focus()
	in.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return ChatModel{
		ctx:        ctx,
		backend:    backend,
		header:     header,
		input:      in,
		spin:       s,
		vp:         viewport.New(80, 20),
		transcript: backend.Transcript(),
	}
}

// RunChat runs the chat program until the user quits.
func RunChat(ctx context.Context, backend ChatBackend, header string) error {
	p := tea.NewProgram(NewChatModel(ctx, backend, header), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.header) + 1
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-headerHeight-3, 3)
		m.input.Width = max(msg.Width-len(m.input.Prompt)-2, 10)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			if text == "/exit" || text == "/quit" {
				return m, tea.Quit
			}
			m.input.SetValue("")
			m.waiting = true
			m.err = nil
			m.transcript = append(m.transcript,
				chat.Turn{Role: chat.RoleUser, Text: text},
				chat.Turn{Role: chat.RoleAssistant, Text: chat.PlaceholderText, Provisional: true},
			)
			m.refresh()
			return m, m.send(text)
		}

	case replyMsg:
		m.waiting = false
		m.err = msg.err
		if msg.transcript != nil {
			m.transcript = msg.transcript
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m ChatModel) send(text string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		transcript, err := backend.Send(ctx, text)
		return replyMsg{transcript: transcript, err: err}
	}
}

func (m *ChatModel) refresh() {
	m.vp.SetContent(FormatTranscript(m.transcript))
	m.vp.GotoBottom()
}

func (m ChatModel) View() string {
	var b strings.Builder
	if m.header != "" {
		b.WriteString(m.header)
		b.WriteString("\n")
	}
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	if m.waiting {
		b.WriteString(m.spin.View())
		b.WriteString(" ")
	}
	if m.err != nil {
		b.WriteString(Warning(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("enter to send · esc to quit"))
	return b.String()
}

// FormatTranscript renders the turns as plain chat lines.
func FormatTranscript(turns []chat.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		switch t.Role {
		case chat.RoleUser:
			b.WriteString(userStyle.Render("You:"))
		default:
			b.WriteString(assistantStyle.Render("Stylist:"))
		}
		b.WriteString(" ")
		if t.Provisional {
			b.WriteString(mutedStyle.Render(t.Text))
		} else {
			b.WriteString(t.Text)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
