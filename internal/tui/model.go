package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"leximini/internal/models"
	"leximini/internal/session"
)

// Answerer is the TUI-facing subset of the RAG engine.
type Answerer interface {
	Answer(ctx context.Context, sess *session.Session, question string) (*models.PromptResponse, error)
	Degraded() bool
}

const (
	banner = "⚠️  IMPORTANT DISCLAIMER: This AI chatbot provides general information only and is not a substitute for professional legal advice. Always consult with a qualified attorney for specific legal matters."

	// characters revealed per typing tick; display-only pacing
	typeStep     = 3
	typeInterval = 10 * time.Millisecond
)

type state int

const (
	stateIdle state = iota
	stateThinking
	stateTyping
)

type answerMsg struct{ resp *models.PromptResponse }
type answerErrMsg struct{ err error }
type typeTickMsg struct{}

// Model is the Bubble Tea model for the chat interface. One question is in
// flight at a time; the input is disabled while thinking or typing.
type Model struct {
	engine   Answerer
	sess     *session.Session
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	state    state
	status   string
	pending  *models.PromptResponse // answer being revealed
	revealed int                    // characters of pending shown so far
	ready    bool
}

// New creates the chat model bound to an engine and a fresh session.
func New(engine Answerer, sess *session.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a legal question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	status := "Ready. Ctrl+R resets the conversation, Ctrl+C quits."
	if engine.Degraded() {
		status = degradedStyle.Render("DEGRADED (demo) embeddings — retrieval is not meaningful.")
	}

	return Model{
		engine:   engine,
		sess:     sess,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
		status:   status,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 3 + 1 + ih + 1 + th // header, banner, spacer, input frame, status
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = vh
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyCtrlR {
			return m.reset()
		}
		if msg.Type == tea.KeyEnter && m.state == stateIdle {
			return m.submit()
		}

	case spinner.TickMsg:
		if m.state == stateThinking {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case answerMsg:
		m.state = stateTyping
		m.pending = msg.resp
		m.revealed = 0
		m.status = "Answering..."
		return m, tea.Tick(typeInterval, func(time.Time) tea.Msg { return typeTickMsg{} })

	case answerErrMsg:
		m.state = stateIdle
		m.status = errorStyle.Render("Error: " + msg.err.Error())
		m.input.Focus()
		m.refreshTranscript()
		return m, nil

	case typeTickMsg:
		if m.state != stateTyping || m.pending == nil {
			return m, nil
		}
		m.revealed += typeStep
		if m.revealed >= utf8.RuneCountInString(m.pending.Content) {
			// reveal finished: commit the exchange to transcript and memory
			m.sess.AppendAssistant(m.pending.Content)
			m.sess.Remember(m.pending.Query, m.pending.Content)
			m.pending = nil
			m.state = stateIdle
			m.status = "Ready."
			m.input.Focus()
			m.refreshTranscript()
			return m, nil
		}
		m.refreshTranscript()
		return m, tea.Tick(typeInterval, func(time.Time) tea.Msg { return typeTickMsg{} })
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m, nil
	}
	m.sess.AppendUser(q)
	m.input.SetValue("")
	m.input.Blur()
	m.state = stateThinking
	m.status = "Thinking 💡..."
	m.refreshTranscript()

	engine, sess := m.engine, m.sess
	ask := func() tea.Msg {
		resp, err := engine.Answer(context.Background(), sess, q)
		if err != nil {
			return answerErrMsg{err}
		}
		return answerMsg{resp}
	}
	return m, tea.Batch(m.spin.Tick, ask)
}

func (m Model) reset() (tea.Model, tea.Cmd) {
	if m.state != stateIdle {
		return m, nil
	}
	m.sess.Reset()
	m.pending = nil
	m.revealed = 0
	m.status = "Conversation cleared."
	m.refreshTranscript()
	return m, nil
}

func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.sess.Transcript() {
		label := userLabelStyle.Render("You")
		if msg.Role == models.RoleAssistant {
			label = assistantLabelStyle.Render("LexiMini")
		}
		b.WriteString(label + "\n" + msg.Content + "\n\n")
	}
	if m.state == stateTyping && m.pending != nil {
		// reveal by runes so multi-byte characters never get cut in half
		runes := []rune(m.pending.Content)
		shown := m.pending.Content
		if m.revealed < len(runes) {
			shown = string(runes[:m.revealed])
		}
		b.WriteString(assistantLabelStyle.Render("LexiMini") + "\n" + shown + " ▌\n")
	}
	if b.Len() == 0 {
		return "No conversation yet. Ask away."
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("⚖️  LexiMini") + " " + taglineStyle.Render("AI-Powered Legal Assistant")
	disclaimer := bannerStyle.Width(m.viewport.Width).Render(banner)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())

	status := m.status
	if m.state == stateThinking {
		status = m.spin.View() + " " + m.status
	}
	if m.engine.Degraded() && m.state == stateIdle {
		status = fmt.Sprintf("%s  %s", status, degradedStyle.Render("[demo mode]"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		disclaimer,
		transcript,
		input,
		statusStyle.Render(status),
	)
}
