package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leximini/internal/models"
	"leximini/internal/session"
)

type fakeEngine struct {
	answer      string
	err         error
	degraded    bool
	seenHistory string // chat history as the engine observed it
}

func (f *fakeEngine) Answer(_ context.Context, sess *session.Session, q string) (*models.PromptResponse, error) {
	f.seenHistory = sess.History()
	if f.err != nil {
		return nil, f.err
	}
	return &models.PromptResponse{Query: q, Content: f.answer + models.Disclaimer}, nil
}

func (f *fakeEngine) Degraded() bool { return f.degraded }

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

// drain executes a command tree and collects the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestTypingRevealCommitsAnswerToSession(t *testing.T) {
	sess := session.New(2)
	m := sized(New(&fakeEngine{answer: "Short answer."}, sess))

	sess.AppendUser("question")
	m.state = stateThinking

	resp := &models.PromptResponse{Query: "question", Content: "Short answer." + models.Disclaimer}
	updated, cmd := m.Update(answerMsg{resp: resp})
	m = updated.(Model)
	assert.Equal(t, stateTyping, m.state)
	require.NotNil(t, cmd)

	// drive the reveal ticks to completion
	for i := 0; i < len(resp.Content); i++ {
		updated, _ = m.Update(typeTickMsg{})
		m = updated.(Model)
		if m.state == stateIdle {
			break
		}
	}

	require.Equal(t, stateIdle, m.state)
	tr := sess.Transcript()
	require.Len(t, tr, 2)
	assert.Equal(t, models.RoleAssistant, tr[1].Role)
	assert.True(t, strings.HasSuffix(tr[1].Content, models.Disclaimer))

	// the completed exchange is now part of the memory window
	assert.Contains(t, sess.History(), "user: question")
	assert.Contains(t, sess.History(), "assistant: Short answer.")
}

func TestInFlightQuestionExcludedFromHistory(t *testing.T) {
	engine := &fakeEngine{answer: "Section 302 prescribes punishment for murder."}
	sess := session.New(2)
	sess.Remember("q1", "a1")
	sess.Remember("q2", "a2")
	m := sized(New(engine, sess))

	m.input.SetValue("What is Section 302?")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.Equal(t, stateThinking, m.state)

	msgs := drain(cmd)
	var answered bool
	for _, msg := range msgs {
		if _, ok := msg.(answerMsg); ok {
			answered = true
		}
	}
	require.True(t, answered)

	// the question being asked must not appear in the history the engine
	// sees, and asking it must not evict a prior exchange from the window
	assert.NotContains(t, engine.seenHistory, "What is Section 302?")
	assert.Contains(t, engine.seenHistory, "user: q1")
	assert.Contains(t, engine.seenHistory, "user: q2")
}

func TestFailedAnswerNeverEntersHistory(t *testing.T) {
	engine := &fakeEngine{err: assert.AnError}
	sess := session.New(2)
	m := sized(New(engine, sess))

	m.input.SetValue("doomed question")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	for _, msg := range drain(cmd) {
		updated, _ = m.Update(msg)
		m = updated.(Model)
	}

	assert.Equal(t, stateIdle, m.state)
	assert.Contains(t, m.status, "Error")
	assert.Empty(t, sess.History(), "a failed turn must not pollute the memory window")
	assert.Len(t, sess.Transcript(), 1, "the attempted question still shows in the transcript")
}

func TestResetClearsSession(t *testing.T) {
	sess := session.New(2)
	sess.AppendUser("q")
	sess.AppendAssistant("a")
	sess.Remember("q", "a")
	m := sized(New(&fakeEngine{}, sess))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(Model)

	assert.Empty(t, sess.Transcript())
	assert.Empty(t, sess.Window())
	assert.Contains(t, m.status, "cleared")
}

func TestResetIgnoredWhileThinking(t *testing.T) {
	sess := session.New(2)
	sess.AppendUser("in flight")
	m := sized(New(&fakeEngine{}, sess))
	m.state = stateThinking

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(Model)

	assert.Len(t, sess.Transcript(), 1, "reset must not fire mid-question")
}

func TestErrorLeavesTranscriptIntact(t *testing.T) {
	sess := session.New(2)
	sess.AppendUser("q")
	sess.AppendAssistant("a")
	m := sized(New(&fakeEngine{}, sess))
	m.state = stateThinking

	updated, _ := m.Update(answerErrMsg{err: assert.AnError})
	m = updated.(Model)

	assert.Equal(t, stateIdle, m.state)
	assert.Contains(t, m.status, "Error")
	assert.Len(t, sess.Transcript(), 2)
}

func TestDegradedModeShownInStatus(t *testing.T) {
	m := New(&fakeEngine{degraded: true}, session.New(2))
	assert.Contains(t, m.status, "DEGRADED")
}
