package session

import (
	"fmt"
	"strings"

	"leximini/internal/models"
)

// Session holds the per-session conversation state: the full displayed
// transcript and a sliding memory window of the last k completed
// user/assistant exchanges. The transcript is what the user sees; the
// memory window is what the model sees as chat history. An exchange enters
// the window only via Remember, once its answer has been delivered, so an
// in-flight or failed question is never part of the history sent to the
// model. A session is created at session start, mutated only by the append,
// Remember and Reset operations, and never shared across sessions.
type Session struct {
	window     int // exchanges kept in the memory window
	transcript []models.Message
	memory     []models.Message
}

// New creates a session with a memory window of k exchanges.
func New(window int) *Session {
	if window < 1 {
		window = 1
	}
	return &Session{window: window}
}

// AppendUser records a user turn in the displayed transcript.
func (s *Session) AppendUser(content string) {
	s.transcript = append(s.transcript, models.Message{Role: models.RoleUser, Content: content})
}

// AppendAssistant records an assistant turn in the displayed transcript.
func (s *Session) AppendAssistant(content string) {
	s.transcript = append(s.transcript, models.Message{Role: models.RoleAssistant, Content: content})
}

// Remember commits a completed exchange to the memory window, evicting the
// oldest exchange beyond the window size.
func (s *Session) Remember(question, answer string) {
	s.memory = append(s.memory,
		models.Message{Role: models.RoleUser, Content: question},
		models.Message{Role: models.RoleAssistant, Content: answer},
	)
	// one exchange = one user turn plus one assistant turn
	if max := s.window * 2; len(s.memory) > max {
		s.memory = s.memory[len(s.memory)-max:]
	}
}

// Transcript returns the full ordered conversation for display.
func (s *Session) Transcript() []models.Message {
	out := make([]models.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Window returns the turns currently inside the memory window, oldest first.
func (s *Session) Window() []models.Message {
	out := make([]models.Message, len(s.memory))
	copy(out, s.memory)
	return out
}

// History renders the memory window as prompt text, one "role: content" line
// per turn. Empty when no prior completed exchange exists.
func (s *Session) History() string {
	var b strings.Builder
	for _, m := range s.memory {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

// Reset clears both transcript and memory window. A question asked after
// Reset behaves as if no prior conversation existed.
func (s *Session) Reset() {
	s.transcript = nil
	s.memory = nil
}
