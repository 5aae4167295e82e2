package domain

// Role identifies the author of a turn in a session history.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Mode selects how answers are delivered to the user.
type Mode string

const (
	ModeStatic   Mode = "static"
	ModeStreamed Mode = "streamed"
)

// Turn is one role-tagged message in a session history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session holds the conversational state for a single Telegram user.
// History[0] is always the system turn and mirrors SystemContext.
type Session struct {
	Mode            Mode   `json:"mode"`
	Suspended       bool   `json:"suspended"`
	AwaitingContext bool   `json:"awaiting_context"`
	SystemContext   string `json:"system_context"`
	History         []Turn `json:"history"`
}

// NewSession returns a session with default gates and a history containing
// only the system turn.
func NewSession(systemContext string) *Session {
	return &Session{
		Mode:          ModeStatic,
		SystemContext: systemContext,
		History:       []Turn{{Role: RoleSystem, Content: systemContext}},
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.History = make([]Turn, len(s.History))
	copy(c.History, s.History)
	return &c
}
