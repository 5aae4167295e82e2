package service

import (
	"log/slog"
	"sync"

	"github.com/set-night/telegpt/internal/domain"
)

// SessionStore owns the mapping from Telegram user id to Session. Pure data,
// no I/O; persistence backends load and dump it through Snapshot/Restore.
// Sessions are created lazily on first contact, so callers never observe a
// missing session.
type SessionStore struct {
	mu             sync.RWMutex
	defaultContext string
	sessions       map[int64]*domain.Session
}

func NewSessionStore(defaultContext string) *SessionStore {
	return &SessionStore{
		defaultContext: defaultContext,
		sessions:       make(map[int64]*domain.Session),
	}
}

// getOrCreateLocked must be called with s.mu held for writing.
func (s *SessionStore) getOrCreateLocked(userID int64) *domain.Session {
	sess, ok := s.sessions[userID]
	if !ok {
		slog.Warn("a new user has started chatting", "user_id", userID)
		sess = domain.NewSession(s.defaultContext)
		s.sessions[userID] = sess
	}
	return sess
}

// Get returns a copy of the user's session, or false if none exists yet.
func (s *SessionStore) Get(userID int64) (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// GetOrCreate returns a copy of the user's session, creating a default one
// if the user is unknown.
func (s *SessionStore) GetOrCreate(userID int64) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(userID).Clone()
}

func (s *SessionStore) SetSuspended(userID int64, suspended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(userID).Suspended = suspended
}

func (s *SessionStore) SetAwaitingContext(userID int64, awaiting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(userID).AwaitingContext = awaiting
}

// ToggleMode flips the delivery mode and returns the new value.
func (s *SessionStore) ToggleMode(userID int64) domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userID)
	if sess.Mode == domain.ModeStatic {
		sess.Mode = domain.ModeStreamed
	} else {
		sess.Mode = domain.ModeStatic
	}
	return sess.Mode
}

// SetContext replaces the system context and the leading system turn.
func (s *SessionStore) SetContext(userID int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userID)
	sess.SystemContext = text
	sess.History[0] = domain.Turn{Role: domain.RoleSystem, Content: text}
}

// ClearHistory truncates the history to the system turn. It returns false
// when there was nothing to clear, so callers can report "already empty"
// distinctly from the success case.
func (s *SessionStore) ClearHistory(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userID)
	if len(sess.History) <= 1 {
		return false
	}
	sess.History = sess.History[:1]
	return true
}

// AppendTurn appends one turn to the user's history.
func (s *SessionStore) AppendTurn(userID int64, turn domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userID)
	sess.History = append(sess.History, turn)
}

// History returns a copy of the user's history, creating the session if absent.
func (s *SessionStore) History(userID int64) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userID)
	out := make([]domain.Turn, len(sess.History))
	copy(out, sess.History)
	return out
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Snapshot returns a deep copy of all sessions for persistence.
func (s *SessionStore) Snapshot() map[int64]*domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]*domain.Session, len(s.sessions))
	for id, sess := range s.sessions {
		out[id] = sess.Clone()
	}
	return out
}

// Restore replaces the store contents with previously dumped sessions.
// Sessions with no history get their system turn rebuilt so History[0]
// always holds.
func (s *SessionStore) Restore(sessions map[int64]*domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[int64]*domain.Session, len(sessions))
	for id, sess := range sessions {
		c := sess.Clone()
		if len(c.History) == 0 {
			c.History = []domain.Turn{{Role: domain.RoleSystem, Content: c.SystemContext}}
		}
		s.sessions[id] = c
	}
}
