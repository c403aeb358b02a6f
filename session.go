package authvault

import "sync"

// Session holds the single live [Ticket] for one caller session. The host
// keeps exactly one Session per session scope (for a web host, per HTTP
// session) and passes it into every Engine operation. The ticket defaults to
// the guest identity until a login replaces it, and is always swapped as a
// whole value.
type Session struct {
	mu     sync.Mutex
	guest  Ticket
	ticket *Ticket
}

// NewSession creates a session bound to the engine's configured guest
// identity. The guest ticket is synthesized lazily on first access.
func (e *Engine) NewSession() *Session {
	return &Session{
		guest: Ticket{
			Username:  e.config.Guest.Username,
			Role:      e.config.Guest.Role,
			IsDefault: true,
		},
	}
}

// Ticket returns the session's current ticket, creating the guest ticket on
// first access.
func (s *Session) Ticket() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticket == nil {
		t := s.guest
		s.ticket = &t
	}
	return *s.ticket
}

// set replaces the ticket wholesale.
func (s *Session) set(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket = &t
}

// clear reverts the session to a fresh guest ticket.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.guest
	s.ticket = &t
}
