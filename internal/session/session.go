package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vendo/internal/domain"
)

var (
	// ErrMachineLocked is returned when a session tries to shop while
	// another session holds the machine.
	ErrMachineLocked = errors.New("machine is locked by another session")
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// Session is the explicit context for one shopper. It owns the cart
// exclusively and carries the machine-lock view computed at resolve
// time. Handlers pass it by pointer into every service call; there is
// no ambient session state anywhere else.
type Session struct {
	ID uuid.UUID

	mu       sync.Mutex
	cart     domain.Cart
	readOnly bool
	lastSeen time.Time
}

// UpdateCart mutates the cart under the session's lock.
func (s *Session) UpdateCart(fn func(*domain.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cart)
}

// CartSnapshot returns a copy of the cart safe to read without holding
// the session lock.
func (s *Session) CartSnapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CartItem, len(s.cart.Items))
	copy(items, s.cart.Items)
	return domain.Cart{Items: items}
}

// ReadOnly reports whether this session last resolved while another
// session held the machine. It is advisory; services re-check ownership
// through the manager before mutating anything.
func (s *Session) ReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOnly
}

func (s *Session) setReadOnly(v bool) {
	s.mu.Lock()
	s.readOnly = v
	s.mu.Unlock()
}

// Manager tracks sessions and the single machine lock. At most one
// session holds the machine at a time; every other session resolves to
// a read-only view instead of queueing.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	holder   uuid.UUID // uuid.Nil when the machine is free
	ttl      time.Duration
	logger   *zap.Logger
}

// NewManager creates a session manager. Sessions idle longer than ttl
// are swept and, if they held the machine, the lock is released.
func NewManager(ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// Resolve returns the session for id, creating a fresh one when id is
// unknown or uuid.Nil. It then runs the lock transition: a free machine
// is acquired by the resolving session; a held machine leaves every
// other session read-only.
func (m *Manager) Resolve(id uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		sess = &Session{ID: uuid.New()}
		m.sessions[sess.ID] = sess
		m.logger.Debug("Session created", zap.String("session_id", sess.ID.String()))
	}
	sess.lastSeen = time.Now()

	if m.holder == uuid.Nil || m.holder == sess.ID {
		m.holder = sess.ID
		sess.setReadOnly(false)
	} else {
		sess.setReadOnly(true)
	}

	return sess
}

// Owns reports whether the session currently holds the machine lock.
func (m *Manager) Owns(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder == id && id != uuid.Nil
}

// Release unlocks the machine if the session owns it. Releasing a lock
// held by someone else is a no-op.
func (m *Manager) Release(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holder == id {
		m.holder = uuid.Nil
		m.logger.Debug("Machine lock released", zap.String("session_id", id.String()))
	}
}

// Sweep drops sessions idle past the TTL, releasing the machine lock if
// the expired session held it.
func (m *Manager) Sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sess := range m.sessions {
		if now.Sub(sess.lastSeen) <= m.ttl {
			continue
		}
		delete(m.sessions, id)
		if m.holder == id {
			m.holder = uuid.Nil
			m.logger.Info("Released machine lock from expired session",
				zap.String("session_id", id.String()),
			)
		}
	}
}

// StartJanitor runs Sweep on an interval until stop is closed.
func (m *Manager) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				m.Sweep(now)
			case <-stop:
				return
			}
		}
	}()
}
