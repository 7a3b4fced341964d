package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Session is one open till screen: a cashier and the bill in front of them.
type Session struct {
	ID       uuid.UUID
	Cashier  string
	OpenedAt time.Time
	mu       sync.Mutex
	bill     *Bill
}

// Do runs fn with exclusive access to the session's bill.
func (s *Session) Do(fn func(b *Bill) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.bill)
}

// Store holds the live sessions of this process.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

func (s *Store) Open(cashier string) *Session {
	sess := &Session{
		ID:       uuid.New(),
		Cashier:  cashier,
		OpenedAt: time.Now(),
		bill:     NewBill(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperror.NotFound("bill")
	}
	return sess, nil
}

// Reset takes a completed sale off the session's bill, but only if the bill
// is still the instance that was sold. It reports whether it did.
func (s *Store) Reset(id uuid.UUID, sold Snapshot) (bool, error) {
	sess, err := s.Get(id)
	if err != nil {
		return false, err
	}
	var reset bool
	err = sess.Do(func(b *Bill) error {
		if b.InstanceID() != sold.InstanceID {
			return nil
		}
		b.settle(sold)
		reset = true
		return nil
	})
	return reset, err
}

func (s *Store) Close(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
