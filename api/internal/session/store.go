package session

import "sync"

type UserID = int64

// Store maps users to their State. Missing users are Idle.
type Store struct {
	mu sync.Mutex
	m  map[UserID]State
}

func NewStore() *Store {
	return NewStoreWithMap(make(map[UserID]State))
}

// NewStoreWithMap uses m as backing storage. The store takes ownership of m.
func NewStoreWithMap(m map[UserID]State) *Store {
	if m == nil {
		m = make(map[UserID]State)
	}
	return &Store{m: m}
}

// Get returns the user's state, creating an Idle entry on first sight.
func (s *Store) Get(user UserID) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[user]
	if !ok {
		st = IdleState()
		s.m[user] = st
	}
	return st
}

// SetAwaiting starts a round for dishName, replacing any pending one.
func (s *Store) SetAwaiting(user UserID, dishName string) {
	s.mu.Lock()
	s.m[user] = Awaiting(dishName)
	s.mu.Unlock()
}

// Clear resets the user to Idle.
func (s *Store) Clear(user UserID) {
	s.mu.Lock()
	s.m[user] = IdleState()
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
