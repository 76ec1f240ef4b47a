package session

import "sync"

// Gate serializes work per user. Different users never wait on each other.
type Gate struct {
	mu    sync.Mutex
	users map[UserID]*gateEntry
}

type gateEntry struct {
	mu   sync.Mutex
	refs int
}

func NewGate() *Gate {
	return &Gate{users: make(map[UserID]*gateEntry)}
}

// Lock blocks until the user's slot is free and returns the release func.
func (g *Gate) Lock(user UserID) (unlock func()) {
	g.mu.Lock()
	e, ok := g.users[user]
	if !ok {
		e = &gateEntry{}
		g.users[user] = e
	}
	e.refs++
	g.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		g.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(g.users, user)
		}
		g.mu.Unlock()
	}
}

// held reports the number of users with a holder or waiter.
func (g *Gate) held() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.users)
}
