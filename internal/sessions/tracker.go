// Package sessions maps live connections to the room seat they occupy.
package sessions

import "sync"

type Session struct {
	ConnID     string
	RoomCode   string
	PlayerName string
}

type Tracker struct {
	mu     sync.Mutex
	byConn map[string]Session
}

func NewTracker() *Tracker {
	return &Tracker{
		byConn: make(map[string]Session),
	}
}

// Bind associates connID with a seat, replacing any previous binding.
func (t *Tracker) Bind(connID, code, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byConn[connID] = Session{ConnID: connID, RoomCode: code, PlayerName: name}
}

func (t *Tracker) Lookup(connID string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byConn[connID]
	return s, ok
}

// Remove drops the binding and returns it. Only the first call for a given
// binding reports ok.
func (t *Tracker) Remove(connID string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byConn[connID]
	if ok {
		delete(t.byConn, connID)
	}
	return s, ok
}

// ConnFor finds the connection currently seated as name in room code.
func (t *Tracker) ConnFor(code, name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range t.byConn {
		if s.RoomCode == code && s.PlayerName == name {
			return id, true
		}
	}
	return "", false
}

func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byConn)
}
