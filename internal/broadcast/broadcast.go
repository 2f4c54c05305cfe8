package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Message is one outbound event frame.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Broadcaster owns every connection's outbox and the room channels they are
// subscribed to. Sends never block: a full outbox drops the frame.
type Broadcaster struct {
	mu       sync.RWMutex
	conns    map[string]chan []byte
	rooms    map[string]map[string]struct{}
	memberOf map[string]string

	// OnDrop, when set, is called for every frame dropped on a full outbox.
	OnDrop func(connID string)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		conns:    make(map[string]chan []byte),
		rooms:    make(map[string]map[string]struct{}),
		memberOf: make(map[string]string),
	}
}

func (b *Broadcaster) Register(connID string, outbox chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[connID] = outbox
}

// Unregister unsubscribes connID and closes its outbox.
func (b *Broadcaster) Unregister(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribeLocked(connID)
	if ch, ok := b.conns[connID]; ok {
		close(ch)
		delete(b.conns, connID)
	}
}

// Subscribe moves connID onto the channel for code.
func (b *Broadcaster) Subscribe(connID, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribeLocked(connID)
	members, ok := b.rooms[code]
	if !ok {
		members = make(map[string]struct{})
		b.rooms[code] = members
	}
	members[connID] = struct{}{}
	b.memberOf[connID] = code
}

func (b *Broadcaster) Unsubscribe(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribeLocked(connID)
}

// CloseRoom drops every subscription to code.
func (b *Broadcaster) CloseRoom(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.rooms[code] {
		delete(b.memberOf, id)
	}
	delete(b.rooms, code)
}

func (b *Broadcaster) unsubscribeLocked(connID string) {
	code, ok := b.memberOf[connID]
	if !ok {
		return
	}
	delete(b.memberOf, connID)
	if members := b.rooms[code]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(b.rooms, code)
		}
	}
}

// Members counts the connections subscribed to code.
func (b *Broadcaster) Members(code string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[code])
}

// ToRoom sends msg to every connection subscribed to code.
func (b *Broadcaster) ToRoom(code string, msg Message) {
	b.ToRoomExcept(code, "", msg)
}

// ToRoomExcept sends msg to everyone in code but exceptConnID.
func (b *Broadcaster) ToRoomExcept(code, exceptConnID string, msg Message) {
	data, ok := encode(msg)
	if !ok {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id := range b.rooms[code] {
		if id == exceptConnID {
			continue
		}
		b.sendLocked(id, data)
	}
}

// ToConn sends msg to a single connection.
func (b *Broadcaster) ToConn(connID string, msg Message) {
	data, ok := encode(msg)
	if !ok {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	b.sendLocked(connID, data)
}

func (b *Broadcaster) sendLocked(connID string, data []byte) {
	ch, ok := b.conns[connID]
	if !ok {
		return
	}
	select {
	case ch <- data:
	default:
		// skip clients with full data channels
		log.Debug().Str("conn", connID).Msg("outbox full, frame dropped")
		if b.OnDrop != nil {
			b.OnDrop(connID)
		}
	}
}

func encode(msg Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("event", msg.Event).Msg("marshal broadcast")
		return nil, false
	}
	return data, true
}
