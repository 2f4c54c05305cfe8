// Package game is the single authority over live rooms. Every inbound event
// runs to completion under one lock, so handlers never interleave.
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tunetrivia/internal/broadcast"
	"tunetrivia/internal/db"
	"tunetrivia/internal/events"
	"tunetrivia/internal/metrics"
	"tunetrivia/internal/rooms"
	"tunetrivia/internal/sessions"
)

// Archiver receives finished games. It must not block.
type Archiver interface {
	Enqueue(db.GameResult) bool
}

type Options struct {
	Metrics *metrics.Metrics
	Archive Archiver
	Now     func() time.Time
}

type Coordinator struct {
	mu sync.Mutex

	rooms    *rooms.Store
	sessions *sessions.Tracker
	out      *broadcast.Broadcaster
	metrics  *metrics.Metrics
	archive  Archiver
	now      func() time.Time

	conns map[string]struct{}
	// rooms whose creator has not joined yet
	pending map[string]pendingHost
}

// pendingHost is a creator's claim on the host seat of a room it has not
// joined. The claim is honoured when that connection joins.
type pendingHost struct {
	connID string
	name   string
}

func NewCoordinator(store *rooms.Store, tracker *sessions.Tracker, out *broadcast.Broadcaster, opts Options) *Coordinator {
	c := &Coordinator{
		rooms:    store,
		sessions: tracker,
		out:      out,
		metrics:  opts.Metrics,
		archive:  opts.Archive,
		now:      opts.Now,
		conns:    make(map[string]struct{}),
		pending:  make(map[string]pendingHost),
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Connect registers a live connection and its outbox. No session exists
// until the connection joins a room.
func (c *Coordinator) Connect(connID string, outbox chan []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out.Register(connID, outbox)
	c.conns[connID] = struct{}{}
	c.metrics.ConnectionOpened()
	log.Debug().Str("conn", connID).Msg("connected")
}

// Disconnect runs the leave path for connID and closes its outbox. Calling it
// again for the same connection does nothing.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.conns[connID]; !ok {
		return
	}
	delete(c.conns, connID)

	c.leaveLocked(connID)
	c.abandonCreatedLocked(connID)
	c.out.Unregister(connID)

	c.metrics.ConnectionClosed()
	c.metrics.SetRooms(c.rooms.Count())
	log.Debug().Str("conn", connID).Int("sessions", c.sessions.Count()).Msg("disconnected")
}

// HandleFrame decodes a raw client frame and dispatches it.
func (c *Coordinator) HandleFrame(connID string, frame []byte) {
	req, err := events.Parse(frame)
	if err != nil {
		log.Debug().Err(err).Str("conn", connID).Msg("rejected frame")
		c.metrics.Rejected(metrics.ReasonInvalid)
		c.out.ToConn(connID, broadcast.Message{
			Event: events.RoomError,
			Data:  roomError{Message: err.Error()},
		})
		return
	}
	c.Handle(connID, req)
}

// Throttled is called by the transport when connID exceeds its event rate.
func (c *Coordinator) Throttled(connID string) {
	c.metrics.Rejected(metrics.ReasonRateLimited)
	c.out.ToConn(connID, broadcast.Message{
		Event: events.RoomError,
		Data:  roomError{Message: "too many events, slow down"},
	})
}

// Handle applies one decoded request.
func (c *Coordinator) Handle(connID string, req events.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.Event(req.Event())

	switch r := req.(type) {
	case *events.CreateRoomRequest:
		c.createRoom(connID, r)
	case *events.JoinRequest:
		c.join(connID, r)
	case *events.GetRoomPlayersScoresRequest:
		c.getRoomPlayersScores(connID, r)
	case *events.GetTotalRoundsRequest:
		c.getTotalRounds(connID, r)
	case *events.UpdateScoreRequest:
		c.updateScore(connID, r)
	case *events.StartGameRequest:
		c.startGame(connID, r)
	case *events.HostStartRoundRequest:
		c.hostStartRound(connID, r)
	case *events.PlayerFinishedRoundRequest:
		c.playerFinishedRound(connID, r)
	case *events.HostSkipRoundRequest:
		c.hostSkipRound(connID, r)
	case *events.HostContinueRoundRequest:
		c.hostContinueRound(connID, r)
	case *events.HostEndGameRequest:
		c.hostEndGame(connID, r)
	case *events.GetCurrentRoundRequest:
		c.getCurrentRound(connID, r)
	case *events.LeaveRoomRequest:
		c.leaveRoom(connID)
	default:
		log.Warn().Str("conn", connID).Str("event", req.Event()).Msg("no handler for event")
	}
}

// unjoinedRoomTTL bounds how long a room may sit with no players.
const unjoinedRoomTTL = 10 * time.Minute

// SweepIdle closes rooms that have had no players for longer than
// unjoinedRoomTTL since creation and reports how many it closed.
func (c *Coordinator) SweepIdle() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	closed := 0
	for _, room := range c.rooms.List() {
		if !room.Empty() || now.Sub(room.CreatedAt) < unjoinedRoomTTL {
			continue
		}
		ev := log.Info().Str("room", room.Code)
		if p, ok := c.pending[room.Code]; ok {
			ev = ev.Str("creator", p.name)
		}
		ev.Msg("sweeping unjoined room")
		c.deleteRoomLocked(room.Code)
		closed++
	}
	return closed
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (c *Coordinator) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SweepIdle()
		}
	}
}

// Summary returns a snapshot of the room with code.
func (c *Coordinator) Summary(code string) (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, err := c.rooms.Get(rooms.NormalizeCode(code))
	if err != nil {
		return Summary{}, false
	}
	s := summarize(room)
	s.Connections = c.out.Members(room.Code)
	return s, true
}

// lookup resolves code or answers the sender with a room-error.
func (c *Coordinator) lookup(connID, code string) (*rooms.Room, bool) {
	room, err := c.rooms.Get(code)
	if err != nil {
		c.reject(connID, code, metrics.ReasonRoomNotFound, "Room not found")
		return nil, false
	}
	return room, true
}

func (c *Coordinator) reject(connID, code, reason, message string) {
	c.metrics.Rejected(reason)
	c.out.ToConn(connID, broadcast.Message{
		Event: events.RoomError,
		Data:  roomError{Code: code, Message: message},
	})
}

// authorizeHost accepts the bound host connection, a connection seated as
// the host, or, when name is given, a claim to the host's name.
func (c *Coordinator) authorizeHost(connID string, room *rooms.Room, event, name string) bool {
	if room.HostConnID != "" && room.HostConnID == connID {
		return true
	}
	if s, ok := c.sessions.Lookup(connID); ok && s.RoomCode == room.Code && s.PlayerName == room.Host {
		room.HostConnID = connID
		return true
	}
	if name != "" && name == room.Host && room.Has(name) {
		return true
	}

	log.Warn().
		Str("room", room.Code).
		Str("conn", connID).
		Str("event", event).
		Msg("host-only event from non-host")
	c.reject(connID, room.Code, metrics.ReasonNotHost, "Only the host can do that")
	return false
}

func (c *Coordinator) nowMS() int64 {
	return c.now().UnixMilli()
}

func joinErrorMessage(err error) (reason, message string) {
	switch {
	case errors.Is(err, rooms.ErrRoomFull):
		return metrics.ReasonRoomFull, "Room is full"
	case errors.Is(err, rooms.ErrNameTaken):
		return metrics.ReasonNameTaken, "Name already taken"
	case errors.Is(err, rooms.ErrRoomNotFound):
		return metrics.ReasonRoomNotFound, "Room not found"
	default:
		return metrics.ReasonInvalid, err.Error()
	}
}
