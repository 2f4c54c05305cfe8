package wshub

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	sendBuffer   = 64
	readLimit    = 64 << 10
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Handler is the game side of a connection.
type Handler interface {
	Connect(connID string, outbox chan []byte)
	HandleFrame(connID string, frame []byte)
	Throttled(connID string)
	Disconnect(connID string)
}

type Limits struct {
	Rate  float64 // frames per second
	Burst int
}

// Client represents a single WebSocket connection.
type Client struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	limiter *rate.Limiter
}

func NewClient(conn *websocket.Conn, limits Limits) *Client {
	return &Client{
		ID:      uuid.NewString(),
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(limits.Rate), limits.Burst),
	}
}

// Serve runs conn until either side closes it. The handler sees exactly one
// Connect and one Disconnect.
func Serve(ctx context.Context, conn *websocket.Conn, h Handler, limits Limits) {
	c := NewClient(conn, limits)
	h.Connect(c.ID, c.Send)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.WritePump(ctx)

	err := c.ReadPump(ctx, h)
	h.Disconnect(c.ID)

	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
		log.Debug().Str("conn", c.ID).Msg("websocket closed")
		return
	}
	log.Debug().Err(err).Str("conn", c.ID).Msg("websocket read ended")
}

// ReadPump hands every text frame to h until the connection fails.
func (c *Client) ReadPump(ctx context.Context, h Handler) error {
	c.Conn.SetReadLimit(readLimit)
	for {
		typ, data, err := c.Conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		if !c.limiter.Allow() {
			h.Throttled(c.ID)
			continue
		}
		h.HandleFrame(c.ID, data)
	}
}

// WritePump reads from the Send channel and writes to the WebSocket
// connection, pinging while idle. It closes the connection once Send is
// closed.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.Conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Conn.Ping(pctx)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("conn", c.ID).Msg("ping failed")
				c.Conn.Close(websocket.StatusPolicyViolation, "ping timeout")
				return
			}
		}
	}
}
