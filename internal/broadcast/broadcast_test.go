package broadcast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(b *Broadcaster, id string, size int) chan []byte {
	ch := make(chan []byte, size)
	b.Register(id, ch)
	return ch
}

func recv(t *testing.T, ch chan []byte) map[string]any {
	t.Helper()
	select {
	case data := <-ch:
		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		return got
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func assertEmpty(t *testing.T, ch chan []byte) {
	t.Helper()
	select {
	case data := <-ch:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func TestBroadcaster_ToRoom(t *testing.T) {
	b := NewBroadcaster()
	c1 := register(b, "c1", 4)
	c2 := register(b, "c2", 4)
	other := register(b, "c3", 4)

	b.Subscribe("c1", "AB12")
	b.Subscribe("c2", "AB12")
	b.Subscribe("c3", "ZZZZ")

	b.ToRoom("AB12", Message{Event: "players-updated", Data: []string{"Alice"}})

	for _, ch := range []chan []byte{c1, c2} {
		got := recv(t, ch)
		assert.Equal(t, "players-updated", got["event"])
		assert.Equal(t, []any{"Alice"}, got["data"])
	}
	assertEmpty(t, other)
}

func TestBroadcaster_ToRoomExcept(t *testing.T) {
	b := NewBroadcaster()
	c1 := register(b, "c1", 4)
	c2 := register(b, "c2", 4)
	b.Subscribe("c1", "AB12")
	b.Subscribe("c2", "AB12")

	b.ToRoomExcept("AB12", "c1", Message{Event: "score-update"})

	assertEmpty(t, c1)
	assert.Equal(t, "score-update", recv(t, c2)["event"])
}

func TestBroadcaster_ToConn(t *testing.T) {
	b := NewBroadcaster()
	c1 := register(b, "c1", 4)
	c2 := register(b, "c2", 4)

	b.ToConn("c2", Message{Event: "join-error", Data: map[string]string{"message": "full"}})
	b.ToConn("missing", Message{Event: "join-error"})

	assertEmpty(t, c1)
	got := recv(t, c2)
	assert.Equal(t, "join-error", got["event"])
}

func TestBroadcaster_SubscribeMovesRooms(t *testing.T) {
	b := NewBroadcaster()
	c1 := register(b, "c1", 4)

	b.Subscribe("c1", "AB12")
	b.Subscribe("c1", "CD34")

	assert.Equal(t, 0, b.Members("AB12"))
	assert.Equal(t, 1, b.Members("CD34"))

	b.ToRoom("AB12", Message{Event: "old"})
	assertEmpty(t, c1)
	b.ToRoom("CD34", Message{Event: "new"})
	assert.Equal(t, "new", recv(t, c1)["event"])
}

func TestBroadcaster_UnregisterClosesOutbox(t *testing.T) {
	b := NewBroadcaster()
	c1 := register(b, "c1", 4)
	b.Subscribe("c1", "AB12")

	b.Unregister("c1")
	b.Unregister("c1")

	_, ok := <-c1
	assert.False(t, ok, "outbox should be closed")
	assert.Equal(t, 0, b.Members("AB12"))

	// sending to a gone connection must not panic
	b.ToRoom("AB12", Message{Event: "x"})
	b.ToConn("c1", Message{Event: "x"})
}

func TestBroadcaster_CloseRoom(t *testing.T) {
	b := NewBroadcaster()
	c1 := register(b, "c1", 4)
	b.Subscribe("c1", "AB12")

	b.CloseRoom("AB12")
	b.ToRoom("AB12", Message{Event: "x"})

	assertEmpty(t, c1)
	assert.Equal(t, 0, b.Members("AB12"))
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	b := NewBroadcaster()
	dropped := 0
	b.OnDrop = func(string) { dropped++ }

	c := register(b, "c1", 1)
	b.Subscribe("c1", "AB12")

	done := make(chan struct{})
	go func() {
		b.ToRoom("AB12", Message{Event: "fill"})
		b.ToRoom("AB12", Message{Event: "overflow"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ToRoom blocked on full channel")
	}

	assert.Equal(t, "fill", recv(t, c)["event"])
	assertEmpty(t, c)
	assert.Equal(t, 1, dropped)
}

func TestBroadcaster_PreservesOrder(t *testing.T) {
	b := NewBroadcaster()
	c := register(b, "c1", 8)
	b.Subscribe("c1", "AB12")

	for _, ev := range []string{"playerLeft", "hostChanged", "players-updated"} {
		b.ToRoom("AB12", Message{Event: ev})
	}

	var got []any
	for i := 0; i < 3; i++ {
		got = append(got, recv(t, c)["event"])
	}
	assert.Equal(t, []any{"playerLeft", "hostChanged", "players-updated"}, got)
}

func TestBroadcaster_MarshalErrorIsSwallowed(t *testing.T) {
	b := NewBroadcaster()
	c := register(b, "c1", 1)

	b.ToConn("c1", Message{Event: "bad", Data: make(chan int)})
	assertEmpty(t, c)
}
