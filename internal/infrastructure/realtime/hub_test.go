package realtime

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_BroadcastToChannel(t *testing.T) {
	hub := NewHub(0, 4, zap.NewNop())

	storeClient, err := hub.Subscribe(StoreChannel("1"))
	require.NoError(t, err)
	otherClient, err := hub.Subscribe(StoreChannel("2"))
	require.NoError(t, err)

	hub.Broadcast(Message{Channel: StoreChannel("1"), Event: "StoreUpdated"})

	select {
	case msg := <-storeClient.Outbound:
		assert.Equal(t, "StoreUpdated", msg.Event)
	default:
		t.Fatal("subscriber did not receive the message")
	}
	assert.Empty(t, otherClient.Outbound)
	assert.Equal(t, 2, hub.ClientCount())
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	hub := NewHub(0, 1, zap.NewNop())
	c, err := hub.Subscribe("orders:1")
	require.NoError(t, err)

	hub.Broadcast(Message{Channel: "orders:1", Event: "a"})
	hub.Broadcast(Message{Channel: "orders:1", Event: "b"})

	assert.Len(t, c.Outbound, 1)
	assert.Equal(t, "a", (<-c.Outbound).Event)
}

func TestHub_MaxClients(t *testing.T) {
	hub := NewHub(1, 1, zap.NewNop())
	c, err := hub.Subscribe("store:1")
	require.NoError(t, err)

	_, err = hub.Subscribe("store:1")
	assert.ErrorIs(t, err, ErrTooManyClients)

	hub.Unsubscribe(c)
	hub.Unsubscribe(c)
	_, err = hub.Subscribe("store:1")
	assert.NoError(t, err)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(0, 1, zap.NewNop())
	c, err := hub.Subscribe("store:1")
	require.NoError(t, err)

	hub.Close()

	select {
	case <-c.Done:
	default:
		t.Fatal("client was not disconnected")
	}
	assert.Zero(t, hub.ClientCount())
	_, err = hub.Subscribe("store:1")
	assert.ErrorIs(t, err, ErrHubClosed)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWriteStream(t *testing.T) {
	hub := NewHub(0, 4, zap.NewNop())
	c, err := hub.Subscribe(OrderChannel("312345"))
	require.NoError(t, err)

	msg, err := NewMessage(OrderChannel("312345"), "OrderPaid", "evt-1", map[string]any{"is_paid": true})
	require.NoError(t, err)
	hub.Broadcast(msg)

	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WriteStream(ctx, out, func() {}, c, 5*time.Millisecond) }()

	require.Eventually(t, func() bool {
		s := out.String()
		return bytes.Contains([]byte(s), []byte("event: OrderPaid\nid: evt-1\ndata: {\"is_paid\":true}\n\n")) &&
			bytes.Contains([]byte(s), []byte(": ping\n\n"))
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "event: connected\n")
}

func TestWriteStream_EndsWhenClientRemoved(t *testing.T) {
	hub := NewHub(0, 1, zap.NewNop())
	c, err := hub.Subscribe("store:1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- WriteStream(context.Background(), &syncBuffer{}, func() {}, c, time.Hour) }()

	hub.Unsubscribe(c)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not end")
	}
}
