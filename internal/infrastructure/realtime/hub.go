package realtime

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrTooManyClients is returned when the hub is at capacity
	ErrTooManyClients = errors.New("maximum number of stream connections reached")
	ErrHubClosed      = errors.New("stream hub closed")
)

// Client is one connected stream
type Client struct {
	ID       string
	Channels []string
	Outbound chan Message
	Done     chan struct{}
}

// Hub tracks clients per channel and broadcasts without blocking
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]map[*Client]struct{}
	clients    map[*Client]struct{}
	maxClients int
	bufferSize int
	closed     bool
	logger     *zap.Logger
}

// NewHub creates a hub. maxClients <= 0 means unlimited.
func NewHub(maxClients, bufferSize int, logger *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		subs:       make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]struct{}),
		maxClients: maxClients,
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe registers a new client on channels
func (h *Hub) Subscribe(channels ...string) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		return nil, ErrTooManyClients
	}

	c := &Client{
		ID:       uuid.NewString(),
		Outbound: make(chan Message, h.bufferSize),
		Done:     make(chan struct{}),
	}
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		c.Channels = append(c.Channels, ch)
		set, ok := h.subs[ch]
		if !ok {
			set = make(map[*Client]struct{})
			h.subs[ch] = set
		}
		set[c] = struct{}{}
	}
	h.clients[c] = struct{}{}

	h.logger.Debug("stream client subscribed",
		zap.String("client_id", c.ID),
		zap.Strings("channels", c.Channels))
	return c, nil
}

// Unsubscribe removes the client. Safe to call more than once.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for _, ch := range c.Channels {
		if set, ok := h.subs[ch]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.subs, ch)
			}
		}
	}
	close(c.Done)
}

// Broadcast delivers msg to every client of its channel. Messages are
// dropped for clients whose buffer is full.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subs[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			h.logger.Warn("stream client buffer full, dropping message",
				zap.String("client_id", c.ID),
				zap.String("channel", msg.Channel),
				zap.String("event", msg.Event))
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.remove(c)
	}
}
