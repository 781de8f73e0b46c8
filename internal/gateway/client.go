package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/guildboard/internal/logging"
)

// Client is one authenticated board connection.
type Client struct {
	ConnID      string
	Info        ClientInfo
	AuthMethod  string
	ConnectedAt time.Time

	// ctx is the upgrade request's context; RPC calls derive from it.
	ctx   context.Context
	conn  *websocket.Conn
	calls atomic.Int64
	log   *logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient wraps a connection that has completed the handshake.
func NewClient(ctx context.Context, conn *websocket.Conn, info ClientInfo, authMethod string, log *logging.Logger) *Client {
	connID := uuid.New().String()
	return &Client{
		ConnID:      connID,
		Info:        info,
		AuthMethod:  authMethod,
		ConnectedAt: time.Now(),
		ctx:         ctx,
		conn:        conn,
		log:         log.With("connId", connID),
	}
}

// Send writes a frame. Writes are serialized; a closed client returns
// ErrClientClosed.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return c.conn.WriteJSON(frame)
}

// Respond answers request reqID with payload.
func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// RespondError answers request reqID with a protocol error.
func (c *Client) RespondError(reqID string, errShape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, errShape))
}

// ReadFrame blocks for the next frame.
func (c *Client) ReadFrame() (Frame, error) {
	var f Frame
	err := c.conn.ReadJSON(&f)
	return f, err
}

// Calls returns how many requests the client has made.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

// Close closes the connection once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// ClientRegistry tracks connected clients by connection id.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *logging.Logger
}

// NewClientRegistry creates an empty registry.
func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Add registers a client.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ConnID] = c
	r.log.Info().
		Str("connId", c.ConnID).
		Str("client", c.Info.ID).
		Str("auth", c.AuthMethod).
		Int("connected", len(r.clients)).
		Msg("client connected")
}

// Remove unregisters a client, logging how long it stayed and how much it asked.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[connID]
	if !ok {
		return
	}
	delete(r.clients, connID)
	r.log.Info().
		Str("connId", connID).
		Dur("uptime", time.Since(c.ConnectedAt)).
		Int64("calls", c.Calls()).
		Msg("client disconnected")
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll closes and forgets every client.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.Close()
		delete(r.clients, id)
	}
}
