package network

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/protocol"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoinedGame
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoinedGame:
		return "joined"
	case StateError:
		return "error"
	}
	return "unknown"
}

var ErrNotConnected = errors.New("not connected")

// Auth is what a client presents to the server when it connects.
type Auth struct {
	ClientID   netconfig.ClientID
	ServerAddr string
	PrivateKey [netconfig.KeySize]byte
	ProtocolID uint64
	// TokenExpireSecs <= 0 means the token never expires.
	TokenExpireSecs int64
}

// Request builds the connect request for playerName, issued now.
func (a Auth) Request(playerName string, now time.Time) messages.ConnectRequest {
	return messages.ConnectRequest{
		ClientID:        uint64(a.ClientID),
		ServerAddr:      a.ServerAddr,
		PrivateKey:      append([]byte(nil), a.PrivateKey[:]...),
		ProtocolID:      a.ProtocolID,
		TokenExpireSecs: a.TokenExpireSecs,
		IssuedAt:        now.Unix(),
		PlayerName:      playerName,
	}
}

const (
	reliableBacklog = 256
	poseBacklog     = 64
)

// Client manages a WebSocket connection to the game server.
// All shared fields are protected by mu (router callbacks run on necs goroutines).
// Messages are queued for the game loop, which drains them once per tick.
type Client struct {
	mu sync.RWMutex

	state     ClientState
	lastError error
	auth      Auth
	name      string
	accepted  *messages.ConnectAccepted
	conn      *websocket.Conn
	ctx       context.Context

	// done is closed when the current connection is torn down.
	done     chan struct{}
	watchers sync.WaitGroup

	// Messages on reliable channels are never dropped; the callback blocks
	// when the loop falls behind.
	reliableCh chan any
	// Messages on sequenced channels are latest-wins: the oldest is dropped
	// on overflow.
	latestCh chan any
}

func NewClient(auth Auth, playerName string) *Client {
	return &Client{
		state:      StateDisconnected,
		auth:       auth,
		name:       playerName,
		reliableCh: make(chan any, reliableBacklog),
		latestCh:   make(chan any, poseBacklog),
	}
}

// Connect dials the server in a background goroutine and sends the connect
// request once the transport is up. Cancelling ctx disconnects.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.accepted = nil
	c.ctx = ctx
	if c.done != nil {
		close(c.done)
	}
	done := make(chan struct{})
	c.done = done
	addr := c.auth.ServerAddr
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		log.Println("[client] connected to server")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		if err := c.SendMessage(c.auth.Request(c.name, time.Now())); err != nil {
			c.setError(fmt.Errorf("failed to send connect request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.ConnectAccepted) {
		log.Printf("[client] connect accepted: clientID=%d networkID=%d tick=%d",
			msg.ClientID, msg.NetworkID, msg.ServerTick)
		c.mu.Lock()
		c.accepted = &msg
		c.state = StateJoinedGame
		c.mu.Unlock()
		c.queue(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.ConnectRejected) {
		log.Printf("[client] connect rejected: %s", msg.Reason)
		c.setError(fmt.Errorf("connect rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, msg messages.SpawnMessage) {
		c.queue(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.DespawnMessage) {
		c.queue(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.UpdateMessage) {
		c.queue(msg)
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] disconnected: %v", err)
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] error: %v", err)
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + addr)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()

	c.watchers.Add(1)
	go func() {
		defer c.watchers.Done()
		select {
		case <-ctx.Done():
			if c.State() != StateDisconnected {
				c.Disconnect()
			}
		case <-done:
		}
	}()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.accepted = nil
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
	drainChan(c.reliableCh)
	drainChan(c.latestCh)
}

// queue hands msg to the game loop according to its channel.
func (c *Client) queue(msg any) {
	if protocol.ChannelOf(msg).Consistency == netconfig.OrderedReliable {
		c.reliableCh <- msg
		return
	}
	select {
	case c.latestCh <- msg:
	default:
		select { // drop oldest, push latest
		case <-c.latestCh:
		default:
		}
		c.latestCh <- msg
	}
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// Accepted returns the server's accept message once the handshake is done.
func (c *Client) Accepted() (messages.ConnectAccepted, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accepted == nil {
		return messages.ConnectAccepted{}, false
	}
	return *c.accepted, true
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn, ctx := c.conn, c.ctx
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(ctx, websocket.MessageBinary, payload)
}

// Drain returns every queued message, reliable ones first. Non-blocking.
func (c *Client) Drain() []any {
	return append(drainChan(c.reliableCh), drainChan(c.latestCh)...)
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}

func drainChan[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}
