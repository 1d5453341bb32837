package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/automoto/netfps/shared/arena"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/protocol"
	"github.com/automoto/netfps/shared/replication"
	"github.com/automoto/netfps/shared/tick"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/yohamta/donburi"
)

// commandQueueSize bounds the queue between transport callbacks and the
// game loop.
const commandQueueSize = 1024

type commandKind int

const (
	cmdConnect commandKind = iota
	cmdJoin
	cmdInput
	cmdDisconnect
)

// command is how transport goroutines talk to the game loop. Nothing else
// crosses that boundary.
type command struct {
	kind  commandKind
	conn  Conn
	join  messages.ConnectRequest
	input messages.InputMessage
	err   error
}

// Server manages the game state and client connections
type Server struct {
	cfg   Config
	key   [netconfig.KeySize]byte
	world donburi.World
	clock *tick.Clock
	loop  *tick.Loop
	arena *arena.Arena
	sim   *Simulator
	rep   *replication.Replicator

	transport *transports.WsServerTransport
	commands  chan command

	// Loop-owned.
	peers   map[string]*peer
	clients map[netconfig.ClientID]*peer

	// inline flushes peer outboxes on the loop goroutine instead of on
	// writer goroutines.
	inline    bool
	now       func() time.Time
	despawned int
}

// NewServer creates a new game server. The level is loaded before the
// first tick.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := cfg.Auth.Key()
	if err != nil {
		return nil, err
	}
	registry, err := protocol.RegisterComponents()
	if err != nil {
		return nil, fmt.Errorf("register components: %w", err)
	}

	world := donburi.NewWorld()
	a, err := LoadArena(world, cfg.AssetsDir, cfg.Level)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, key, world, a, registry), nil
}

func newServer(cfg Config, key [netconfig.KeySize]byte, world donburi.World, a *arena.Arena, registry *replication.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		key:      key,
		world:    world,
		clock:    tick.NewClock(cfg.TickRate),
		arena:    a,
		rep:      replication.NewReplicator(world, registry),
		commands: make(chan command, commandQueueSize),
		peers:    make(map[string]*peer),
		clients:  make(map[netconfig.ClientID]*peer),
		now:      time.Now,
	}
	s.sim = NewSimulator(world, a)
	s.loop = tick.NewLoop("server", s.clock, s.tick)
	return s
}

// Start registers the transport callbacks, starts the game loop and serves
// websocket connections on port. It blocks until the transport stops.
func (s *Server) Start(ctx context.Context, port uint) error {
	s.setupRouterCallbacks()
	go s.loop.Run(ctx)

	s.transport = transports.NewWsServerTransport(port, "", nil)
	return s.transport.Start()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	s.loop.Stop()
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		s.enqueue(command{kind: cmdConnect, conn: client}, true)
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		s.enqueue(command{kind: cmdDisconnect, conn: client, err: err}, true)
	})

	router.On(func(client *router.NetworkClient, req messages.ConnectRequest) {
		s.enqueue(command{kind: cmdJoin, conn: client, join: req}, true)
	})

	// Input is dropped rather than blocking the transport; the client resends
	// unacknowledged frames anyway.
	router.On(func(client *router.NetworkClient, msg messages.InputMessage) {
		s.enqueue(command{kind: cmdInput, conn: client, input: msg}, false)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.Printf("[server] client %s error: %v", client.Id(), err)
	})
}

// enqueue hands a command to the loop. Structural commands block so they
// are never lost; input commands are dropped when the queue is full.
func (s *Server) enqueue(cmd command, block bool) bool {
	if block {
		s.commands <- cmd
		return true
	}
	select {
	case s.commands <- cmd:
		return true
	default:
		return false
	}
}

// ProcessCommands applies every queued command. Called at the start of each
// tick, on the loop goroutine.
func (s *Server) ProcessCommands(t tick.Tick) {
	for {
		select {
		case cmd := <-s.commands:
			s.apply(cmd, t)
		default:
			return
		}
	}
}

func (s *Server) apply(cmd command, t tick.Tick) {
	id := cmd.conn.Id()
	switch cmd.kind {
	case cmdConnect:
		if _, ok := s.peers[id]; ok {
			return
		}
		p := newPeer(cmd.conn)
		s.peers[id] = p
		if !s.inline {
			go p.run()
		}
		log.Printf("[server] connection %s opened", id)

	case cmdJoin:
		p, ok := s.peers[id]
		if !ok {
			// Join raced ahead of the connect callback.
			p = newPeer(cmd.conn)
			s.peers[id] = p
			if !s.inline {
				go p.run()
			}
		}
		if p.accepted {
			log.Printf("[server] connection %s sent a second connect request", id)
			return
		}
		if err := s.acceptPlayer(p, cmd.join, t); err != nil {
			log.Printf("[server] rejecting connection %s: %v", id, err)
			p.send(messages.ConnectRejected{Reason: err.Error()})
		}

	case cmdInput:
		p, ok := s.peers[id]
		if !ok || !p.accepted {
			return
		}
		s.sim.PushInput(p.client, cmd.input, t)

	case cmdDisconnect:
		p, ok := s.peers[id]
		if !ok {
			return
		}
		delete(s.peers, id)
		if p.accepted {
			s.dropPlayer(p.client, t)
		}
		p.close()
		if cmd.err != nil {
			log.Printf("[server] connection %s closed: %v", id, cmd.err)
		} else {
			log.Printf("[server] connection %s closed", id)
		}
	}
}

// PlayerCount returns the number of joined players. Loop goroutine only.
func (s *Server) PlayerCount() int {
	return len(s.clients)
}
