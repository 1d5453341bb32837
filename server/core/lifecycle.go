package core

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/automoto/netfps/shared/collider"
	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/tick"
	"github.com/yohamta/donburi"
)

var (
	ErrBadProtocol   = errors.New("protocol id mismatch")
	ErrBadKey        = errors.New("private key mismatch")
	ErrTokenExpired  = errors.New("connect token expired")
	ErrDuplicateID   = errors.New("client id already connected")
	ErrServerFull    = errors.New("server full")
	ErrNotAuthorized = errors.New("client id missing")
)

// validateAuth checks a connect request against the server's auth settings.
func validateAuth(key [netconfig.KeySize]byte, protocolID uint64, req messages.ConnectRequest, now time.Time) error {
	if req.ClientID == 0 {
		return ErrNotAuthorized
	}
	if req.ProtocolID != protocolID {
		return fmt.Errorf("%w: got %d", ErrBadProtocol, req.ProtocolID)
	}
	if len(req.PrivateKey) != netconfig.KeySize || subtle.ConstantTimeCompare(req.PrivateKey, key[:]) != 1 {
		return ErrBadKey
	}
	if req.TokenExpireSecs > 0 {
		expires := time.Unix(req.IssuedAt, 0).Add(time.Duration(req.TokenExpireSecs) * time.Second)
		if now.After(expires) {
			return ErrTokenExpired
		}
	}
	return nil
}

// acceptPlayer authenticates a connect request and, on success, spawns the
// player. The ConnectAccepted reply is queued before the player's group is
// replicated, so it always precedes the first spawn.
func (s *Server) acceptPlayer(p *peer, req messages.ConnectRequest, t tick.Tick) error {
	if err := validateAuth(s.key, s.cfg.Auth.ProtocolID, req, s.now()); err != nil {
		return err
	}
	client := netconfig.ClientID(req.ClientID)
	if _, taken := s.clients[client]; taken {
		return fmt.Errorf("%w: %d", ErrDuplicateID, client)
	}
	if s.cfg.MaxPlayers > 0 && len(s.clients) >= s.cfg.MaxPlayers {
		return ErrServerFull
	}

	root, body, err := s.spawnPlayer(client, req.PlayerName)
	if err != nil {
		return err
	}

	p.client = client
	p.accepted = true
	s.clients[client] = p

	spawn := s.arena.Spawn()
	nid, _ := s.rep.Identities().NetworkID(root)
	p.send(messages.ConnectAccepted{
		ClientID:   req.ClientID,
		NetworkID:  nid,
		ServerTick: uint32(t),
		TickRate:   s.clock.Rate(),
		Level:      s.arena.Name,
		SpawnX:     spawn.X(),
		SpawnY:     spawn.Y(),
		SpawnZ:     spawn.Z(),
	})
	s.rep.AddClient(client)
	s.sim.AddPlayer(newPlayerPhysics(client, root, body))

	log.Printf("[server] client %d (%s) joined as entity %d", client, p.conn.Id(), nid)
	return nil
}

// spawnPlayer creates the player entity at the level's spawn point, its
// body child, and the player's replication group.
func (s *Server) spawnPlayer(client netconfig.ClientID, name string) (donburi.Entity, donburi.Entity, error) {
	if name == "" {
		name = "unknown"
	}

	root := s.world.Create(
		netcomponents.PlayerID,
		netcomponents.PlayerName,
		netcomponents.Transform,
		netcomponents.Motion,
		netcomponents.Body,
	)
	entry := s.world.Entry(root)
	netcomponents.PlayerID.SetValue(entry, netcomponents.PlayerIDData{ClientID: uint64(client)})
	netcomponents.PlayerName.SetValue(entry, netcomponents.PlayerNameData{Name: name})
	netcomponents.Transform.SetValue(entry, netcomponents.NewTransform(s.arena.Spawn()))
	netcomponents.Body.SetValue(entry, netcomponents.BodyData{Kind: netconfig.BodyDynamic})

	body := s.world.Create(netcomponents.PlayerParent, collider.Spec)
	bodyEntry := s.world.Entry(body)
	netcomponents.PlayerParent.SetValue(bodyEntry, netcomponents.PlayerParentData{Parent: root})
	collider.Spec.SetValue(bodyEntry, collider.SpecData{
		Shape:       collider.Ball{Radius: bodyRadius},
		Mass:        collider.Mass(1),
		Fixed:       false,
		Friction:    0,
		Restitution: 0,
	})

	if _, err := s.rep.CreateGroup(client); err != nil {
		s.despawnRecursive(root)
		return 0, 0, err
	}
	for _, e := range []donburi.Entity{root, body} {
		if _, err := s.rep.AddEntity(client, s.world.Entry(e)); err != nil {
			return 0, 0, err
		}
	}
	return root, body, nil
}

// dropPlayer tears down everything a connected client owns. Calling it for
// a client that is not connected does nothing.
func (s *Server) dropPlayer(client netconfig.ClientID, t tick.Tick) {
	p, ok := s.clients[client]
	if !ok {
		return
	}
	delete(s.clients, client)
	p.accepted = false

	pp, _ := s.sim.RemovePlayer(client)
	entities, err := s.rep.RemoveGroup(client, t)
	if err != nil {
		log.Printf("[server] client %d: %v", client, err)
	}
	s.rep.RemoveClient(client)

	if pp != nil {
		s.despawnRecursive(pp.Entity)
	}
	// Anything that was grouped but not parented goes too.
	for _, e := range entities {
		s.despawnRecursive(e)
	}
	s.despawned++
	log.Printf("[server] client %d left, %d entities removed", client, len(entities))
}

// despawnRecursive removes e and every entity whose PlayerParent chain
// leads to it, releasing their colliders.
func (s *Server) despawnRecursive(e donburi.Entity) {
	if !s.world.Valid(e) {
		return
	}
	var children []donburi.Entity
	netcomponents.PlayerParent.Each(s.world, func(entry *donburi.Entry) {
		if netcomponents.PlayerParent.Get(entry).Parent == e {
			children = append(children, entry.Entity())
		}
	})
	for _, c := range children {
		s.despawnRecursive(c)
	}

	entry := s.world.Entry(e)
	if c, ok := collider.Of(entry); ok {
		s.arena.Space.Remove(c)
	}
	s.rep.Identities().Forget(e)
	s.world.Remove(e)
}
