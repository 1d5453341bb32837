// Package netconfig defines lightweight types shared between client and server
// for network serialization. It must have zero dependencies on ebiten or any
// graphics library so the dedicated server binary stays headless.
package netconfig

import "time"

// TickRate is the fixed simulation rate shared by client and server.
const TickRate = 64

// TickDuration is the wall-clock length of one simulation step.
const TickDuration = time.Second / TickRate

// ===== Buffers and timing (in ticks) =====
const (
	// InputBufferSize bounds the client input ring. Its capacity is the
	// largest round trip, in ticks, the client tolerates before inputs are lost.
	InputBufferSize = 128

	// InputRedundancy is how many of the newest unacknowledged frames ride
	// along with every input message.
	InputRedundancy = 8

	// ServerInputWindow bounds how far ahead of the server tick a frame may be.
	ServerInputWindow = 128

	// PredictionLogSize bounds the replay log of the local player.
	PredictionLogSize = 128

	// InterpolationDelayTicks is how far behind the newest snapshot remote
	// entities are rendered.
	InterpolationDelayTicks = 6

	// InterpolationBufferSize is the snapshot depth kept per remote entity.
	InterpolationBufferSize = 32

	// InputLeadTicks is how far ahead of the last seen server tick the client
	// clock runs, so inputs arrive before the server needs them.
	InputLeadTicks = 6

	// InputSlackTicks is the lead the client aims for once the server has
	// reported how early its input arrives.
	InputSlackTicks = 2

	// MaxInputLeadTicks is the reported lead above which the client pulls
	// its clock back towards InputSlackTicks.
	MaxInputLeadTicks = 32

	// SnapThreshold is the correction distance above which a reconciliation
	// is logged as a visible snap.
	SnapThreshold = 0.5
)

// ===== Authentication =====
const (
	// KeySize is the length of the shared private key.
	KeySize = 32

	// DefaultProtocolID is the protocol identifier used in dev builds.
	DefaultProtocolID uint64 = 0

	// DefaultPort is the server listen port.
	DefaultPort = 9393
)

// ClientID is the stable external identifier a client authenticates with.
type ClientID uint64

// SyncMode is the per-component replication policy.
type SyncMode int

const (
	// SyncOnce replicates on spawn only; the value is immutable afterwards.
	SyncOnce SyncMode = iota
	// SyncFull replicates every tick and takes part in prediction and
	// interpolation.
	SyncFull
)

func (m SyncMode) String() string {
	switch m {
	case SyncOnce:
		return "once"
	case SyncFull:
		return "full"
	}
	return "unknown"
}

// Direction says which way a component or message travels.
type Direction int

const (
	ServerToClient Direction = iota
	ClientToServer
	Bidirectional
)

// ComponentTag is the stable wire tag of a replicated component.
type ComponentTag uint8

// ChannelID is the stable wire tag of a message channel.
type ChannelID uint8

const (
	// ChannelReliable carries structural traffic: connect, spawn, despawn.
	ChannelReliable ChannelID = iota + 1
	// ChannelPose carries high-frequency pose updates. Only the newest
	// message per replication group is kept; stale ones are dropped.
	ChannelPose
	// ChannelInput carries client input frames.
	ChannelInput
)

// Consistency is the delivery guarantee of a channel.
type Consistency int

const (
	OrderedReliable Consistency = iota
	UnorderedSequenced
)

func (c Consistency) String() string {
	if c == OrderedReliable {
		return "ordered-reliable"
	}
	return "unordered-sequenced"
}

// ChannelSettings describes one channel.
type ChannelSettings struct {
	ID          ChannelID
	Name        string
	Consistency Consistency
	Priority    int
}

// BodyKind is the physics body type carried by the Body component.
type BodyKind int

const (
	BodyStatic BodyKind = iota
	BodyDynamic
)

func (k BodyKind) String() string {
	if k == BodyDynamic {
		return "dynamic"
	}
	return "static"
}
