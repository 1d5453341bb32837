package messages

import "github.com/leap-fish/necs/esync"

// ComponentData is one serialized component tagged with its wire tag.
type ComponentData struct {
	Tag  uint8
	Data []byte
}

// EntityState is the serialized state of one entity.
type EntityState struct {
	Entity     esync.NetworkId
	Components []ComponentData
}

// SpawnMessage introduces entities of one replication group to a client. It
// travels on the reliable channel and always precedes any UpdateMessage for
// the same entities.
type SpawnMessage struct {
	Seq   uint32
	Tick  uint32
	Group uint64
	// Predicted is set when the receiving client owns the group and must
	// predict it instead of interpolating it.
	Predicted bool
	Entities  []EntityState
}

// UpdateMessage carries the Full components of every entity of one group for
// one server tick, so a group is never observed half-updated.
type UpdateMessage struct {
	Tick  uint32
	Group uint64
	// Input reports how the receiving client's input is arriving. Only set
	// for the owner of the group.
	Input    InputStatus
	Entities []EntityState
}

// SequenceKey and SequenceTick make UpdateMessage latest-wins per group on
// sequenced channels.
func (m UpdateMessage) SequenceKey() uint64 { return m.Group }
func (m UpdateMessage) SequenceTick() uint32 { return m.Tick }

// Sequenced is implemented by messages of which only the newest per key is
// worth delivering.
type Sequenced interface {
	SequenceKey() uint64
	SequenceTick() uint32
}

// DespawnMessage removes entities of one group from a client. Reliable channel.
type DespawnMessage struct {
	Seq      uint32
	Tick     uint32
	Group    uint64
	Entities []esync.NetworkId
}
