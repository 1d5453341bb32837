package protocol

import (
	"github.com/automoto/netfps/shared/netcomponents"
	"github.com/automoto/netfps/shared/netconfig"
	"github.com/automoto/netfps/shared/replication"
	"github.com/yohamta/donburi"
)

// Component wire tags. Tags are part of the protocol: never renumber.
const (
	TagPlayerID     netconfig.ComponentTag = 10
	TagPlayerName   netconfig.ComponentTag = 11
	TagTransform    netconfig.ComponentTag = 12
	TagMotion       netconfig.ComponentTag = 13
	TagBody         netconfig.ComponentTag = 14
	TagPlayerParent netconfig.ComponentTag = 15
)

// Channels lists the message channels. ChannelOf maps message types onto
// them; the consistency of a channel decides how peers queue its traffic.
var Channels = []netconfig.ChannelSettings{
	{ID: netconfig.ChannelReliable, Name: "reliable", Consistency: netconfig.OrderedReliable, Priority: 10},
	{ID: netconfig.ChannelPose, Name: "pose", Consistency: netconfig.UnorderedSequenced, Priority: 5},
	{ID: netconfig.ChannelInput, Name: "input", Consistency: netconfig.UnorderedSequenced, Priority: 8},
}

// Channel returns the settings of a channel.
func Channel(id netconfig.ChannelID) (netconfig.ChannelSettings, bool) {
	for _, c := range Channels {
		if c.ID == id {
			return c, true
		}
	}
	return netconfig.ChannelSettings{}, false
}

// RegisterComponents builds the registry of replicated components.
// Server and client must both call it before any network operations.
func RegisterComponents() (*replication.Registry, error) {
	r := replication.NewRegistry()
	err := r.Register(
		replication.Component(TagPlayerID, "PlayerID", netcomponents.PlayerID, netconfig.SyncOnce),
		replication.Component(TagPlayerName, "PlayerName", netcomponents.PlayerName, netconfig.SyncOnce),
		replication.Component(TagBody, "Body", netcomponents.Body, netconfig.SyncOnce),

		// Transform is predicted by the owner and interpolated by everyone else.
		replication.Component(TagTransform, "Transform", netcomponents.Transform, netconfig.SyncFull,
			replication.Interpolated()),

		// Motion is the rest of the state prediction needs; nobody else cares.
		replication.Component(TagMotion, "Motion", netcomponents.Motion, netconfig.SyncFull,
			replication.OwnerOnly()),

		replication.Ref(TagPlayerParent, "PlayerParent", netcomponents.PlayerParent, netconfig.SyncOnce,
			func(p netcomponents.PlayerParentData) donburi.Entity { return p.Parent },
			func(e donburi.Entity) netcomponents.PlayerParentData {
				return netcomponents.PlayerParentData{Parent: e}
			}),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}
