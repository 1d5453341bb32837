package protocol

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/automoto/netfps/shared/messages"
	"github.com/automoto/netfps/shared/netconfig"
)

var (
	routesMu sync.RWMutex
	routes   = map[reflect.Type]netconfig.ChannelID{
		reflect.TypeFor[messages.ConnectRequest]():  netconfig.ChannelReliable,
		reflect.TypeFor[messages.ConnectAccepted](): netconfig.ChannelReliable,
		reflect.TypeFor[messages.ConnectRejected](): netconfig.ChannelReliable,
		reflect.TypeFor[messages.SpawnMessage]():    netconfig.ChannelReliable,
		reflect.TypeFor[messages.DespawnMessage]():  netconfig.ChannelReliable,
		reflect.TypeFor[messages.UpdateMessage]():   netconfig.ChannelPose,
		reflect.TypeFor[messages.InputMessage]():    netconfig.ChannelInput,
	}
)

// ChannelOf returns the channel msg travels on. Types without a route go
// reliable.
func ChannelOf(msg any) netconfig.ChannelSettings {
	routesMu.RLock()
	id, ok := routes[reflect.TypeOf(msg)]
	routesMu.RUnlock()
	if !ok {
		id = netconfig.ChannelReliable
	}
	c, _ := Channel(id)
	return c
}

// SetMessageChannel routes every message of sample's type to channel id.
// Call it before any connection is made.
func SetMessageChannel(sample any, id netconfig.ChannelID) error {
	if _, ok := Channel(id); !ok {
		return fmt.Errorf("protocol: unknown channel %d", id)
	}
	routesMu.Lock()
	routes[reflect.TypeOf(sample)] = id
	routesMu.Unlock()
	return nil
}

// LatestWins reports whether only the newest msg per sequence key is worth
// delivering: its channel is sequenced and the message carries a key.
func LatestWins(msg any) (messages.Sequenced, bool) {
	if ChannelOf(msg).Consistency != netconfig.UnorderedSequenced {
		return nil, false
	}
	s, ok := msg.(messages.Sequenced)
	return s, ok
}
