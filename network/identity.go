package network

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"

	"github.com/automoto/netfps/shared/netconfig"
	"github.com/quasilyte/gdata"
)

const clientIDItem = "client_id"

var (
	ErrBadProfile = errors.New("network: profile must be letters, digits, '-' or '_'")
	profileName   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
)

// ClientIDItem returns the item name the client id of profile is kept
// under. The empty profile is the default one.
func ClientIDItem(profile string) (string, error) {
	if profile == "" {
		return clientIDItem, nil
	}
	if !profileName.MatchString(profile) {
		return "", fmt.Errorf("%w: %q", ErrBadProfile, profile)
	}
	return clientIDItem + "_" + profile, nil
}

// ItemStore is the part of a gdata manager the identity store needs.
type ItemStore interface {
	LoadItem(name string) ([]byte, error)
	SaveItem(name string, data []byte) error
}

// OpenIdentityStore opens the per-user data directory for appName.
func OpenIdentityStore(appName string) (ItemStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	return m, nil
}

// LoadClientID returns the client id of profile saved in store, creating and
// saving a random one on first use. Each profile has its own id. A nil store
// yields a fresh id every call.
func LoadClientID(store ItemStore, profile string) (netconfig.ClientID, error) {
	item, err := ClientIDItem(profile)
	if err != nil {
		return 0, err
	}
	if store != nil {
		data, err := store.LoadItem(item)
		if err != nil {
			log.Printf("[client] could not load client id: %v", err)
		}
		if len(data) > 0 {
			if id, err := strconv.ParseUint(string(data), 10, 64); err == nil && id != 0 {
				return netconfig.ClientID(id), nil
			}
			log.Printf("[client] ignoring corrupt client id %q", data)
		}
	}

	id, err := NewClientID()
	if err != nil {
		return 0, err
	}
	if store != nil {
		if err := store.SaveItem(item, []byte(strconv.FormatUint(uint64(id), 10))); err != nil {
			log.Printf("[client] could not save client id: %v", err)
		}
	}
	return id, nil
}

// NewClientID returns a random non-zero client id.
func NewClientID() (netconfig.ClientID, error) {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("generate client id: %w", err)
		}
		if id := binary.LittleEndian.Uint64(b[:]); id != 0 {
			return netconfig.ClientID(id), nil
		}
	}
}
