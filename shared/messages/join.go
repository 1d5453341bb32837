package messages

import "github.com/leap-fish/necs/esync"

// ConnectRequest is the authentication payload a client sends right after the
// transport connects.
type ConnectRequest struct {
	ClientID   uint64
	ServerAddr string
	PrivateKey []byte
	ProtocolID uint64
	// TokenExpireSecs <= 0 means the token never expires (local/dev setups).
	TokenExpireSecs int64
	// IssuedAt is the client's Unix time when the token was created.
	IssuedAt   int64
	PlayerName string
}

// ConnectAccepted is sent by the server once the player entity exists.
type ConnectAccepted struct {
	ClientID   uint64
	NetworkID  esync.NetworkId
	ServerTick uint32
	TickRate   int
	// Level names the arena the server runs, so the client can build the
	// same collision world for prediction.
	Level  string
	SpawnX float64
	SpawnY float64
	SpawnZ float64
}

// ConnectRejected is sent by the server when a connect request is refused.
type ConnectRejected struct {
	Reason string
}
