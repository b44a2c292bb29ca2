package messages

import "github.com/leap-fish/necs/esync"

// JoinRequest opens the handshake. It is the first message a client sends
// on a new connection.
type JoinRequest struct {
	// Version must match the server's protocol version exactly.
	Version    string
	PlayerName string
	// ReconnectToken is empty on a first join. After a dropped connection
	// it carries the token from the previous JoinAccepted so the server can
	// hand back the same network id.
	ReconnectToken string
}

// JoinAccepted answers a JoinRequest. A SessionInit follows it before any
// GlobalTick.
type JoinAccepted struct {
	// NetworkID is the id of the player this client controls; snapshots
	// with this id reconcile the predicted body.
	NetworkID      esync.NetworkId
	ReconnectToken string
	ServerName     string
	// TickRate is the nominal server steps per second. The live rate
	// arrives with every GlobalTick.
	TickRate float64
	// MapID names the level the client must load before stepping.
	MapID string
}

// JoinRejected ends the handshake; the server closes the connection after
// sending it.
type JoinRejected struct {
	Reason string
}
