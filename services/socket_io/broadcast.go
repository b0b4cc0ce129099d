package socket_io

import (
	"log"

	"forestfight/services/match"
	"forestfight/services/security"
	socketio_types "forestfight/services/socket_io/types"
)

// RoomBroadcaster delivers engine events to sockets. Every payload is
// encrypted for its recipient, so a room broadcast is a loop over the
// room's sessions rather than a socket.io room emit.
type RoomBroadcaster struct {
	sio      *socketio_types.SocketServer
	registry *match.Registry
	security *security.Service
}

func NewRoomBroadcaster(sio *socketio_types.SocketServer, registry *match.Registry, sec *security.Service) *RoomBroadcaster {
	return &RoomBroadcaster{sio: sio, registry: registry, security: sec}
}

func (b *RoomBroadcaster) ToRoom(room string, event string, payload map[string]interface{}) {
	sessions := b.registry.SessionsInRoom(room)
	for _, sess := range sessions {
		b.deliver(sess.Username, event, payload)
	}
	log.Printf("[SOCKET] %s to room %s reached %d sockets", event, room, len(sessions))
}

func (b *RoomBroadcaster) ToPlayer(room string, username string, event string, payload map[string]interface{}) {
	if _, ok := b.registry.FindInRoom(room, username); !ok {
		log.Printf("[SOCKET] Dropping %s for %s: no session in room %s", event, username, room)
		return
	}
	b.deliver(username, event, payload)
}

func (b *RoomBroadcaster) deliver(username, event string, payload map[string]interface{}) {
	client, ok := b.sio.GetConnection(username)
	if !ok {
		return
	}
	if err := client.Emit(event, b.security.EncryptResponse(payload, username)); err != nil {
		log.Printf("[SOCKET] Emit %s to %s failed: %v", event, username, err)
	}
}
