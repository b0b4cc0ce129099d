package handlers

import (
	"log"

	"forestfight/services/match"
	"forestfight/services/security"
	socketio_types "forestfight/services/socket_io/types"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleGetGameState answers with the room snapshot clients render
// from: status, turn pointers, health, groups and the chat tail.
func HandleGetGameState(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		ack := ackOf(args)
		req, err := decodeRequest(sec, args)
		if err != nil {
			respondError(client, sec, username, ack, match.Validationf("Malformed request"))
			return
		}
		if !checkIdentity(req, username, client) {
			respondError(client, sec, username, ack, match.Validationf("Username mismatch"))
			return
		}

		state, err := engine.GameState(username, getString(req, "room_code"))
		if err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "get_game_state", ack, state)
	}
}

// HandleReconnect re-binds a returning player and triggers the private
// reconnection_sync push for a running match.
func HandleReconnect(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		ack := ackOf(args)
		req, err := decodeRequest(sec, args)
		if err != nil {
			respondError(client, sec, username, ack, match.Validationf("Malformed request"))
			return
		}
		if !checkIdentity(req, username, client) {
			respondError(client, sec, username, ack, match.Validationf("Username mismatch"))
			return
		}

		roomCode := getString(req, "room_code")
		log.Printf("[SESSION] %s reconnecting to room %s (socket %s)", username, roomCode, client.Id())

		if err := engine.Reconnect(string(client.Id()), username, roomCode); err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "reconnect_to_game", ack, gin.H{"success": true})
	}
}

// HandleDisconnecting runs while the socket is still attached. The
// engine starts the grace clock; the connection map entry goes away
// unless a fresh socket already replaced it.
func HandleDisconnecting(engine *match.Engine, sio *socketio_types.SocketServer, client *socket.Socket, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[SESSION] %s disconnecting (socket %s)", username, client.Id())
		engine.Disconnect(string(client.Id()))
		sio.RemoveConnection(username, client)
	}
}
