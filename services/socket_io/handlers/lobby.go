package handlers

import (
	"log"

	"forestfight/services/match"
	"forestfight/services/security"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleJoinRoom puts the authenticated socket into a room's lobby and
// announces the arrival to everyone already there.
func HandleJoinRoom(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		ack := ackOf(args)
		req, err := decodeRequest(sec, args)
		if err != nil {
			log.Printf("[LOBBY] Undecodable join_room from %s: %v", username, err)
			respondError(client, sec, username, ack, match.Validationf("Malformed request"))
			return
		}
		if !checkIdentity(req, username, client) {
			respondError(client, sec, username, ack, match.Validationf("Username mismatch"))
			return
		}

		roomCode := getString(req, "room_code")
		log.Printf("[LOBBY] %s joining room %s (socket %s)", username, roomCode, client.Id())

		if err := engine.JoinRoom(string(client.Id()), username, roomCode); err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "join_room", ack, gin.H{"success": true})
	}
}

// HandleJoinGroup seats the player in group1 or group2 with the
// character they picked.
func HandleJoinGroup(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
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
		group := getString(req, "group")
		character := getString(req, "character_name")
		log.Printf("[LOBBY] %s picking %s in %s of room %s", username, character, group, roomCode)

		if err := engine.AssignGroup(username, roomCode, group, character); err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "join_group", ack, gin.H{"success": true})
	}
}

// HandlePressReady marks the player ready; the final ready mark starts
// the match.
func HandlePressReady(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
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
		if err := engine.PressReady(username, roomCode); err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "press_ready", ack, gin.H{"success": true})
	}
}

// HandleUnpressReady clears the player's ready mark.
func HandleUnpressReady(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
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
		if err := engine.UnpressReady(username, roomCode); err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "unpress_ready", ack, gin.H{"success": true})
	}
}
