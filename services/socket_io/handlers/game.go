package handlers

import (
	"log"

	"forestfight/services/match"
	"forestfight/services/security"

	"github.com/zishang520/socket.io/v2/socket"
)

// HandleGameStarted is the first-turn announcement clients send right
// after the start broadcast. It rebroadcasts turn_started with the
// clock, so it also works as a resync nudge.
func HandleGameStarted(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		ack := ackOf(args)
		req, err := decodeRequest(sec, args)
		if err != nil {
			respondError(client, sec, username, ack, match.Validationf("Malformed request"))
			return
		}

		roomCode := getString(req, "room_code")
		log.Printf("[GAME] %s announcing first turn of room %s", username, roomCode)

		if err := engine.FirstTurnAnnounce(roomCode); err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
	}
}

// HandleGetAbility resolves an ability's type, description and dice.
func HandleGetAbility(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
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

		ability, err := engine.Ability(getString(req, "ability"))
		if err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "get_ability", ack, ability)
	}
}

// HandleMakeMove applies an attack or heal. The client rolls the dice;
// the server validates the turn and applies the effect.
func HandleMakeMove(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
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

		value, ok := getInt(req, "value")
		if !ok {
			respondError(client, sec, username, ack, match.Validationf("Missing or invalid move value"))
			return
		}

		move := match.MoveRequest{
			Actor:      username,
			RoomCode:   getString(req, "room_code"),
			Ability:    getString(req, "ability"),
			TargetUser: getString(req, "target_user"),
			TargetName: getString(req, "target_name"),
			ActorName:  getString(req, "character"),
			Kind:       getString(req, "type"),
			Value:      value,
		}
		log.Printf("[GAME] %s using %s on %s in room %s", username, move.Ability, move.TargetUser, move.RoomCode)

		result, err := engine.MakeMove(move)
		if err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "make_move", ack, result)
	}
}

// HandleSkipTurn passes the current player's turn.
func HandleSkipTurn(engine *match.Engine, sec *security.Service, client *socket.Socket, username string) func(args ...interface{}) {
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
		log.Printf("[GAME] %s skipping their turn in room %s", username, roomCode)

		result, err := engine.SkipTurn(username, roomCode)
		if err != nil {
			respondError(client, sec, username, ack, err)
			return
		}
		respond(client, sec, username, "skip_turn", ack, result)
	}
}
