package match

import (
	"log"
	"math/rand"

	game_constants "forestfight/constants/game"
	redis_models "forestfight/models/redis"
)

// JoinRoom binds a socket to a room and announces the arrival. Room
// membership itself is established over HTTP when the room is created
// or joined; this only makes the socket reachable for broadcasts.
func (e *Engine) JoinRoom(connID, username, roomCode string) error {
	if username == "" || roomCode == "" {
		return Validationf("Missing username or room code")
	}

	// A pending purge must die before anything else happens, or it
	// could fire between the bind and the first broadcast.
	if e.timers.CancelDisconnect(username, roomCode) {
		log.Printf("[MATCH] %s rejoined room %s inside the grace period", username, roomCode)
	}

	e.registry.Bind(connID, username, roomCode)

	e.bcast.ToRoom(roomCode, "new_player", map[string]interface{}{
		"username":  username,
		"room_code": roomCode,
	})
	return nil
}

// AssignGroup seats a player in one of the two groups under a chosen
// character and re-evaluates whether the match can start.
func (e *Engine) AssignGroup(username, roomCode, group, character string) error {
	if username == "" || roomCode == "" || group == "" || character == "" {
		return Validationf("Missing required fields")
	}
	if group != "group1" && group != "group2" {
		return Validationf("Unknown group %q", group)
	}

	return e.withRoom(roomCode, func(room *redis_models.Room) error {
		if room.MatchState.Status != game_constants.StatusNotStarted {
			return Validationf("Match already started")
		}

		if _, ok := room.CharacterHealth[username]; !ok {
			room.CharacterHealth[username] = game_constants.DefaultHealth
		}

		delete(room.Group1, username)
		delete(room.Group2, username)
		if group == "group1" {
			room.Group1[username] = character
		} else {
			room.Group2[username] = character
		}

		started := e.evaluateStart(room)
		if err := e.saveRoom(room); err != nil {
			return err
		}

		e.bcast.ToRoom(roomCode, "group_change", map[string]interface{}{
			"username":       username,
			"character_name": character,
			"group":          group,
			"room_code":      roomCode,
		})
		if started {
			e.announceStart(room)
		}
		return nil
	})
}

// PressReady marks a player ready and starts the match once everyone
// seated is ready.
func (e *Engine) PressReady(username, roomCode string) error {
	if username == "" || roomCode == "" {
		return Validationf("Missing username or room code")
	}

	return e.withRoom(roomCode, func(room *redis_models.Room) error {
		if !room.IsReady(username) {
			room.ReadyPlayers = append(room.ReadyPlayers, username)
		}

		started := e.evaluateStart(room)
		if err := e.saveRoom(room); err != nil {
			return err
		}

		e.bcast.ToRoom(roomCode, "player_ready", map[string]interface{}{
			"username":  username,
			"room_code": roomCode,
		})
		if started {
			e.announceStart(room)
		}
		return nil
	})
}

// UnpressReady takes a player's ready mark back. Removing a stray
// ready entry can itself complete the start condition, so the start
// check runs here too.
func (e *Engine) UnpressReady(username, roomCode string) error {
	if username == "" || roomCode == "" {
		return Validationf("Missing username or room code")
	}

	return e.withRoom(roomCode, func(room *redis_models.Room) error {
		kept := room.ReadyPlayers[:0]
		for _, p := range room.ReadyPlayers {
			if p != username {
				kept = append(kept, p)
			}
		}
		room.ReadyPlayers = kept

		started := e.evaluateStart(room)
		if err := e.saveRoom(room); err != nil {
			return err
		}

		e.bcast.ToRoom(roomCode, "player_unready", map[string]interface{}{
			"username":  username,
			"room_code": roomCode,
		})
		if started {
			e.announceStart(room)
		}
		return nil
	})
}

// evaluateStart flips the room into the started state when the lobby
// conditions hold. Mutation only; the caller persists and announces.
func (e *Engine) evaluateStart(room *redis_models.Room) bool {
	if room.MatchState.Status != game_constants.StatusNotStarted {
		return false
	}
	if len(room.Players) < game_constants.MinPlayersToStart {
		return false
	}
	if e.cfg.RequireBothGroups {
		if len(room.Group1) < 1 || len(room.Group2) < 1 {
			return false
		}
	} else {
		if len(room.Group1) < 1 && len(room.Group2) < 1 {
			return false
		}
	}
	if !sameMembers(room.ReadyPlayers, room.Players) {
		return false
	}

	order := make([]string, len(room.Players))
	copy(order, room.Players)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	room.MatchState.Status = game_constants.StatusStarted
	room.MatchState.PlayerOrder = order
	room.MatchState.CurrentPlayer = order[0]
	room.MatchState.NextPlayer = findNextActive(room, order[0])

	log.Printf("[MATCH] Room %s started with order %v", room.Code, order)
	return true
}

// announceStart tells the room the match began and arms the first
// turn's timer. Runs after the start transition is persisted.
func (e *Engine) announceStart(room *redis_models.Room) {
	e.bcast.ToRoom(room.Code, "match_started", map[string]interface{}{
		"event": "match_started",
	})
	e.armTurn(room)
}

func sameMembers(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	other := make(map[string]bool, len(b))
	for _, v := range b {
		other[v] = true
	}
	if len(set) != len(other) {
		return false
	}
	for v := range set {
		if !other[v] {
			return false
		}
	}
	return true
}
