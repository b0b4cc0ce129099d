package match

import (
	"log"

	game_constants "forestfight/constants/game"
	redis_models "forestfight/models/redis"
)

// CreateRoom opens a fresh lobby with the creator already seated. The
// creator is pulled out of every other room first so a player never
// occupies two rooms at once.
func (e *Engine) CreateRoom(username string) (string, error) {
	if username == "" {
		return "", Validationf("Missing username")
	}

	if err := e.leaveRooms(username, ""); err != nil {
		return "", err
	}

	code, err := e.store.GenerateRoomCode()
	if err != nil {
		log.Printf("[MATCH] Error generating a room code: %v", err)
		return "", Storef("Error creating room")
	}

	room := redis_models.NewRoom(code, username)
	if err := e.saveRoom(room); err != nil {
		return "", err
	}

	log.Printf("[MATCH] %s created room %s", username, code)
	return code, nil
}

// SeatPlayer adds a player to an existing lobby. Any other room the
// player was sitting in lets go of them first; the target room itself
// is left alone so duplicate seating can be rejected.
func (e *Engine) SeatPlayer(username, roomCode string) error {
	if username == "" || roomCode == "" {
		return Validationf("Missing username or room code")
	}

	if err := e.leaveRooms(username, roomCode); err != nil {
		return err
	}

	return e.withRoom(roomCode, func(room *redis_models.Room) error {
		if room.MatchState.Status == game_constants.StatusStarted {
			return Validationf("Game already started")
		}
		if room.HasPlayer(username) {
			return Validationf("Player already in the room")
		}

		room.Players = append(room.Players, username)
		return e.saveRoom(room)
	})
}

// RemoveFromRoom unseats a player from one room and tells the room.
// Health history stays behind so a started match keeps its numbers.
func (e *Engine) RemoveFromRoom(username, roomCode string) error {
	if username == "" || roomCode == "" {
		return Validationf("Missing username or room code")
	}

	return e.withRoom(roomCode, func(room *redis_models.Room) error {
		if !stripSeats(room, username) {
			return nil
		}

		if err := e.saveRoom(room); err != nil {
			return err
		}

		e.bcast.ToRoom(roomCode, "update", map[string]interface{}{
			"type":      "player_removed",
			"username":  username,
			"room_code": roomCode,
		})
		return nil
	})
}

// GroupRoster returns a copy of one group's seating, username to
// character name.
func (e *Engine) GroupRoster(roomCode, group string) (map[string]string, error) {
	if roomCode == "" {
		return nil, Validationf("Missing room code")
	}
	if group != "group1" && group != "group2" {
		return nil, Validationf("Unknown group %q", group)
	}

	var roster map[string]string
	err := e.withRoom(roomCode, func(room *redis_models.Room) error {
		src := room.Group1
		if group == "group2" {
			src = room.Group2
		}
		roster = make(map[string]string, len(src))
		for user, character := range src {
			roster[user] = character
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

// leaveRooms walks every stored room except the one named and strips
// the player's membership, announcing each departure. Rooms that fail
// to load or save are logged and skipped so one bad document cannot
// strand the player everywhere else.
func (e *Engine) leaveRooms(username, except string) error {
	codes, err := e.store.ListRoomCodes()
	if err != nil {
		log.Printf("[MATCH] Error listing rooms while moving %s: %v", username, err)
		return Storef("Error listing rooms")
	}

	for _, code := range codes {
		if code == except {
			continue
		}
		err := e.withRoom(code, func(room *redis_models.Room) error {
			changed := stripSeats(room, username)
			if indexOf(room.MatchState.PlayerOrder, username) >= 0 {
				room.MatchState.PlayerOrder = removeString(room.MatchState.PlayerOrder, username)
				changed = true
			}
			if !changed {
				return nil
			}

			cancelTimer, rearmTimer := false, false
			if room.MatchState.Status == game_constants.StatusStarted {
				cancelTimer, rearmTimer = repairPointers(room, username)
			}

			if err := e.saveRoom(room); err != nil {
				return err
			}
			if cancelTimer {
				e.timers.CancelTurn(code)
			}
			if rearmTimer {
				e.armTurn(room)
			}

			e.bcast.ToRoom(code, "update", map[string]interface{}{
				"type":      "player_left",
				"username":  username,
				"room_code": code,
			})
			return nil
		})
		if err != nil {
			log.Printf("[MATCH] Error removing %s from room %s: %v", username, code, err)
		}
	}
	return nil
}

// stripSeats removes a player's seat, group slot and ready mark,
// reporting whether the document changed. The turn order and health
// map are the caller's business.
func stripSeats(room *redis_models.Room, username string) bool {
	changed := false
	if room.HasPlayer(username) {
		room.Players = removeString(room.Players, username)
		changed = true
	}
	if _, ok := room.Group1[username]; ok {
		delete(room.Group1, username)
		changed = true
	}
	if _, ok := room.Group2[username]; ok {
		delete(room.Group2, username)
		changed = true
	}
	if room.IsReady(username) {
		room.ReadyPlayers = removeString(room.ReadyPlayers, username)
		changed = true
	}
	return changed
}
