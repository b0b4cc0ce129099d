package match

import (
	"log"

	game_constants "forestfight/constants/game"
	redis_models "forestfight/models/redis"
)

// GameState returns the client-facing snapshot of a room: status,
// turn pointers, health, groups and a bounded chat tail.
func (e *Engine) GameState(username, roomCode string) (map[string]interface{}, error) {
	if username == "" || roomCode == "" {
		return nil, Validationf("Missing room code or username")
	}

	var state map[string]interface{}
	err := e.withRoom(roomCode, func(room *redis_models.Room) error {
		ms := room.MatchState

		// Pointers are null until the match runs.
		var currentPlayer, nextPlayer interface{}
		if ms.Status == game_constants.StatusStarted {
			current, next := resolvePointers(room)
			currentPlayer, nextPlayer = current, next
		}

		state = map[string]interface{}{
			"status":           ms.Status,
			"turn":             ms.Turn,
			"current_player":   currentPlayer,
			"next_player":      nextPlayer,
			"character_health": room.CharacterHealth,
			"chat_log":         room.ChatTail(game_constants.ChatTailGameState),
			"group1":           room.Group1,
			"group2":           room.Group2,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"game_state": state}, nil
}

// Reconnect re-binds a returning player's socket and pushes a private
// full sync of the running match. Rooms that are gone, not started, or
// that the player never fought in produce no response at all.
func (e *Engine) Reconnect(connID, username, roomCode string) error {
	if username == "" || roomCode == "" {
		return Validationf("Missing username or room code")
	}

	// The pending purge dies first, before any state is evaluated.
	if e.timers.CancelDisconnect(username, roomCode) {
		log.Printf("[MATCH] %s reconnected to room %s inside the grace period", username, roomCode)
	}
	e.registry.Bind(connID, username, roomCode)

	err := e.withRoom(roomCode, func(room *redis_models.Room) error {
		if room.MatchState.Status != game_constants.StatusStarted {
			log.Printf("[MATCH] No sync for %s: room %s is %s", username, roomCode, room.MatchState.Status)
			return nil
		}
		if _, _, ok := room.GroupOf(username); !ok {
			log.Printf("[MATCH] No sync for %s: not seated in room %s", username, roomCode)
			return nil
		}

		current, next := resolvePointers(room)

		turnTimer := map[string]interface{}{}
		if start, duration, ok := e.timers.TurnDeadline(roomCode); ok {
			turnTimer = map[string]interface{}{
				"start_time": start.Unix(),
				"end_time":   start.Add(duration).Unix(),
				"duration":   int(duration.Seconds()),
			}
		}

		e.bcast.ToPlayer(roomCode, username, "reconnection_sync", map[string]interface{}{
			"event":            "reconnection_sync",
			"current_player":   current,
			"next_player":      next,
			"character_health": room.CharacterHealth,
			"group1":           room.Group1,
			"group2":           room.Group2,
			"chat_log":         room.ChatTail(game_constants.ChatTailReconnect),
			"turn_timer":       turnTimer,
			"game_status":      room.MatchState.Status,
			"turn":             room.MatchState.Turn,
		})
		return nil
	})
	if err != nil {
		if KindOf(err) == KindNotFound {
			log.Printf("[MATCH] Reconnect by %s to missing room %s ignored", username, roomCode)
			return nil
		}
		return err
	}
	return nil
}

// Disconnect drops a socket's presence immediately and gives the
// player the grace period to come back before the room forgets them.
func (e *Engine) Disconnect(connID string) {
	sess, ok := e.registry.Unbind(connID)
	if !ok {
		return
	}

	log.Printf("[MATCH] %s disconnected from room %s, purge in %s", sess.Username, sess.Room, e.cfg.DisconnectGrace)
	e.timers.ScheduleDisconnect(sess.Username, sess.Room, e.cfg.DisconnectGrace, func() {
		if err := e.purge(sess.Username, sess.Room); err != nil {
			log.Printf("[MATCH] Purge of %s from room %s failed: %v", sess.Username, sess.Room, err)
		}
	})
}

// purge removes a player who never came back from every part of the
// room document and tells the survivors. Runs from the disconnect
// grace timer.
func (e *Engine) purge(username, roomCode string) error {
	err := e.withRoom(roomCode, func(room *redis_models.Room) error {
		ms := &room.MatchState
		if ms.Status == game_constants.StatusEnded {
			return nil
		}

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
		if _, ok := room.CharacterHealth[username]; ok {
			delete(room.CharacterHealth, username)
			changed = true
		}
		if room.IsReady(username) {
			room.ReadyPlayers = removeString(room.ReadyPlayers, username)
			changed = true
		}
		if indexOf(ms.PlayerOrder, username) >= 0 {
			ms.PlayerOrder = removeString(ms.PlayerOrder, username)
			changed = true
		}
		if !changed {
			return nil
		}

		cancelTimer, rearmTimer := false, false
		if ms.Status == game_constants.StatusStarted {
			cancelTimer, rearmTimer = repairPointers(room, username)
		}

		if err := e.saveRoom(room); err != nil {
			return err
		}
		if cancelTimer {
			e.timers.CancelTurn(roomCode)
		}
		if rearmTimer {
			e.armTurn(room)
		}

		e.bcast.ToRoom(roomCode, "update", map[string]interface{}{
			"type":      "player_left",
			"username":  username,
			"room_code": roomCode,
			"reason":    "disconnected",
		})
		log.Printf("[MATCH] Purged %s from room %s after the grace period", username, roomCode)
		return nil
	})
	if err != nil && KindOf(err) == KindNotFound {
		return nil
	}
	return err
}

// repairPointers keeps current/next pointing into the order after a
// purge. A purged current player's turn passes to the cached next
// without bumping the turn counter. Runs before the save; the caller
// applies the returned timer actions after it commits.
func repairPointers(room *redis_models.Room, removed string) (cancelTimer, rearmTimer bool) {
	ms := &room.MatchState
	if len(ms.PlayerOrder) == 0 {
		ms.CurrentPlayer = ""
		ms.NextPlayer = ""
		return true, false
	}

	if ms.CurrentPlayer == removed {
		if ms.NextPlayer != "" && ms.NextPlayer != removed && indexOf(ms.PlayerOrder, ms.NextPlayer) >= 0 {
			ms.CurrentPlayer = ms.NextPlayer
		} else {
			ms.CurrentPlayer = ms.PlayerOrder[ms.Turn%len(ms.PlayerOrder)]
		}
		ms.NextPlayer = findNextActive(room, ms.CurrentPlayer)
		return false, true
	}
	if ms.NextPlayer == removed {
		ms.NextPlayer = findNextActive(room, ms.CurrentPlayer)
	}
	return false, false
}

// resolvePointers returns current/next, computing whichever the stored
// document is missing without persisting the result.
func resolvePointers(room *redis_models.Room) (string, string) {
	ms := room.MatchState
	current, next := ms.CurrentPlayer, ms.NextPlayer
	if current == "" && len(ms.PlayerOrder) > 0 {
		current = ms.PlayerOrder[ms.Turn%len(ms.PlayerOrder)]
	}
	if next == "" && current != "" {
		next = findNextActive(room, current)
	}
	return current, next
}
