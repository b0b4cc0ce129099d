package match

import (
	"log"

	game_constants "forestfight/constants/game"
	redis_models "forestfight/models/redis"
)

// FirstTurnAnnounce (re)announces whose turn it is. Clients send it
// right after the match starts; it is also a safe resync point, so it
// never errors on a room that is not mid-match, it just stays quiet.
func (e *Engine) FirstTurnAnnounce(roomCode string) error {
	if roomCode == "" {
		return Validationf("Missing room code")
	}

	return e.withRoom(roomCode, func(room *redis_models.Room) error {
		ms := &room.MatchState
		if ms.Status != game_constants.StatusStarted {
			log.Printf("[MATCH] Ignoring turn announce for room %s in state %s", roomCode, ms.Status)
			return nil
		}
		if len(ms.PlayerOrder) == 0 {
			return nil
		}

		// Documents written before pointers were seeded at start
		// lack current/next; recompute and persist them once.
		if ms.CurrentPlayer == "" {
			ms.CurrentPlayer = ms.PlayerOrder[ms.Turn%len(ms.PlayerOrder)]
			ms.NextPlayer = findNextActive(room, ms.CurrentPlayer)
			if err := e.saveRoom(room); err != nil {
				return err
			}
		}

		if _, _, ok := e.timers.TurnDeadline(roomCode); !ok {
			e.armTurn(room)
		}
		e.broadcastTurnStarted(room)
		return nil
	})
}

// advanceTurn moves the match to the next turn: bump the counter,
// drop defeated players from the order, promote the cached next
// player and recompute the one after. The caller persists.
func advanceTurn(room *redis_models.Room) (current, next string) {
	ms := &room.MatchState
	if ms.Status != game_constants.StatusStarted {
		return ms.CurrentPlayer, ms.NextPlayer
	}

	ms.Turn++

	kept := ms.PlayerOrder[:0]
	for _, p := range ms.PlayerOrder {
		if p != "" && room.Alive(p) {
			kept = append(kept, p)
		}
	}
	ms.PlayerOrder = kept

	if len(ms.PlayerOrder) == 0 {
		ms.CurrentPlayer = ""
		ms.NextPlayer = ""
		return "", ""
	}

	current = ms.NextPlayer
	if current == "" || indexOf(ms.PlayerOrder, current) < 0 {
		current = ms.PlayerOrder[ms.Turn%len(ms.PlayerOrder)]
	}
	ms.CurrentPlayer = current
	ms.NextPlayer = findNextActive(room, current)
	return ms.CurrentPlayer, ms.NextPlayer
}

// findNextActive scans the order forward from the current player,
// wrapping around, and returns the first player still considered
// alive. With everyone else defeated the scan wraps back to the
// current player; if even that fails, the immediate successor is
// returned unchecked.
func findNextActive(room *redis_models.Room, current string) string {
	order := room.MatchState.PlayerOrder
	if len(order) <= 1 {
		return ""
	}

	idx := indexOf(order, current)
	for i := 1; i <= len(order); i++ {
		candidate := order[(idx+i)%len(order)]
		if candidate != "" && room.Alive(candidate) {
			return candidate
		}
	}
	return order[(idx+1)%len(order)]
}

// armTurn starts the turn clock for the room's current player. With
// auto skip enabled the expiry runs the skip path, guarded against
// firing on a turn that already moved on.
func (e *Engine) armTurn(room *redis_models.Room) {
	code := room.Code
	if !e.cfg.AutoSkip {
		e.timers.ArmTurn(code, e.cfg.TurnDuration, nil)
		return
	}

	expectedCurrent := room.MatchState.CurrentPlayer
	expectedTurn := room.MatchState.Turn
	e.timers.ArmTurn(code, e.cfg.TurnDuration, func() {
		e.autoSkip(code, expectedCurrent, expectedTurn)
	})
}

func (e *Engine) autoSkip(code, expectedCurrent string, expectedTurn int) {
	err := e.withRoom(code, func(room *redis_models.Room) error {
		ms := room.MatchState
		if ms.Status != game_constants.StatusStarted ||
			ms.CurrentPlayer != expectedCurrent || ms.Turn != expectedTurn {
			log.Printf("[MATCH] Stale turn expiry in room %s (player %s, turn %d), ignoring", code, expectedCurrent, expectedTurn)
			return nil
		}
		log.Printf("[MATCH] Turn %d expired in room %s, skipping for %s", expectedTurn, code, expectedCurrent)
		return e.skipLocked(room, expectedCurrent)
	})
	if err != nil {
		log.Printf("[MATCH] Auto skip failed in room %s: %v", code, err)
	}
}

// broadcastTurnStarted announces the current turn together with the
// clock the clients count down from.
func (e *Engine) broadcastTurnStarted(room *redis_models.Room) {
	payload := map[string]interface{}{
		"current_player": room.MatchState.CurrentPlayer,
		"next_player":    room.MatchState.NextPlayer,
		"event":          "turn_started",
	}
	if start, duration, ok := e.timers.TurnDeadline(room.Code); ok {
		payload["start_time"] = start.Unix()
		payload["duration"] = int(duration.Seconds())
	}
	e.bcast.ToRoom(room.Code, "turn_started", payload)
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}
