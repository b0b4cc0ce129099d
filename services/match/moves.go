package match

import (
	"errors"
	"fmt"
	"log"
	"strings"

	game_constants "forestfight/constants/game"
	redis_models "forestfight/models/redis"

	"gorm.io/gorm"
)

// MoveRequest is a decrypted make_move payload. Actor and TargetUser
// are usernames; ActorName and TargetName are the display character
// names used in chat text.
type MoveRequest struct {
	Actor      string
	RoomCode   string
	Ability    string
	TargetUser string
	TargetName string
	ActorName  string
	Kind       string
	Value      int
}

// Ability returns the catalog record for one ability name.
func (e *Engine) Ability(name string) (map[string]interface{}, error) {
	if name == "" {
		return nil, Validationf("Missing ability name")
	}

	ability, err := e.abilities.GetAbility(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("Ability not found")
		}
		log.Printf("[MATCH] Error loading ability %q: %v", name, err)
		return nil, Storef("Error loading ability")
	}

	return map[string]interface{}{
		"type": ability.Type,
		"desc": ability.Description,
		"num":  ability.Num,
		"dice": ability.Dice,
	}, nil
}

// MakeMove resolves one combat action: the actor hits or heals the
// target, the result lands in the chat log, defeated players leave the
// order, and the match either advances a turn or ends.
func (e *Engine) MakeMove(req MoveRequest) (map[string]interface{}, error) {
	if req.Actor == "" || req.RoomCode == "" || req.Ability == "" ||
		req.TargetUser == "" || req.TargetName == "" || req.ActorName == "" {
		return nil, Validationf("Missing required fields")
	}
	if req.Kind != game_constants.MoveTypeAttack && req.Kind != game_constants.MoveTypeHeal {
		return nil, Validationf("Unknown move type %q", req.Kind)
	}
	if req.Value < 0 {
		return nil, Validationf("Move value must not be negative")
	}

	err := e.withRoom(req.RoomCode, func(room *redis_models.Room) error {
		ms := &room.MatchState
		if err := requireTurn(room, req.Actor); err != nil {
			return err
		}

		ability, err := e.abilities.GetAbility(req.Ability)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundf("Ability not found")
			}
			log.Printf("[MATCH] Error loading ability %q: %v", req.Ability, err)
			return Storef("Error loading ability")
		}

		if _, _, ok := room.GroupOf(req.TargetUser); !ok {
			return NotFoundf("Target not found")
		}

		e.timers.CancelTurn(req.RoomCode)

		health, tracked := room.CharacterHealth[req.TargetUser]
		if !tracked {
			health = game_constants.DefaultHealth
		}

		var newHealth int
		var effect string
		if req.Kind == game_constants.MoveTypeAttack {
			newHealth = health - req.Value
			if newHealth < 0 {
				newHealth = 0
			}
			effect = fmt.Sprintf("%s took %d damage!", req.TargetName, req.Value)
		} else {
			newHealth = health + req.Value
			if newHealth > game_constants.MaxHealth {
				newHealth = game_constants.MaxHealth
			}
			effect = fmt.Sprintf("%s healed for %d health!", req.TargetName, req.Value)
		}
		room.CharacterHealth[req.TargetUser] = newHealth

		chat := strings.ReplaceAll(ability.Chat, "[player1]", req.TargetName)
		chat = strings.ReplaceAll(chat, "[player2]", req.ActorName)
		room.ChatLog = append(room.ChatLog, redis_models.ChatEntry{
			Message: chat,
			Effect:  effect,
			Turn:    ms.Turn,
		})

		if newHealth <= 0 && indexOf(ms.PlayerOrder, req.TargetUser) >= 0 {
			if ms.NextPlayer == req.TargetUser {
				ms.NextPlayer = findNextActive(room, ms.CurrentPlayer)
			}
			ms.PlayerOrder = removeString(ms.PlayerOrder, req.TargetUser)
		}

		if winner, over := evaluateWin(room); over {
			return e.endMatch(room, winner)
		}

		current, next := advanceTurn(room)
		if err := e.saveRoom(room); err != nil {
			return err
		}

		e.bcast.ToRoom(req.RoomCode, "move_made", map[string]interface{}{
			"event":    "move_made",
			"username": req.Actor,
			"ability":  req.Ability,
			"target":   req.TargetName,
			"effect":   effect,
			"chat":     chat,
			"health": map[string]interface{}{
				req.TargetUser:   newHealth,
				"character_name": req.TargetName,
			},
			"current_player": current,
			"next_player":    next,
		})
		e.armTurn(room)
		e.broadcastTurnStarted(room)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"success": true}, nil
}

// SkipTurn passes the actor's turn without touching any health.
func (e *Engine) SkipTurn(username, roomCode string) (map[string]interface{}, error) {
	if username == "" || roomCode == "" {
		return nil, Validationf("Missing required fields")
	}

	err := e.withRoom(roomCode, func(room *redis_models.Room) error {
		if err := requireTurn(room, username); err != nil {
			return err
		}
		e.timers.CancelTurn(roomCode)
		return e.skipLocked(room, username)
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"success": true}, nil
}

// skipLocked appends the skip chat entry, checks the round limit and
// advances or ends. Called with the room lock held; the auto-skip
// expiry reuses it directly.
func (e *Engine) skipLocked(room *redis_models.Room, username string) error {
	room.ChatLog = append(room.ChatLog, redis_models.ChatEntry{
		Message: fmt.Sprintf("%s skipped their turn", username),
		Turn:    room.MatchState.Turn,
	})

	if winner, over := roundLimitWin(room); over {
		return e.endMatch(room, winner)
	}

	current, next := advanceTurn(room)
	if err := e.saveRoom(room); err != nil {
		return err
	}

	e.bcast.ToRoom(room.Code, "skip_made", map[string]interface{}{
		"event":          "skip_made",
		"username":       username,
		"current_player": current,
		"next_player":    next,
	})
	e.armTurn(room)
	e.broadcastTurnStarted(room)
	return nil
}

// requireTurn gates a combat action: the match must be running and the
// actor must hold the current turn.
func requireTurn(room *redis_models.Room, actor string) error {
	ms := room.MatchState
	if ms.Status != game_constants.StatusStarted {
		return TurnViolationf("Match is not in progress")
	}
	if len(ms.PlayerOrder) == 0 {
		return Storef("No players in game order")
	}
	current := ms.CurrentPlayer
	if current == "" {
		current = ms.PlayerOrder[ms.Turn%len(ms.PlayerOrder)]
	}
	if current != actor {
		return TurnViolationf("Not your turn")
	}
	return nil
}

// evaluateWin checks both end conditions. A group whose every tracked
// member is at 0 loses; untracked members count as alive, an empty
// group counts as defeated. Past the round limit the healthier group
// wins.
func evaluateWin(room *redis_models.Room) (string, bool) {
	if allDefeated(room, room.Group1) {
		return game_constants.WinnerGroup2, true
	}
	if allDefeated(room, room.Group2) {
		return game_constants.WinnerGroup1, true
	}
	return roundLimitWin(room)
}

func allDefeated(room *redis_models.Room, group map[string]string) bool {
	for username := range group {
		if room.Alive(username) {
			return false
		}
	}
	return true
}

// roundLimitWin ends dragged-out matches: once the turn counter
// reaches 15 rounds per tracked fighter, remaining health decides.
func roundLimitWin(room *redis_models.Room) (string, bool) {
	limit := len(room.CharacterHealth) * game_constants.RoundLimitFactor
	if room.MatchState.Turn < limit {
		return "", false
	}

	var group1Health, group2Health int
	for username, health := range room.CharacterHealth {
		if _, ok := room.Group1[username]; ok {
			group1Health += health
		} else if _, ok := room.Group2[username]; ok {
			group2Health += health
		}
	}
	switch {
	case group1Health > group2Health:
		return game_constants.WinnerGroup1, true
	case group2Health > group1Health:
		return game_constants.WinnerGroup2, true
	default:
		return game_constants.WinnerTie, true
	}
}

// endMatch seals the room: final chat entry, terminal state, timer
// gone, result recorded. Called with the room lock held.
func (e *Engine) endMatch(room *redis_models.Room, winner string) error {
	ms := &room.MatchState
	room.ChatLog = append(room.ChatLog, redis_models.ChatEntry{
		Message: fmt.Sprintf("Game over! Winner: %s", winner),
		Turn:    ms.Turn,
	})
	ms.Status = game_constants.StatusEnded
	ms.Winner = winner

	if err := e.saveRoom(room); err != nil {
		return err
	}
	e.timers.CancelTurn(room.Code)

	log.Printf("[MATCH] Room %s ended on turn %d, winner %s", room.Code, ms.Turn, winner)
	e.bcast.ToRoom(room.Code, "match_ended", map[string]interface{}{
		"event":  "match_ended",
		"winner": winner,
	})
	e.recordResult(room, winner)
	return nil
}

func (e *Engine) recordResult(room *redis_models.Room, winner string) {
	if e.results == nil {
		return
	}
	var winners []string
	switch winner {
	case game_constants.WinnerGroup1:
		winners = usernames(room.Group1)
	case game_constants.WinnerGroup2:
		winners = usernames(room.Group2)
	}
	participants := append(usernames(room.Group1), usernames(room.Group2)...)
	e.results.RecordResult(room.Code, winner, room.MatchState.Turn, winners, participants)
}

func usernames(group map[string]string) []string {
	names := make([]string, 0, len(group))
	for username := range group {
		names = append(names, username)
	}
	return names
}

func removeString(list []string, v string) []string {
	kept := list[:0]
	for _, item := range list {
		if item != v {
			kept = append(kept, item)
		}
	}
	return kept
}
