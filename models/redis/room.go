package redis

import (
	game_constants "forestfight/constants/game"
)

// ChatEntry is one record in a room's combat log. Effect is only set
// for moves that changed health.
type ChatEntry struct {
	Message string `json:"message"`
	Effect  string `json:"effect,omitempty"`
	Turn    int    `json:"turn"`
}

// MatchState tracks turn progression for a room. CurrentPlayer and
// NextPlayer are cached pointers into PlayerOrder.
type MatchState struct {
	Status        string   `json:"status"`
	Turn          int      `json:"turn"`
	PlayerOrder   []string `json:"player_order"`
	CurrentPlayer string   `json:"current_player,omitempty"`
	NextPlayer    string   `json:"next_player,omitempty"`
	Winner        string   `json:"winner,omitempty"`
}

// Room is the shared state of one match, stored as a single document
// keyed by its code. Groups map username -> character name; usernames
// are the identity everywhere, character names are display-only.
type Room struct {
	Code            string            `json:"code"`
	Players         []string          `json:"players"`
	Group1          map[string]string `json:"group1"`
	Group2          map[string]string `json:"group2"`
	ReadyPlayers    []string          `json:"ready_players"`
	CharacterHealth map[string]int    `json:"character_health"`
	ChatLog         []ChatEntry       `json:"chat_log"`
	MatchState      MatchState        `json:"match_state"`
}

// NewRoom builds the initial document for a freshly created room.
func NewRoom(code string, creator string) *Room {
	return &Room{
		Code:            code,
		Players:         []string{creator},
		Group1:          map[string]string{},
		Group2:          map[string]string{},
		ReadyPlayers:    []string{},
		CharacterHealth: map[string]int{},
		ChatLog:         []ChatEntry{},
		MatchState: MatchState{
			Status:      game_constants.StatusNotStarted,
			Turn:        1,
			PlayerOrder: []string{},
		},
	}
}

// GroupOf returns which group holds the username ("group1"/"group2")
// and the seated character name. ok is false if the user is unseated.
func (r *Room) GroupOf(username string) (group string, character string, ok bool) {
	if name, in := r.Group1[username]; in {
		return "group1", name, true
	}
	if name, in := r.Group2[username]; in {
		return "group2", name, true
	}
	return "", "", false
}

// Alive reports whether a username counts as alive. Entries missing
// from CharacterHealth are alive (health is only tracked once a player
// joins a group or takes a hit).
func (r *Room) Alive(username string) bool {
	health, tracked := r.CharacterHealth[username]
	return !tracked || health > 0
}

// HasPlayer reports lobby membership.
func (r *Room) HasPlayer(username string) bool {
	for _, p := range r.Players {
		if p == username {
			return true
		}
	}
	return false
}

// IsReady reports whether the username pressed ready.
func (r *Room) IsReady(username string) bool {
	for _, p := range r.ReadyPlayers {
		if p == username {
			return true
		}
	}
	return false
}

// ChatTail returns at most n of the latest chat entries, oldest first.
func (r *Room) ChatTail(n int) []ChatEntry {
	if n <= 0 || len(r.ChatLog) == 0 {
		return []ChatEntry{}
	}
	if len(r.ChatLog) <= n {
		return r.ChatLog
	}
	return r.ChatLog[len(r.ChatLog)-n:]
}
