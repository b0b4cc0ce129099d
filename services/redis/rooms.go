package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	game_constants "forestfight/constants/game"
	redis_models "forestfight/models/redis"
	redis_utils "forestfight/services/redis/utils"

	"github.com/redis/go-redis/v9"
)

// ErrRoomNotFound distinguishes an absent room from a store failure.
var ErrRoomNotFound = errors.New("room not found")

// Rooms live for a day; every save refreshes the TTL, so only matches
// nobody touches anymore expire.
const roomTTL = 24 * time.Hour

// storedRoom is the at-rest shape of a room document. CharacterHealth
// and each ChatLog entry are vault envelopes (plain JSON from older
// documents is tolerated on read).
type storedRoom struct {
	Code            string                  `json:"code"`
	Players         []string                `json:"players"`
	Group1          map[string]string       `json:"group1"`
	Group2          map[string]string       `json:"group2"`
	ReadyPlayers    []string                `json:"ready_players"`
	CharacterHealth json.RawMessage         `json:"character_health"`
	ChatLog         []json.RawMessage       `json:"chat_log"`
	MatchState      redis_models.MatchState `json:"match_state"`
}

// SaveRoom replaces a room document wholesale.
// Key format: "room:{code}"
func (rc *RedisClient) SaveRoom(room *redis_models.Room) error {
	stored := storedRoom{
		Code:         room.Code,
		Players:      room.Players,
		Group1:       room.Group1,
		Group2:       room.Group2,
		ReadyPlayers: room.ReadyPlayers,
		MatchState:   room.MatchState,
	}

	sealedHealth, err := rc.vault.Seal(room.CharacterHealth)
	if err != nil {
		return fmt.Errorf("error sealing character health: %v", err)
	}
	stored.CharacterHealth = sealedHealth

	stored.ChatLog = make([]json.RawMessage, 0, len(room.ChatLog))
	for _, entry := range room.ChatLog {
		sealedEntry, err := rc.vault.Seal(entry)
		if err != nil {
			return fmt.Errorf("error sealing chat entry: %v", err)
		}
		stored.ChatLog = append(stored.ChatLog, sealedEntry)
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("error marshaling room data: %v", err)
	}
	key := redis_utils.FormatRoomKey(room.Code)
	return rc.client.Set(rc.ctx, key, data, roomTTL).Err()
}

// GetRoom retrieves a room document and opens its sealed fields.
// Key format: "room:{code}"
func (rc *RedisClient) GetRoom(code string) (*redis_models.Room, error) {
	key := redis_utils.FormatRoomKey(code)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("error getting room data: %v", err)
	}

	var stored storedRoom
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("error unmarshaling room data: %v", err)
	}

	room := &redis_models.Room{
		Code:            stored.Code,
		Players:         stored.Players,
		Group1:          stored.Group1,
		Group2:          stored.Group2,
		ReadyPlayers:    stored.ReadyPlayers,
		CharacterHealth: map[string]int{},
		ChatLog:         []redis_models.ChatEntry{},
		MatchState:      stored.MatchState,
	}
	if room.Code == "" {
		room.Code = code
	}
	if room.Players == nil {
		room.Players = []string{}
	}
	if room.Group1 == nil {
		room.Group1 = map[string]string{}
	}
	if room.Group2 == nil {
		room.Group2 = map[string]string{}
	}
	if room.ReadyPlayers == nil {
		room.ReadyPlayers = []string{}
	}
	if room.MatchState.PlayerOrder == nil {
		room.MatchState.PlayerOrder = []string{}
	}

	if err := rc.vault.Open(stored.CharacterHealth, &room.CharacterHealth); err != nil {
		return nil, fmt.Errorf("error opening character health: %v", err)
	}
	for _, raw := range stored.ChatLog {
		var entry redis_models.ChatEntry
		if err := rc.vault.Open(raw, &entry); err != nil {
			return nil, fmt.Errorf("error opening chat entry: %v", err)
		}
		room.ChatLog = append(room.ChatLog, entry)
	}

	return room, nil
}

// DeleteRoom removes a room document.
func (rc *RedisClient) DeleteRoom(code string) error {
	key := redis_utils.FormatRoomKey(code)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting room data: %v", err)
	}
	return nil
}

// RoomExists reports whether a room code is taken.
func (rc *RedisClient) RoomExists(code string) (bool, error) {
	key := redis_utils.FormatRoomKey(code)
	n, err := rc.client.Exists(rc.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("error checking room existence: %v", err)
	}
	return n > 0, nil
}

// ListRoomCodes scans every stored room code.
func (rc *RedisClient) ListRoomCodes() ([]string, error) {
	var codes []string
	iter := rc.client.Scan(rc.ctx, 0, redis_utils.RoomKeyPattern(), 0).Iterator()
	for iter.Next(rc.ctx) {
		codes = append(codes, redis_utils.RoomCodeFromKey(iter.Val()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rooms: %v", err)
	}
	return codes, nil
}

// GenerateRoomCode draws 4-digit codes until one is free. The code
// space is small on purpose (players type these); sampling is bounded
// so a full store fails loudly instead of spinning.
func (rc *RedisClient) GenerateRoomCode() (string, error) {
	span := game_constants.RoomCodeMax - game_constants.RoomCodeMin + 1
	for attempts := 0; attempts < span*2; attempts++ {
		code := strconv.Itoa(game_constants.RoomCodeMin + rand.Intn(span))
		exists, err := rc.RoomExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("no free room codes available")
}
