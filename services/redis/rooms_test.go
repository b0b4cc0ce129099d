package redis

import (
	"encoding/json"
	"strconv"
	"testing"

	game_constants "forestfight/constants/game"
	redis_models "forestfight/models/redis"
	redis_utils "forestfight/services/redis/utils"
	"forestfight/services/security"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	vault := security.NewVault(security.DefaultSymmetricKey, security.DefaultSymmetricIV)
	rc, err := InitRedis(mr.Addr(), 0, "", vault)
	require.NoError(t, err, "Failed to initialize Redis")
	t.Cleanup(func() { CloseRedis(rc) })
	return rc, mr
}

func sampleRoom() *redis_models.Room {
	room := redis_models.NewRoom("4242", "alice")
	room.Players = []string{"alice", "bob"}
	room.Group1 = map[string]string{"alice": "Rogue"}
	room.Group2 = map[string]string{"bob": "Cleric"}
	room.ReadyPlayers = []string{"alice"}
	room.CharacterHealth = map[string]int{"alice": 50, "bob": 37}
	room.ChatLog = []redis_models.ChatEntry{
		{Message: "Rogue strikes Cleric", Effect: "-13 HP", Turn: 1},
		{Message: "Cleric skipped the turn", Turn: 2},
	}
	room.MatchState = redis_models.MatchState{
		Status:        game_constants.StatusStarted,
		Turn:          3,
		PlayerOrder:   []string{"alice", "bob"},
		CurrentPlayer: "alice",
		NextPlayer:    "bob",
	}
	return room
}

func TestRoomRoundTrip(t *testing.T) {
	rc, _ := newTestClient(t)

	room := sampleRoom()
	require.NoError(t, rc.SaveRoom(room))

	got, err := rc.GetRoom("4242")
	require.NoError(t, err)

	assert.Equal(t, room.Code, got.Code)
	assert.Equal(t, room.Players, got.Players)
	assert.Equal(t, room.Group1, got.Group1)
	assert.Equal(t, room.Group2, got.Group2)
	assert.Equal(t, room.ReadyPlayers, got.ReadyPlayers)
	assert.Equal(t, room.CharacterHealth, got.CharacterHealth)
	assert.Equal(t, room.ChatLog, got.ChatLog)
	assert.Equal(t, room.MatchState, got.MatchState)
}

func TestRoomSealedAtRest(t *testing.T) {
	rc, mr := newTestClient(t)

	require.NoError(t, rc.SaveRoom(sampleRoom()))

	raw, err := mr.Get(redis_utils.FormatRoomKey("4242"))
	require.NoError(t, err)

	var stored map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))

	assertSealed := func(field json.RawMessage) {
		var probe struct {
			Encrypted bool   `json:"encrypted"`
			Data      string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(field, &probe))
		assert.True(t, probe.Encrypted, "field should be a sealed envelope")
		assert.NotEmpty(t, probe.Data)
	}

	assertSealed(stored["character_health"])

	var chat []json.RawMessage
	require.NoError(t, json.Unmarshal(stored["chat_log"], &chat))
	require.Len(t, chat, 2)
	for _, entry := range chat {
		assertSealed(entry)
	}

	// Identity and turn bookkeeping stay readable for debugging.
	assert.Contains(t, string(stored["players"]), "alice")
	assert.Contains(t, string(stored["match_state"]), "started")
}

func TestRoomOpensPlainLegacyDocument(t *testing.T) {
	rc, mr := newTestClient(t)

	legacy := `{
		"code": "7777",
		"players": ["carol"],
		"group1": {"carol": "Witch"},
		"group2": {},
		"ready_players": [],
		"character_health": {"carol": 12},
		"chat_log": [{"message": "Witch joined", "turn": 1}],
		"match_state": {"status": "started", "turn": 5, "player_order": ["carol"], "current_player": "carol"}
	}`
	require.NoError(t, mr.Set(redis_utils.FormatRoomKey("7777"), legacy))

	got, err := rc.GetRoom("7777")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"carol": 12}, got.CharacterHealth)
	require.Len(t, got.ChatLog, 1)
	assert.Equal(t, "Witch joined", got.ChatLog[0].Message)
	assert.Equal(t, 5, got.MatchState.Turn)
}

func TestRoomDefaultsForSparseDocument(t *testing.T) {
	rc, mr := newTestClient(t)

	require.NoError(t, mr.Set(redis_utils.FormatRoomKey("1234"), `{"match_state":{"status":"not_started","turn":1}}`))

	got, err := rc.GetRoom("1234")
	require.NoError(t, err)
	assert.Equal(t, "1234", got.Code)
	assert.NotNil(t, got.Players)
	assert.NotNil(t, got.Group1)
	assert.NotNil(t, got.Group2)
	assert.NotNil(t, got.ReadyPlayers)
	assert.NotNil(t, got.CharacterHealth)
	assert.NotNil(t, got.ChatLog)
	assert.NotNil(t, got.MatchState.PlayerOrder)
}

func TestRoomNotFound(t *testing.T) {
	rc, _ := newTestClient(t)

	_, err := rc.GetRoom("9999")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomExistsAndDelete(t *testing.T) {
	rc, _ := newTestClient(t)

	exists, err := rc.RoomExists("4242")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, rc.SaveRoom(sampleRoom()))

	exists, err = rc.RoomExists("4242")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, rc.DeleteRoom("4242"))

	_, err = rc.GetRoom("4242")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestGenerateRoomCode(t *testing.T) {
	rc, _ := newTestClient(t)

	t.Run("Produces a free 4-digit code", func(t *testing.T) {
		code, err := rc.GenerateRoomCode()
		require.NoError(t, err)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, game_constants.RoomCodeMin)
		assert.LessOrEqual(t, n, game_constants.RoomCodeMax)

		exists, err := rc.RoomExists(code)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Skips taken codes", func(t *testing.T) {
		taken := map[string]bool{}
		for i := 0; i < 25; i++ {
			code, err := rc.GenerateRoomCode()
			require.NoError(t, err)
			assert.False(t, taken[code], "code %s handed out twice", code)
			taken[code] = true
			room := redis_models.NewRoom(code, "host")
			require.NoError(t, rc.SaveRoom(room))
		}
	})
}

func TestListRoomCodes(t *testing.T) {
	rc, _ := newTestClient(t)

	codes, err := rc.ListRoomCodes()
	require.NoError(t, err)
	assert.Empty(t, codes)

	for _, code := range []string{"1111", "2222", "3333"} {
		require.NoError(t, rc.SaveRoom(redis_models.NewRoom(code, "host")))
	}

	codes, err = rc.ListRoomCodes()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1111", "2222", "3333"}, codes)
}
