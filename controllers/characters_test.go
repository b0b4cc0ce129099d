package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var characterColumns = []string{"id", "username", "name", "description", "abilities", "created_at"}
var abilityColumns = []string{"name", "type", "description", "num", "dice", "chat"}

func TestGetCharactersRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sec, _ := newSecurity(t)

	t.Run("Lists characters in creation order", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/get_characters", GetCharacters(gormDB, sec))

		now := time.Now()
		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(characterColumns).
				AddRow("char-1", "alice", "Rogue", "Strikes first", []byte(`["Slash"]`), now.Add(-time.Hour)).
				AddRow("char-2", "alice", "Cleric", "Patches everyone up", []byte(`["Mend Wounds"]`), now))

		w := postJSON(router, "/get_characters", gin.H{"username": "alice"})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		characters, ok := message["characters"].([]interface{})
		require.True(t, ok)
		require.Len(t, characters, 2)

		first, _ := characters[0].(map[string]interface{})
		assert.Equal(t, "Rogue", first["name"])
		assert.Equal(t, "Strikes first", first["desc"])
		assert.Equal(t, []interface{}{"Slash"}, first["abilities"])

		second, _ := characters[1].(map[string]interface{})
		assert.Equal(t, "Cleric", second["name"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("A user without characters gets an empty list", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/get_characters", GetCharacters(gormDB, sec))

		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1`).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows(characterColumns))

		w := postJSON(router, "/get_characters", gin.H{"username": "bob"})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		characters, ok := message["characters"].([]interface{})
		require.True(t, ok)
		assert.Empty(t, characters)
	})
}

func TestGetCharacterRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sec, _ := newSecurity(t)

	t.Run("Returns the character by name", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/get_character", GetCharacter(gormDB, sec))

		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1 AND name = \$2`).
			WithArgs("alice", "Rogue", 1).
			WillReturnRows(sqlmock.NewRows(characterColumns).
				AddRow("char-1", "alice", "Rogue", "Strikes first", []byte(`["Slash"]`), time.Now()))

		w := postJSON(router, "/get_character", gin.H{"username": "alice", "name": "Rogue"})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		character, ok := message["character"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "Rogue", character["name"])
		assert.Equal(t, []interface{}{"Slash"}, character["abilities"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("An unknown name comes back null", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/get_character", GetCharacter(gormDB, sec))

		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1 AND name = \$2`).
			WithArgs("alice", "Nobody", 1).
			WillReturnRows(sqlmock.NewRows(characterColumns))

		w := postJSON(router, "/get_character", gin.H{"username": "alice", "name": "Nobody"})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		assert.Nil(t, message["character"])
	})
}

func TestSaveCharacterRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sec, _ := newSecurity(t)

	newRouter := func(db *gorm.DB) *gin.Engine {
		router := gin.New()
		router.POST("/save_character", SaveCharacter(db, sec))
		return router
	}

	t.Run("Creates a new character", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(characterColumns))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "characters"`).
			WithArgs(sqlmock.AnyArg(), "alice", "Grok", "An angry one", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()
		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(characterColumns).
				AddRow("char-1", "alice", "Grok", "An angry one", []byte(`["Slash","Mend Wounds"]`), time.Now()))

		w := postJSON(router, "/save_character", gin.H{
			"username":  "alice",
			"name":      "Grok",
			"desc":      "An angry one",
			"abilities": []string{"Slash", "Mend Wounds"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Character saved successfully", message["message"])
		characters, ok := message["characters"].([]interface{})
		require.True(t, ok)
		require.Len(t, characters, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Replaces the character at an index", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(characterColumns).
				AddRow("char-1", "alice", "Grok", "An angry one", []byte(`["Slash"]`), time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "characters" SET`).
			WithArgs(sqlmock.AnyArg(), "Calmer now", "Grok", "char-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(characterColumns).
				AddRow("char-1", "alice", "Grok", "Calmer now", []byte(`["Slash"]`), time.Now()))

		w := postJSON(router, "/save_character", gin.H{
			"username":        "alice",
			"name":            "Grok",
			"desc":            "Calmer now",
			"abilities":       []string{"Slash"},
			"character_index": 0,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Character saved successfully", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects a duplicate name", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(characterColumns).
				AddRow("char-1", "alice", "grok", "The first one", []byte(`[]`), time.Now()))

		w := postJSON(router, "/save_character", gin.H{
			"username":  "alice",
			"name":      "Grok",
			"desc":      "A second one",
			"abilities": []string{},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Character name already exists", message["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects an index outside the list", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "characters" WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(characterColumns).
				AddRow("char-1", "alice", "Grok", "An angry one", []byte(`[]`), time.Now()))

		w := postJSON(router, "/save_character", gin.H{
			"username":        "alice",
			"name":            "Grok",
			"desc":            "Moved",
			"abilities":       []string{},
			"character_index": 5,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Invalid character index", message["error"])
	})

	t.Run("Rejects missing fields", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		w := postJSON(router, "/save_character", gin.H{"username": "alice", "name": "Grok"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Missing required fields", message["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteCharacterRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sec, _ := newSecurity(t)

	t.Run("Deletes by name", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/delete_character", DeleteCharacter(gormDB, sec))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "characters" WHERE username = \$1 AND name = \$2`).
			WithArgs("alice", "Grok").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := postJSON(router, "/delete_character", gin.H{"username": "alice", "name": "Grok"})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Character deleted successfully", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown character is a 404", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/delete_character", DeleteCharacter(gormDB, sec))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "characters" WHERE username = \$1 AND name = \$2`).
			WithArgs("alice", "Nobody").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		w := postJSON(router, "/delete_character", gin.H{"username": "alice", "name": "Nobody"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Character not found", message["error"])
	})

	t.Run("Rejects missing fields", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/delete_character", DeleteCharacter(gormDB, sec))

		w := postJSON(router, "/delete_character", gin.H{"username": "alice"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Missing username or character name", message["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetAbilitiesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sec, _ := newSecurity(t)

	gormDB, mock := newMockDB(t)
	router := gin.New()
	router.POST("/get_abilities", GetAbilities(gormDB, sec))

	mock.ExpectQuery(`SELECT "name" FROM "ability"`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Fireball").AddRow("Mend Wounds").AddRow("Slash"))

	w := postJSON(router, "/get_abilities", gin.H{"username": "alice"})

	assert.Equal(t, http.StatusOK, w.Code)
	message := openSealed(t, sec, w)
	assert.Equal(t, []interface{}{"Fireball", "Mend Wounds", "Slash"}, message["abilities"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAbilityDetailsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sec, _ := newSecurity(t)

	t.Run("Returns the catalog record", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/get_ability_details", GetAbilityDetails(gormDB, sec))

		mock.ExpectQuery(`SELECT \* FROM "ability" WHERE name = \$1`).
			WithArgs("Slash", 1).
			WillReturnRows(sqlmock.NewRows(abilityColumns).
				AddRow("Slash", "a", "A quick strike", 1, 6, "[player2] slashes at [player1]!"))

		w := postJSON(router, "/get_ability_details", gin.H{"username": "alice", "ability": "Slash"})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "a", message["type"])
		assert.Equal(t, "A quick strike", message["desc"])
		assert.Equal(t, float64(1), message["num"])
		assert.Equal(t, float64(6), message["dice"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown ability is a 404", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/get_ability_details", GetAbilityDetails(gormDB, sec))

		mock.ExpectQuery(`SELECT \* FROM "ability" WHERE name = \$1`).
			WithArgs("Nothing", 1).
			WillReturnRows(sqlmock.NewRows(abilityColumns))

		w := postJSON(router, "/get_ability_details", gin.H{"username": "alice", "ability": "Nothing"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Ability not found", message["error"])
	})

	t.Run("Rejects a missing ability name", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := gin.New()
		router.POST("/get_ability_details", GetAbilityDetails(gormDB, sec))

		w := postJSON(router, "/get_ability_details", gin.H{"username": "alice"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Missing ability name or username", message["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
