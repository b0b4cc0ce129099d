package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	models "forestfight/models/postgres"
	"forestfight/services/security"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// loadCharacters returns a user's characters in creation order. The
// order is what character_index in save requests refers to, so every
// listing and lookup goes through here.
func loadCharacters(db *gorm.DB, username string) ([]models.Character, error) {
	var characters []models.Character
	err := db.Where("username = ?", username).
		Order("created_at ASC, id ASC").
		Find(&characters).Error
	return characters, err
}

// characterJSON is the wire shape of one character.
func characterJSON(character models.Character) gin.H {
	abilities := []string{}
	if len(character.Abilities) > 0 {
		if err := json.Unmarshal(character.Abilities, &abilities); err != nil {
			abilities = []string{}
		}
	}
	return gin.H{
		"id":        character.ID,
		"name":      character.Name,
		"desc":      character.Description,
		"abilities": abilities,
	}
}

func charactersJSON(characters []models.Character) []gin.H {
	out := make([]gin.H, 0, len(characters))
	for _, character := range characters {
		out = append(out, characterJSON(character))
	}
	return out
}

// @Summary List characters
// @Description Returns every character the user has created, in creation order.
// @Tags characters
// @Accept json
// @Produce json
// @Success 200 {object} object{characters=[]object{id=string,name=string,desc=string,abilities=[]string}}
// @Router /get_characters [post]
func GetCharacters(db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)

		characters, err := loadCharacters(db, username)
		if err != nil {
			log.Printf("[DB] Loading characters of %s failed: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred during loading."})
			return
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(
			gin.H{"characters": charactersJSON(characters)}, username))
	}
}

// @Summary Get one character
// @Description Looks a character up by name. An unknown name yields a null character.
// @Tags characters
// @Accept json
// @Produce json
// @Success 200 {object} object{character=object{id=string,name=string,desc=string,abilities=[]string}}
// @Router /get_character [post]
func GetCharacter(db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)
		name, _ := req["name"].(string)

		var character models.Character
		err := db.Where("username = ? AND name = ?", username, name).First(&character).Error
		if err != nil {
			c.JSON(http.StatusOK, sec.EncryptResponse(gin.H{"character": nil}, username))
			return
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(
			gin.H{"character": characterJSON(character)}, username))
	}
}

// @Summary Save a character
// @Description Creates a character when character_index is -1, otherwise replaces the one at that index. Names are unique per user, case-insensitively.
// @Tags characters
// @Accept json
// @Produce json
// @Success 200 {object} object{message=string,characters=[]object{id=string,name=string,desc=string,abilities=[]string}}
// @Failure 400 {object} object{error=string}
// @Router /save_character [post]
func SaveCharacter(db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)

		name, _ := req["name"].(string)
		desc, hasDesc := req["desc"].(string)
		abilitiesRaw, hasAbilities := req["abilities"]
		if name == "" || !hasDesc || !hasAbilities {
			c.JSON(http.StatusBadRequest, sec.EncryptResponse(
				gin.H{"error": "Missing required fields"}, username))
			return
		}

		abilities, err := json.Marshal(abilitiesRaw)
		if err != nil {
			c.JSON(http.StatusBadRequest, sec.EncryptResponse(
				gin.H{"error": "Missing required fields"}, username))
			return
		}

		index := -1
		if v, ok := req["character_index"].(float64); ok {
			index = int(v)
		}

		characters, err := loadCharacters(db, username)
		if err != nil {
			log.Printf("[DB] Loading characters of %s failed: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred saving character."})
			return
		}

		if index != -1 && (index < 0 || index >= len(characters)) {
			c.JSON(http.StatusBadRequest, sec.EncryptResponse(
				gin.H{"error": "Invalid character index"}, username))
			return
		}

		for i, existing := range characters {
			if i != index && strings.EqualFold(existing.Name, name) {
				c.JSON(http.StatusBadRequest, sec.EncryptResponse(
					gin.H{"error": "Character name already exists"}, username))
				return
			}
		}

		if index == -1 {
			character := models.Character{
				Username:    username,
				Name:        name,
				Description: desc,
				Abilities:   datatypes.JSON(abilities),
			}
			err = db.Create(&character).Error
		} else {
			err = db.Model(&models.Character{}).
				Where("id = ?", characters[index].ID).
				Updates(map[string]interface{}{
					"name":        name,
					"description": desc,
					"abilities":   datatypes.JSON(abilities),
				}).Error
		}
		if err != nil {
			log.Printf("[DB] Saving character %q for %s failed: %v", name, username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred saving character."})
			return
		}

		characters, err = loadCharacters(db, username)
		if err != nil {
			log.Printf("[DB] Reloading characters of %s failed: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred saving character."})
			return
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(gin.H{
			"message":    "Character saved successfully",
			"characters": charactersJSON(characters),
		}, username))
	}
}

// @Summary Delete a character
// @Description Removes one of the user's characters by name.
// @Tags characters
// @Accept json
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /delete_character [post]
func DeleteCharacter(db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)
		name, _ := req["name"].(string)

		if username == "" || name == "" {
			c.JSON(http.StatusBadRequest, sec.EncryptResponse(
				gin.H{"error": "Missing username or character name"}, username))
			return
		}

		result := db.Where("username = ? AND name = ?", username, name).Delete(&models.Character{})
		if result.Error != nil {
			log.Printf("[DB] Deleting character %q of %s failed: %v", name, username, result.Error)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred deleting character."})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, sec.EncryptResponse(
				gin.H{"error": "Character not found"}, username))
			return
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(
			gin.H{"message": "Character deleted successfully"}, username))
	}
}
