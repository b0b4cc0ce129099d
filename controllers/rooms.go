package controllers

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	models "forestfight/models/postgres"
	"forestfight/services/match"
	"forestfight/services/security"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// roomError seals an engine error for the caller with the HTTP status
// its kind maps to.
func roomError(c *gin.Context, sec *security.Service, username string, err error) {
	status := http.StatusInternalServerError
	switch match.KindOf(err) {
	case match.KindNotFound:
		status = http.StatusNotFound
	case match.KindValidation, match.KindTurnViolation:
		status = http.StatusBadRequest
	}
	c.JSON(status, sec.EncryptResponse(gin.H{"error": err.Error()}, username))
}

// @Summary Create a room
// @Description Opens a new lobby with a unique 4-digit code and seats the creator. The creator leaves any room they were in.
// @Tags rooms
// @Accept json
// @Produce json
// @Success 201 {object} object{room_code=string}
// @Failure 400 {object} object{error=string}
// @Router /create_room [post]
func CreateRoom(engine *match.Engine, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)

		code, err := engine.CreateRoom(username)
		if err != nil {
			roomError(c, sec, username, err)
			return
		}

		c.JSON(http.StatusCreated, sec.EncryptResponse(gin.H{"room_code": code}, username))
	}
}

// @Summary Join a room
// @Description Seats the player in an existing lobby. Rooms that already started and duplicate seats are rejected.
// @Tags rooms
// @Accept json
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /join_room_route [post]
func JoinRoom(engine *match.Engine, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)
		roomCode, _ := req["room_code"].(string)

		if err := engine.SeatPlayer(username, roomCode); err != nil {
			roomError(c, sec, username, err)
			return
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(
			gin.H{"message": fmt.Sprintf("%s joined room %s", username, roomCode)}, username))
	}
}

// @Summary Remove a player from a room
// @Description Unseats a player and notifies the remaining room members.
// @Tags rooms
// @Accept json
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /remove_player_from_room [post]
func RemovePlayerFromRoom(engine *match.Engine, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)
		roomCode, _ := req["room_code"].(string)

		if err := engine.RemoveFromRoom(username, roomCode); err != nil {
			roomError(c, sec, username, err)
			return
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(
			gin.H{"message": fmt.Sprintf("Player %s removed from room %s", username, roomCode)}, username))
	}
}

// @Summary List group 1
// @Description Returns the characters seated in group1 of a room.
// @Tags rooms
// @Accept json
// @Produce json
// @Success 200 {object} object{characters=[]object{name=string,username=string,desc=string}}
// @Failure 404 {object} object{error=string}
// @Router /get_group1 [post]
func GetGroup1(engine *match.Engine, db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return groupListing(engine, db, sec, "group1")
}

// @Summary List group 2
// @Description Returns the characters seated in group2 of a room.
// @Tags rooms
// @Accept json
// @Produce json
// @Success 200 {object} object{characters=[]object{name=string,username=string,desc=string}}
// @Failure 404 {object} object{error=string}
// @Router /get_group2 [post]
func GetGroup2(engine *match.Engine, db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return groupListing(engine, db, sec, "group2")
}

func groupListing(engine *match.Engine, db *gorm.DB, sec *security.Service, group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)
		roomCode, _ := req["room_code"].(string)

		roster, err := engine.GroupRoster(roomCode, group)
		if err != nil {
			roomError(c, sec, username, err)
			return
		}

		characters := make([]gin.H, 0, len(roster))
		descs := characterDescriptions(db, roster)
		seated := make([]string, 0, len(roster))
		for user := range roster {
			seated = append(seated, user)
		}
		sort.Strings(seated)
		for _, user := range seated {
			name := roster[user]
			characters = append(characters, gin.H{
				"name":     name,
				"username": user,
				"desc":     descs[descKey(user, name)],
			})
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(gin.H{"characters": characters}, username))
	}
}

// characterDescriptions loads the descriptions of the seated
// characters in one query. A missing record just yields an empty
// description.
func characterDescriptions(db *gorm.DB, roster map[string]string) map[string]string {
	descs := make(map[string]string, len(roster))
	if len(roster) == 0 {
		return descs
	}

	owners := make([]string, 0, len(roster))
	for user := range roster {
		owners = append(owners, user)
	}

	var records []models.Character
	if err := db.Where("username IN ?", owners).Find(&records).Error; err != nil {
		log.Printf("[DB] Loading character descriptions failed: %v", err)
		return descs
	}
	for _, record := range records {
		descs[descKey(record.Username, record.Name)] = record.Description
	}
	return descs
}

func descKey(username, character string) string {
	return username + "/" + strings.ToLower(character)
}
