package controllers

import (
	"log"
	"net/http"

	models "forestfight/models/postgres"
	"forestfight/services/security"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary List ability names
// @Description Returns the names of every ability in the catalog.
// @Tags abilities
// @Accept json
// @Produce json
// @Success 200 {object} object{abilities=[]string}
// @Router /get_abilities [post]
func GetAbilities(db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)

		names := []string{}
		if err := db.Model(&models.Ability{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
			log.Printf("[DB] Listing abilities failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred fetching abilities."})
			return
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(gin.H{"abilities": names}, username))
	}
}

// @Summary Ability details
// @Description Returns the type, description and dice of one ability.
// @Tags abilities
// @Accept json
// @Produce json
// @Success 200 {object} object{type=string,desc=string,num=integer,dice=integer}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /get_ability_details [post]
func GetAbilityDetails(db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}
		username, _ := req["username"].(string)
		name, _ := req["ability"].(string)

		if name == "" || username == "" {
			c.JSON(http.StatusBadRequest, sec.EncryptResponse(
				gin.H{"error": "Missing ability name or username"}, username))
			return
		}

		var ability models.Ability
		if err := db.Where("name = ?", name).First(&ability).Error; err != nil {
			c.JSON(http.StatusNotFound, sec.EncryptResponse(
				gin.H{"error": "Ability not found"}, username))
			return
		}

		c.JSON(http.StatusOK, sec.EncryptResponse(gin.H{
			"type": ability.Type,
			"desc": ability.Description,
			"num":  ability.Num,
			"dice": ability.Dice,
		}, username))
	}
}
