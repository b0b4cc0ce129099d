package controllers

import (
	"log"
	"net/http"
	"strings"

	"forestfight/middleware"
	models "forestfight/models/postgres"
	"forestfight/services/security"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// decryptBody unwraps a possibly encrypted JSON request body.
func decryptBody(c *gin.Context, sec *security.Service) (map[string]interface{}, bool) {
	var raw interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Malformed request body"})
		return nil, false
	}
	req, err := sec.DecryptRequest(raw)
	if err != nil {
		log.Printf("[SECURITY] Undecodable request on %s: %v", c.FullPath(), err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Malformed request body"})
		return nil, false
	}
	return req, true
}

// sealFor encrypts a response for the caller: with the public key the
// request carried when there is one, with the stored key (or the fixed
// fallback) otherwise.
func sealFor(sec *security.Service, username, publicKey string, payload interface{}) interface{} {
	if publicKey != "" {
		if envelope, err := sec.EncryptWithPublicKey(payload, publicKey); err == nil {
			return envelope
		}
	}
	return sec.EncryptResponse(payload, username)
}

// @Summary Register a new account
// @Description Creates a user from a username and password. The optional public_key is stored for encrypted responses.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} object{status=string,message=string}
// @Failure 400 {object} object{status=string,message=string}
// @Router /register [post]
func Register(db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}

		username, _ := req["username"].(string)
		password, _ := req["password"].(string)
		publicKey, _ := req["public_key"].(string)

		if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
			c.JSON(http.StatusBadRequest, sealFor(sec, username, publicKey,
				gin.H{"status": "error", "message": "Parameters can't be empty"}))
			return
		}

		var existing models.User
		if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, sealFor(sec, username, publicKey,
				gin.H{"status": "error", "message": "Username already exists."}))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred during registration."})
			return
		}

		user := models.User{
			Username:     username,
			PasswordHash: string(hash),
			PublicKey:    publicKey,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Printf("[DB] Creating user %s failed: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred during registration."})
			return
		}

		log.Printf("[AUTH] Registered %s", username)
		c.JSON(http.StatusOK, sealFor(sec, username, publicKey,
			gin.H{"status": "success", "message": "User registered successfully."}))
	}
}

// @Summary Log in
// @Description Checks the password, opens a session and returns the JWT the socket handshake uses. A provided public_key replaces the stored one.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} object{status=string,message=string,token=string}
// @Failure 400 {object} object{status=string,message=string}
// @Router /login [post]
func Login(db *gorm.DB, sec *security.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := decryptBody(c, sec)
		if !ok {
			return
		}

		username, _ := req["username"].(string)
		password, _ := req["password"].(string)
		publicKey, _ := req["public_key"].(string)

		if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
			c.JSON(http.StatusBadRequest, sealFor(sec, username, publicKey,
				gin.H{"status": "error", "message": "Parameters can't be empty"}))
			return
		}

		var user models.User
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusBadRequest, sealFor(sec, username, publicKey,
				gin.H{"status": "error", "message": "User does not exist."}))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			c.JSON(http.StatusBadRequest, sealFor(sec, username, publicKey,
				gin.H{"status": "error", "message": "Invalid password."}))
			return
		}

		// A fresh client key replaces the stored one.
		if publicKey != "" && publicKey != user.PublicKey {
			if err := db.Model(&user).Update("public_key", publicKey).Error; err != nil {
				log.Printf("[DB] Updating public key for %s failed: %v", username, err)
			}
		}

		session := sessions.Default(c)
		session.Set(middleware.Userkey, username)
		if err := session.Save(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred during login."})
			return
		}

		token, err := middleware.GenerateToken(username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "An error occurred during login."})
			return
		}

		log.Printf("[AUTH] %s logged in", username)
		c.JSON(http.StatusOK, sealFor(sec, username, publicKey,
			gin.H{"status": "success", "message": "Login successful.", "token": token}))
	}
}

// @Summary Log out
// @Description Deletes the caller's session.
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/logout [delete]
// @Security ApiKeyAuth
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	user := session.Get(middleware.Userkey)
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session token"})
		return
	}

	session.Delete(middleware.Userkey)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// @Summary Public profile
// @Description Returns the public stats of an account.
// @Tags users
// @Produce json
// @Success 200 {object} object{username=string,wins=integer,games_played=integer}
// @Failure 404 {object} object{error=string}
// @Router /users/{username} [get]
func GetUserPublicInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		var user models.User
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"username":     user.Username,
			"wins":         user.Wins,
			"games_played": user.GamesPlayed,
			"member_since": user.MemberSince,
		})
	}
}

// @Summary Own profile
// @Description Returns the session owner's account record.
// @Tags users
// @Produce json
// @Success 200 {object} object{username=string,wins=integer,games_played=integer}
// @Failure 404 {object} object{error=string}
// @Router /auth/me [get]
// @Security ApiKeyAuth
func GetUserPrivateInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		username, _ := session.Get(middleware.Userkey).(string)

		var user models.User
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"username":     user.Username,
			"wins":         user.Wins,
			"games_played": user.GamesPlayed,
			"member_since": user.MemberSince,
			"has_key":      user.PublicKey != "",
		})
	}
}

// @Summary Health check
// @Tags meta
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /ping [get]
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
