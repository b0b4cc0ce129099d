package middleware

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Socket clients cannot carry the session cookie, so they authenticate
// with a JWT issued at login and sent in the handshake auth data.

var ErrNoToken = errors.New("no authorization token provided")

func jwtSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("forestfight-dev-secret")
}

// GenerateToken issues the signed token returned by the login route.
func GenerateToken(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

// JWT_decoder extracts and validates the bearer token of an HTTP
// request, returning the username it was issued for.
func JWT_decoder(c *gin.Context) (username string, err error) {
	return decodeBearer(c.GetHeader("Authorization"))
}

// Socketio_JWT_decoder does the same for a socket.io handshake's auth
// data (the token travels in the "authorization" field).
func Socketio_JWT_decoder(authData map[string]interface{}) (username string, err error) {
	token, _ := authData["authorization"].(string)
	return decodeBearer(token)
}

func decodeBearer(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", errors.New("token carries no username")
	}
	return username, nil
}
