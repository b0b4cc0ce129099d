package controllers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forestfight/middleware"
	"forestfight/services/security"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var userColumns = []string{"username", "password_hash", "public_key", "wins", "games_played", "member_since"}

// newSecurity builds a service around a throwaway keypair and returns
// the matching base64 DER public key. A request carrying that key gets
// hybrid responses the service's own private key can open again.
func newSecurity(t *testing.T) (*security.Service, string) {
	t.Helper()
	private, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	require.NoError(t, err)

	svc := security.NewService(private, &private.PublicKey,
		security.DefaultSymmetricKey, security.DefaultSymmetricIV, nil)
	return svc, base64.StdEncoding.EncodeToString(der)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gormDB, mock
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// openSealed decrypts an envelope response body back into its message.
func openSealed(t *testing.T, sec *security.Service, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	message, err := sec.DecryptRequest(payload)
	require.NoError(t, err)
	return message
}

func TestRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sec, clientKey := newSecurity(t)

	newRouter := func(db *gorm.DB) *gin.Engine {
		router := gin.New()
		router.POST("/register", Register(db, sec))
		return router
	}

	t.Run("Registers a new account", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("alice", 1).
			WillReturnRows(sqlmock.NewRows(userColumns))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "users"`).
			WithArgs("alice", sqlmock.AnyArg(), "").
			WillReturnRows(sqlmock.NewRows([]string{"wins", "games_played", "member_since"}).
				AddRow(0, 0, time.Now()))
		mock.ExpectCommit()

		w := postJSON(router, "/register", gin.H{"username": "alice", "password": "hunter2"})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "success", message["status"])
		assert.Equal(t, "User registered successfully.", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stores the client key and seals the response with it", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("bob", 1).
			WillReturnRows(sqlmock.NewRows(userColumns))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "users"`).
			WithArgs("bob", sqlmock.AnyArg(), clientKey).
			WillReturnRows(sqlmock.NewRows([]string{"wins", "games_played", "member_since"}).
				AddRow(0, 0, time.Now()))
		mock.ExpectCommit()

		w := postJSON(router, "/register", gin.H{
			"username": "bob", "password": "hunter2", "public_key": clientKey,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var envelope map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Equal(t, security.MethodHybrid, envelope["method"])

		message := openSealed(t, sec, w)
		assert.Equal(t, "User registered successfully.", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects blank credentials", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		w := postJSON(router, "/register", gin.H{"username": "  ", "password": ""})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Parameters can't be empty", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects a taken username", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("alice", 1).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("alice", "x", "", 0, 0, time.Now()))

		w := postJSON(router, "/register", gin.H{"username": "alice", "password": "hunter2"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Username already exists.", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects a body that is not JSON", func(t *testing.T) {
		gormDB, _ := newMockDB(t)
		router := newRouter(gormDB)

		req, _ := http.NewRequest(http.MethodPost, "/register", bytes.NewReader([]byte("not json")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("SESSION_KEY", "login-test-key")
	sec, clientKey := newSecurity(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	newRouter := func(db *gorm.DB) *gin.Engine {
		router := gin.New()
		middleware.SetUpMiddleware(router)
		router.POST("/login", Login(db, sec))
		return router
	}

	t.Run("Logs in, opens a session and returns a token", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("alice", 1).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("alice", string(hash), "", 3, 10, time.Now()))

		w := postJSON(router, "/login", gin.H{"username": "alice", "password": "hunter2"})

		assert.Equal(t, http.StatusOK, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "success", message["status"])
		assert.Equal(t, "Login successful.", message["message"])
		assert.NotEmpty(t, message["token"])
		assert.NotEmpty(t, w.Result().Cookies(), "login should set the session cookie")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("A fresh client key replaces the stored one", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("alice", 1).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("alice", string(hash), "", 3, 10, time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "users" SET "public_key"=\$1`).
			WithArgs(clientKey, "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := postJSON(router, "/login", gin.H{
			"username": "alice", "password": "hunter2", "public_key": clientKey,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var envelope map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Equal(t, security.MethodHybrid, envelope["method"])

		message := openSealed(t, sec, w)
		assert.NotEmpty(t, message["token"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects an unknown user", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("ghost", 1).
			WillReturnRows(sqlmock.NewRows(userColumns))

		w := postJSON(router, "/login", gin.H{"username": "ghost", "password": "hunter2"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "User does not exist.", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects a wrong password", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("alice", 1).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("alice", string(hash), "", 3, 10, time.Now()))

		w := postJSON(router, "/login", gin.H{"username": "alice", "password": "wrong"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Invalid password.", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects blank credentials", func(t *testing.T) {
		gormDB, mock := newMockDB(t)
		router := newRouter(gormDB)

		w := postJSON(router, "/login", gin.H{"username": "", "password": ""})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		message := openSealed(t, sec, w)
		assert.Equal(t, "Parameters can't be empty", message["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLogout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("SESSION_KEY", "logout-test-key")
	sec, _ := newSecurity(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	gormDB, mock := newMockDB(t)
	router := gin.New()
	middleware.SetUpMiddleware(router)
	router.POST("/login", Login(gormDB, sec))
	authorized := router.Group("/auth", middleware.AuthRequired)
	authorized.DELETE("/logout", Logout)

	t.Run("Logs out with a live session", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("alice", 1).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("alice", string(hash), "", 0, 0, time.Now()))

		loginW := postJSON(router, "/login", gin.H{"username": "alice", "password": "hunter2"})
		require.Equal(t, http.StatusOK, loginW.Code)

		req, _ := http.NewRequest(http.MethodDelete, "/auth/logout", nil)
		for _, cookie := range loginW.Result().Cookies() {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Successfully logged out", response["message"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects a call without a session", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, "/auth/logout", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetUserPublicInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gormDB, mock := newMockDB(t)
	router := gin.New()
	router.GET("/users/:username", GetUserPublicInfo(gormDB))

	t.Run("Returns the public stats", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("alice", 1).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("alice", "x", "", 7, 21, time.Now()))

		req, _ := http.NewRequest(http.MethodGet, "/users/alice", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "alice", response["username"])
		assert.Equal(t, float64(7), response["wins"])
		assert.Equal(t, float64(21), response["games_played"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown user is a 404", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
			WithArgs("ghost", 1).
			WillReturnRows(sqlmock.NewRows(userColumns))

		req, _ := http.NewRequest(http.MethodGet, "/users/ghost", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", Ping)

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}
