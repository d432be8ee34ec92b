package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propedge/propedge/internal/api/middleware"
	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/config"
	"github.com/propedge/propedge/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.AccessCode{},
		&models.UserAccess{},
		&models.LiveOdds{},
		&models.PlayerStat{},
	))
	return &database.DB{DB: gdb}
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, *database.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(db, cfg)

	router := gin.New()
	router.POST("/auth/signup", handler.Signup)
	router.POST("/auth/signin", handler.Signin)
	router.POST("/auth/redeem", middleware.AuthRequired(cfg.JWTSecret), handler.Redeem)
	router.GET("/auth/me", middleware.AuthRequired(cfg.JWTSecret), handler.Me)
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func extractToken(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestSignupAndSignin(t *testing.T) {
	router, db := newAuthTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/auth/signup", "", SignupRequest{
		Email:       "Bettor@Example.com",
		Password:    "hunter2hunter2",
		DisplayName: "Sharp Bettor",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Email is normalized and the password stored as a bcrypt hash.
	var user models.User
	require.NoError(t, db.Preload("Profile").First(&user).Error)
	assert.Equal(t, "bettor@example.com", user.Email)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
	assert.Equal(t, "Sharp Bettor", user.Profile.DisplayName)

	// Duplicate signup conflicts.
	w = doJSON(t, router, http.MethodPost, "/auth/signup", "", SignupRequest{
		Email:    "bettor@example.com",
		Password: "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Correct credentials sign in.
	w = doJSON(t, router, http.MethodPost, "/auth/signin", "", SigninRequest{
		Email:    "bettor@example.com",
		Password: "hunter2hunter2",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Wrong password is rejected with the same message shape.
	w = doJSON(t, router, http.MethodPost, "/auth/signin", "", SigninRequest{
		Email:    "bettor@example.com",
		Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRedeemAccessCode(t *testing.T) {
	router, db := newAuthTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/auth/signup", "", SignupRequest{
		Email:    "bettor@example.com",
		Password: "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := extractToken(t, w)

	code := models.NewAccessCode("test batch", 1, nil)
	require.NoError(t, db.Create(&code).Error)

	w = doJSON(t, router, http.MethodPost, "/auth/redeem", token, RedeemRequest{Code: code.Code})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.AccessCode
	require.NoError(t, db.First(&updated, code.ID).Error)
	assert.Equal(t, 1, updated.Redemptions)

	// Second redemption by the same user conflicts and does not double count.
	w = doJSON(t, router, http.MethodPost, "/auth/redeem", token, RedeemRequest{Code: code.Code})
	assert.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, db.First(&updated, code.ID).Error)
	assert.Equal(t, 1, updated.Redemptions)
}

func TestRedeemExpiredAndExhaustedCodes(t *testing.T) {
	router, db := newAuthTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/auth/signup", "", SignupRequest{
		Email:    "bettor@example.com",
		Password: "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := extractToken(t, w)

	past := time.Now().Add(-time.Hour)
	expired := models.NewAccessCode("expired", 10, &past)
	require.NoError(t, db.Create(&expired).Error)

	w = doJSON(t, router, http.MethodPost, "/auth/redeem", token, RedeemRequest{Code: expired.Code})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	exhausted := models.NewAccessCode("exhausted", 1, nil)
	exhausted.Redemptions = 1
	require.NoError(t, db.Create(&exhausted).Error)

	w = doJSON(t, router, http.MethodPost, "/auth/redeem", token, RedeemRequest{Code: exhausted.Code})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/auth/redeem", token, RedeemRequest{Code: "no-such-code"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	router, _ := newAuthTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
