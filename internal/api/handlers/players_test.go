package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/internal/services"
)

func TestSearchPlayersUsesCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.LiveOdds{
		PlayerName: "Jalen Marsh", Sport: "nba", StatType: "Points", Line: 25.0, Sportsbook: "DraftKings",
	}).Error)
	require.NoError(t, db.Create(&models.PlayerStat{
		PlayerName: "Jalen Marsh", StatType: "Points", Value: 28, GameDate: "2025-01-10",
	}).Error)

	cache := services.NewPlayerSearchCache(time.Minute, 16, nil)
	handler := NewPlayerHandler(db, cache)

	router := gin.New()
	router.GET("/players/search", handler.SearchPlayers)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/players/search?q=jal", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jalen Marsh")
	assert.Contains(t, w.Body.String(), `"cached":false`)
	assert.Equal(t, 1, cache.Len())

	// Second identical query is served from the cache.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/players/search?q=jal", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cached":true`)
}

func TestSearchPlayersRejectsShortQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlayerHandler(newTestDB(t), nil)

	router := gin.New()
	router.GET("/players/search", handler.SearchPlayers)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/players/search?q=j", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPlayerStatsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlayerHandler(newTestDB(t), nil)

	router := gin.New()
	router.GET("/players/:name/stats", handler.GetPlayerStats)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/players/Nobody/stats", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
