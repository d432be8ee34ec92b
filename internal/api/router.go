package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/propedge/propedge/internal/ai"
	"github.com/propedge/propedge/internal/analyzer"
	"github.com/propedge/propedge/internal/api/handlers"
	"github.com/propedge/propedge/internal/api/middleware"
	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/config"
	"github.com/propedge/propedge/pkg/database"
)

// Deps carries the shared services the routes are built on.
type Deps struct {
	DB          *database.DB
	Cache       *services.CacheService
	Hub         *services.Hub
	Ingest      *services.IngestService
	Analytics   *services.AnalyticsService
	Analyzer    *analyzer.Service
	Insights    *ai.InsightService
	Assistant   *ai.AssistantService
	Scheduler   *services.RefreshScheduler
	SearchCache *services.PlayerSearchCache
	Config      *config.Config
	Logger      *logrus.Logger
}

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(group *gin.RouterGroup, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.DB, deps.Config)
	opportunitiesHandler := handlers.NewOpportunitiesHandler(deps.Analyzer, deps.Cache)
	oddsHandler := handlers.NewOddsHandler(deps.DB, deps.Ingest)
	playerHandler := handlers.NewPlayerHandler(deps.DB, deps.SearchCache)
	scheduleHandler := handlers.NewScheduleHandler(deps.DB, deps.Cache, deps.Ingest)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.DB, deps.Analytics)
	insightHandler := handlers.NewInsightHandler(deps.Insights, deps.Assistant)
	parlayHandler := handlers.NewParlayHandler(deps.DB)

	// Auth endpoints
	auth := group.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/signin", authHandler.Signin)
		auth.GET("/me", middleware.AuthRequired(deps.Config.JWTSecret), authHandler.Me)
		auth.POST("/redeem", middleware.AuthRequired(deps.Config.JWTSecret), authHandler.Redeem)
	}

	// Public data endpoints
	group.GET("/odds", oddsHandler.ListOdds)
	group.GET("/schedule", scheduleHandler.GetSchedule)
	group.GET("/schedule/live", scheduleHandler.GetLiveGames)
	group.GET("/players/search", playerHandler.SearchPlayers)
	group.GET("/players/:name/stats", playerHandler.GetPlayerStats)
	group.GET("/players/:name/matchups", playerHandler.GetPlayerMatchups)
	group.GET("/analytics", analyticsHandler.ListAnalytics)
	group.GET("/analytics/risk", analyticsHandler.RiskBreakdown)
	group.GET("/opportunities/categories", opportunitiesHandler.GetCategories)

	// Premium endpoints: a signed-in user with a redeemed access code.
	premium := group.Group("")
	premium.Use(middleware.AuthRequired(deps.Config.JWTSecret), middleware.RequireAccess(deps.DB))
	{
		premium.GET("/opportunities", opportunitiesHandler.GetOpportunities)
		premium.POST("/opportunities/analyze", opportunitiesHandler.AnalyzeOpportunities)
		premium.POST("/insights", insightHandler.GenerateInsight)
		premium.POST("/assistant/chat", insightHandler.Chat)
	}

	// Authenticated endpoints
	authed := group.Group("")
	authed.Use(middleware.AuthRequired(deps.Config.JWTSecret))
	{
		authed.GET("/parlays", parlayHandler.ListParlays)
		authed.GET("/parlays/:id", parlayHandler.GetParlay)
		authed.POST("/parlays", parlayHandler.CreateParlay)
		authed.PUT("/parlays/:id", parlayHandler.UpdateParlay)
		authed.DELETE("/parlays/:id", parlayHandler.DeleteParlay)

		// Manual refresh triggers
		authed.POST("/odds/refresh", oddsHandler.RefreshOdds)
		authed.POST("/schedule/refresh", scheduleHandler.RefreshSchedule)
		authed.POST("/analytics/recompute", analyticsHandler.Recompute)
	}
}
