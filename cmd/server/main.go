package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/propedge/propedge/internal/ai"
	"github.com/propedge/propedge/internal/analyzer"
	"github.com/propedge/propedge/internal/api"
	"github.com/propedge/propedge/internal/api/handlers"
	"github.com/propedge/propedge/internal/api/middleware"
	"github.com/propedge/propedge/internal/providers"
	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/config"
	"github.com/propedge/propedge/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	logger := logrus.StandardLogger()
	if cfg.IsDevelopment() {
		logger.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, database.Pool{
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Core services
	cacheService := services.NewCacheService(redisClient)
	hub := services.NewHub(logger)

	// External data providers
	teams := providers.NewTeamIndex(logger)
	oddsClient := providers.NewOddsAPIClient(cfg.OddsAPIKey, cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, logger)
	statsClient := providers.NewStatsAPIClient(cfg.StatsAPIKey, cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, logger)
	scheduleClient := providers.NewScheduleAPIClient(cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, teams, logger)

	ingest := services.NewIngestService(db, cacheService, oddsClient, statsClient, scheduleClient, hub, logger)
	if cfg.ScrapeBaseURL != "" {
		scraper := providers.NewSiteScraper(cfg.ScrapeBaseURL, cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, cfg.ScrapeRateLimit, logger)
		ingest.SetScraper(scraper)
	}
	analytics := services.NewAnalyticsService(db, logger)

	// AI layer
	aiClient := ai.NewClient(cfg.AnthropicAPIKey, cfg.AIModel, cfg.AIRateLimit)
	if !aiClient.IsConfigured() {
		logger.Warn("ANTHROPIC_API_KEY not set; AI features disabled")
	}
	analyzerSvc := analyzer.NewService(db, aiClient, analyzer.Tunables{
		MinEdgePercent:           cfg.MinEdgePercent,
		FirstHalfRatio:           cfg.FirstHalfRatio,
		FullGameTotalBaseline:    cfg.FullGameTotalBaseline,
		DerivativeEdgeThreshold:  cfg.DerivativeEdgeThreshold,
		LiveEdgeThreshold:        cfg.LiveEdgeThreshold,
		CollegeVarianceThreshold: cfg.CollegeVarianceThreshold,
		CollegeEveningStartHour:  cfg.CollegeEveningStartHour,
		CollegeLateEndHour:       cfg.CollegeLateEndHour,
		MaxOpportunities:         cfg.MaxOpportunities,
	}, logger)

	insightTTL := time.Duration(cfg.AICacheExpiration) * time.Second
	insights := ai.NewInsightService(db, cacheService, aiClient, insightTTL, logger)
	registry := api.BuildToolRegistry(db, analyzerSvc, ingest)
	assistant := ai.NewAssistantService(db, aiClient, registry, cfg.AIToolRetries, logger)

	// SMS alerting
	var smsSender services.SMSSender
	if cfg.SMSProvider == "twilio" && cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		smsSender = services.NewTwilioSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		smsSender = services.NewMockSMSSender(logger)
	}
	alerts := services.NewAlertService(smsSender, cfg.AlertRecipients, logger)

	// Background refresh scheduler
	fetchInterval, err := time.ParseDuration(cfg.DataFetchInterval)
	if err != nil {
		logger.Warnf("Invalid fetch interval, using default 30m: %v", err)
		fetchInterval = 30 * time.Minute
	}
	scheduler := services.NewRefreshScheduler(db, ingest, analytics, logger, cfg.SupportedSports, fetchInterval)
	scheduler.SetAfterRefresh(func() {
		notifyHighUrgency(analyzerSvc, alerts, hub, logger)
	})
	if cfg.EnableBackgroundJobs {
		if err := scheduler.Start(!cfg.SkipInitialDataFetch); err != nil {
			logger.Errorf("Failed to start refresh scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	// Player search memoization
	searchCache := services.NewPlayerSearchCache(5*time.Minute, 256, nil)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	healthHandler := handlers.NewHealthHandler(db, scheduler, hub)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)
	router.GET("/status", healthHandler.GetStatus)

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, api.Deps{
		DB:          db,
		Cache:       cacheService,
		Hub:         hub,
		Ingest:      ingest,
		Analytics:   analytics,
		Analyzer:    analyzerSvc,
		Insights:    insights,
		Assistant:   assistant,
		Scheduler:   scheduler,
		SearchCache: searchCache,
		Config:      cfg,
		Logger:      logger,
	})

	// WebSocket endpoint at root level, not under /api/v1
	wsHandler := handlers.NewWSHandler(hub, logger)
	router.GET("/ws", wsHandler.Connect)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// notifyHighUrgency runs the analyzer against fresh data and pushes alerts
// for anything high urgency.
func notifyHighUrgency(analyzerSvc *analyzer.Service, alerts *services.AlertService, hub *services.Hub, logger *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opportunities, err := analyzerSvc.Analyze(ctx, analyzer.Request{Sport: "all"})
	if err != nil {
		logger.Errorf("Post-refresh analysis failed: %v", err)
		return
	}

	for _, opp := range opportunities {
		if opp.Urgency != "high" {
			continue
		}
		alerts.NotifyHighUrgency(opp.Title, opp.EdgePercent, opp.Sport)
		hub.Broadcast(services.Event{
			Type:  "opportunity_alert",
			Sport: opp.Sport,
			Data:  opp,
		})
	}
}
