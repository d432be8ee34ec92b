package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/propedge/propedge/internal/ai"
	"github.com/propedge/propedge/internal/analyzer"
	"github.com/propedge/propedge/internal/edge"
	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/database"
)

// BuildToolRegistry wires the fixed assistant tool set against the live
// services. Every tool returns plain data; formatting is the model's job.
func BuildToolRegistry(db *database.DB, analyzerSvc *analyzer.Service, ingest *services.IngestService) *ai.ToolRegistry {
	registry := ai.NewToolRegistry()

	registry.Register(ai.Tool{
		Name:        "get_edge_opportunities",
		Description: "Run the edge analyzer and return ranked betting opportunities. Category is one of player_props, live_betting, college_sports, arbitrage, derivative_markets, or empty for all.",
		InputSchema: ai.ObjectSchema(map[string]interface{}{
			"sport":    ai.StringProp("League tag (nba, nfl, mlb, nhl, ncaab) or 'all'"),
			"category": ai.StringProp("Strategy category, or empty for all"),
			"min_edge": ai.NumberProp("Minimum edge percentage to include"),
		}),
	}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var args struct {
			Sport    string  `json:"sport"`
			Category string  `json:"category"`
			MinEdge  float64 `json:"min_edge"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return analyzerSvc.Analyze(ctx, analyzer.Request{
			Sport:    args.Sport,
			Category: args.Category,
			MinEdge:  args.MinEdge,
		})
	})

	registry.Register(ai.Tool{
		Name:        "explain_edge",
		Description: "Show the raw numbers behind one player prop edge: book lines, recent game values, and the derived averages.",
		InputSchema: ai.ObjectSchema(map[string]interface{}{
			"player_name": ai.StringProp("Exact player name"),
			"stat_type":   ai.StringProp("Stat market, e.g. Points, Rebounds"),
		}, "player_name", "stat_type"),
	}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var args struct {
			PlayerName string `json:"player_name"`
			StatType   string `json:"stat_type"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return explainEdge(ctx, db, args.PlayerName, args.StatType)
	})

	registry.Register(ai.Tool{
		Name:        "suggest_strategy",
		Description: "Suggest which strategy categories fit a stated risk tolerance, with the current top opportunity in each.",
		InputSchema: ai.ObjectSchema(map[string]interface{}{
			"sport":          ai.StringProp("League tag or 'all'"),
			"risk_tolerance": ai.StringProp("'low', 'medium' or 'high'"),
		}, "risk_tolerance"),
	}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var args struct {
			Sport         string `json:"sport"`
			RiskTolerance string `json:"risk_tolerance"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return suggestStrategy(ctx, analyzerSvc, args.Sport, args.RiskTolerance)
	})

	registry.Register(ai.Tool{
		Name:        "refresh_live_data",
		Description: "Fetch fresh odds and schedule data for a sport before answering time-sensitive questions.",
		InputSchema: ai.ObjectSchema(map[string]interface{}{
			"sport": ai.StringProp("League tag (nba, nfl, mlb, nhl, ncaab)"),
		}, "sport"),
	}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var args struct {
			Sport string `json:"sport"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}

		oddsCount, err := ingest.RefreshOdds(ctx, args.Sport)
		if err != nil {
			return nil, err
		}
		scheduleCount, err := ingest.RefreshSchedule(ctx, args.Sport, time.Now().UTC().Format("20060102"))
		if err != nil {
			return nil, err
		}
		return map[string]int{
			"odds_updated":     oddsCount,
			"schedule_updated": scheduleCount,
		}, nil
	})

	registry.Register(ai.Tool{
		Name:        "analyze_player",
		Description: "Return a player's derived analytics and recent game log.",
		InputSchema: ai.ObjectSchema(map[string]interface{}{
			"player_name": ai.StringProp("Exact player name"),
		}, "player_name"),
	}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var args struct {
			PlayerName string `json:"player_name"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return analyzePlayer(ctx, db, args.PlayerName)
	})

	registry.Register(ai.Tool{
		Name:        "search_schedule",
		Description: "List stored games for a sport, optionally on one date (YYYY-MM-DD).",
		InputSchema: ai.ObjectSchema(map[string]interface{}{
			"sport": ai.StringProp("League tag or 'all'"),
			"date":  ai.StringProp("Game date YYYY-MM-DD, empty for all dates"),
		}),
	}, func(ctx context.Context, input json.RawMessage) (interface{}, error) {
		var args struct {
			Sport string `json:"sport"`
			Date  string `json:"date"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}

		query := db.WithContext(ctx).Order("game_date, game_time").Limit(50)
		if args.Sport != "" && args.Sport != "all" {
			query = query.Where("sport = ?", args.Sport)
		}
		if args.Date != "" {
			query = query.Where("game_date = ?", args.Date)
		}

		var games []models.GameSchedule
		if err := query.Find(&games).Error; err != nil {
			return nil, err
		}
		return games, nil
	})

	return registry
}

func explainEdge(ctx context.Context, db *database.DB, player, statType string) (interface{}, error) {
	var odds []models.LiveOdds
	err := db.WithContext(ctx).
		Where("player_name = ? AND stat_type = ?", player, statType).
		Find(&odds).Error
	if err != nil {
		return nil, err
	}
	if len(odds) == 0 {
		return nil, fmt.Errorf("no odds stored for %s %s", player, statType)
	}

	var stats []models.PlayerStat
	err = db.WithContext(ctx).
		Where("player_name = ? AND stat_type = ?", player, statType).
		Order("game_date DESC").
		Limit(5).
		Find(&stats).Error
	if err != nil {
		return nil, err
	}

	lines := make([]float64, 0, len(odds))
	books := make(map[string]float64, len(odds))
	for _, o := range odds {
		lines = append(lines, o.Line)
		books[o.Sportsbook] = o.Line
	}

	values := make([]float64, 0, len(stats))
	recentGames := make(map[string]float64, len(stats))
	for _, st := range stats {
		values = append(values, st.Value)
		recentGames[st.GameDate] = st.Value
	}

	avgLine := edge.Mean(lines)
	recentAvg := edge.Mean(values)
	return map[string]interface{}{
		"player_name":  player,
		"stat_type":    statType,
		"book_lines":   books,
		"average_line": avgLine,
		"recent_games": recentGames,
		"recent_avg":   recentAvg,
		"edge_percent": edge.Compute(recentAvg, avgLine),
		"confidence":   edge.PropConfidence(edge.Compute(recentAvg, avgLine)),
	}, nil
}

// riskCategories maps a stated tolerance to the categories whose failure
// modes match it.
var riskCategories = map[string][]string{
	"low":    {analyzer.CategoryArbitrage, analyzer.CategoryPlayerProps},
	"medium": {analyzer.CategoryPlayerProps, analyzer.CategoryDerivativeMarkets, analyzer.CategoryCollegeSports},
	"high":   {analyzer.CategoryLiveBetting, analyzer.CategoryCollegeSports, analyzer.CategoryDerivativeMarkets},
}

func suggestStrategy(ctx context.Context, analyzerSvc *analyzer.Service, sport, riskTolerance string) (interface{}, error) {
	categories, ok := riskCategories[riskTolerance]
	if !ok {
		return nil, fmt.Errorf("unknown risk tolerance %q, expected low, medium or high", riskTolerance)
	}

	suggestions := make([]map[string]interface{}, 0, len(categories))
	for _, category := range categories {
		opportunities, err := analyzerSvc.Analyze(ctx, analyzer.Request{Sport: sport, Category: category})
		if err != nil {
			return nil, err
		}
		suggestion := map[string]interface{}{
			"category":      category,
			"opportunities": len(opportunities),
		}
		if len(opportunities) > 0 {
			suggestion["top"] = opportunities[0]
		}
		suggestions = append(suggestions, suggestion)
	}
	return map[string]interface{}{
		"risk_tolerance": riskTolerance,
		"suggestions":    suggestions,
	}, nil
}

func analyzePlayer(ctx context.Context, db *database.DB, player string) (interface{}, error) {
	var analytics []models.PropAnalytics
	err := db.WithContext(ctx).Where("player_name = ?", player).Find(&analytics).Error
	if err != nil {
		return nil, err
	}

	var stats []models.PlayerStat
	err = db.WithContext(ctx).
		Where("player_name = ?", player).
		Order("game_date DESC").
		Limit(25).
		Find(&stats).Error
	if err != nil {
		return nil, err
	}

	if len(analytics) == 0 && len(stats) == 0 {
		return nil, fmt.Errorf("no data stored for player %s", player)
	}
	return map[string]interface{}{
		"player_name": player,
		"analytics":   analytics,
		"recent_log":  stats,
	}, nil
}
