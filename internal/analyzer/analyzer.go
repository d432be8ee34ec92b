// Package analyzer produces ranked edge opportunities from the stored odds,
// stats and schedule rows. Each strategy category is an independent
// heuristic; none of them is a calibrated statistical model.
package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/propedge/propedge/internal/ai"
	"github.com/propedge/propedge/internal/edge"
	"github.com/propedge/propedge/pkg/database"
)

// The five fixed strategy categories.
const (
	CategoryPlayerProps       = "player_props"
	CategoryLiveBetting       = "live_betting"
	CategoryCollegeSports     = "college_sports"
	CategoryArbitrage         = "arbitrage"
	CategoryDerivativeMarkets = "derivative_markets"
)

var categories = map[string]string{
	CategoryPlayerProps:       "Player prop lines that diverge from recent player production.",
	CategoryLiveBetting:       "In-game lines moving away from their opening number.",
	CategoryCollegeSports:     "College games where books disagree on the line.",
	CategoryArbitrage:         "Cross-book line spreads wide enough to play both sides.",
	CategoryDerivativeMarkets: "Derivative totals (halves, quarters) implying an off-market full-game total.",
}

// ValidCategory reports whether the tag is one of the five fixed categories.
func ValidCategory(category string) bool {
	_, ok := categories[category]
	return ok
}

// Request filters an analysis run.
type Request struct {
	Category      string  `json:"category"`
	Sport         string  `json:"sport"` // league tag or "all"
	MinEdge       float64 `json:"min_edge"`
	MinConfidence float64 `json:"min_confidence"`
}

// Opportunity is computed on each request and never persisted.
type Opportunity struct {
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Sport       string   `json:"sport"`
	PlayerName  string   `json:"player_name,omitempty"`
	StatType    string   `json:"stat_type,omitempty"`
	GameKey     string   `json:"game_key,omitempty"`
	EdgePercent float64  `json:"edge_percent"`
	Confidence  float64  `json:"confidence"`
	Urgency     string   `json:"urgency"`
	Books       []string `json:"books,omitempty"`
	TimeToAct   string   `json:"time_to_act,omitempty"`
	Reasoning   string   `json:"reasoning"`
	RiskFactors []string `json:"risk_factors,omitempty"`
}

// Tunables are the analyzer's heuristic constants, injected from config.
type Tunables struct {
	MinEdgePercent           float64
	FirstHalfRatio           float64
	FullGameTotalBaseline    float64
	DerivativeEdgeThreshold  float64
	LiveEdgeThreshold        float64
	CollegeVarianceThreshold float64
	CollegeEveningStartHour  int
	CollegeLateEndHour       int
	MaxOpportunities         int
}

// DefaultTunables mirror the config defaults.
func DefaultTunables() Tunables {
	return Tunables{
		MinEdgePercent:           5.0,
		FirstHalfRatio:           0.46,
		FullGameTotalBaseline:    200.0,
		DerivativeEdgeThreshold:  8.0,
		LiveEdgeThreshold:        8.0,
		CollegeVarianceThreshold: 1.5,
		CollegeEveningStartHour:  18,
		CollegeLateEndHour:       23,
		MaxOpportunities:         20,
	}
}

// Service runs the analysis. The AI client is optional; a nil or
// unconfigured client skips narrative enrichment.
type Service struct {
	db     *database.DB
	client *ai.Client
	tun    Tunables
	logger *logrus.Logger
}

func NewService(db *database.DB, client *ai.Client, tun Tunables, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		client: client,
		tun:    tun,
		logger: logger,
	}
}

// Analyze produces the ranked opportunity list for a request. Database read
// errors inside strategies are logged and treated as empty inputs; only
// request validation surfaces as an error.
func (s *Service) Analyze(ctx context.Context, req Request) ([]Opportunity, error) {
	if req.Category != "" && !ValidCategory(req.Category) {
		return nil, fmt.Errorf("unknown category: %s", req.Category)
	}
	if req.Sport == "" {
		req.Sport = "all"
	}

	strategies := map[string]func(context.Context, string) []Opportunity{
		CategoryPlayerProps:       s.playerProps,
		CategoryArbitrage:         s.arbitrage,
		CategoryDerivativeMarkets: s.derivativeMarkets,
		CategoryLiveBetting:       s.liveBetting,
		CategoryCollegeSports:     s.collegeSports,
	}

	opportunities := make([]Opportunity, 0)
	for category, run := range strategies {
		if req.Category != "" && req.Category != category {
			continue
		}
		opportunities = append(opportunities, run(ctx, req.Sport)...)
	}

	opportunities = s.enrich(ctx, opportunities)
	opportunities = filter(opportunities, req)
	sortOpportunities(opportunities)

	if len(opportunities) > s.tun.MaxOpportunities {
		opportunities = opportunities[:s.tun.MaxOpportunities]
	}
	return opportunities, nil
}

func filter(opportunities []Opportunity, req Request) []Opportunity {
	kept := make([]Opportunity, 0, len(opportunities))
	for _, opp := range opportunities {
		if req.Sport != "all" && opp.Sport != req.Sport {
			continue
		}
		if opp.EdgePercent < req.MinEdge {
			continue
		}
		if opp.Confidence < req.MinConfidence {
			continue
		}
		kept = append(kept, opp)
	}
	return kept
}

// sortOpportunities orders by urgency rank, then edge percentage, both
// descending.
func sortOpportunities(opportunities []Opportunity) {
	sort.SliceStable(opportunities, func(i, j int) bool {
		ri, rj := edge.UrgencyRank(opportunities[i].Urgency), edge.UrgencyRank(opportunities[j].Urgency)
		if ri != rj {
			return ri > rj
		}
		return opportunities[i].EdgePercent > opportunities[j].EdgePercent
	})
}
