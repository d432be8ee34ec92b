package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/propedge/propedge/internal/edge"
	"github.com/propedge/propedge/internal/models"
)

const recentFormGames = 5

// propGroup collects every book's quote for one (player, stat) market.
type propGroup struct {
	player string
	stat   string
	sport  string
	quotes []models.LiveOdds
}

func (g *propGroup) lines() []float64 {
	lines := make([]float64, 0, len(g.quotes))
	for _, q := range g.quotes {
		lines = append(lines, q.Line)
	}
	return lines
}

func (g *propGroup) books() []string {
	books := make([]string, 0, len(g.quotes))
	for _, q := range g.quotes {
		books = append(books, q.Sportsbook)
	}
	sort.Strings(books)
	return books
}

// loadPropGroups reads the odds table and groups rows by (player, stat).
// Returned groups are sorted by key so strategy output is deterministic.
func (s *Service) loadPropGroups(ctx context.Context, sport string) []propGroup {
	var rows []models.LiveOdds
	query := s.db.WithContext(ctx)
	if sport != "all" {
		query = query.Where("sport = ?", sport)
	}
	if err := query.Find(&rows).Error; err != nil {
		s.logger.Errorf("Failed to load odds for analysis: %v", err)
		return nil
	}

	byKey := make(map[string]*propGroup)
	for _, row := range rows {
		key := row.PlayerName + "|" + row.StatType
		group, ok := byKey[key]
		if !ok {
			group = &propGroup{player: row.PlayerName, stat: row.StatType, sport: row.Sport}
			byKey[key] = group
		}
		group.quotes = append(group.quotes, row)
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]propGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, *byKey[key])
	}
	return groups
}

// recentFormAvg averages the player's newest games for one stat type.
func (s *Service) recentFormAvg(ctx context.Context, player, stat string) (float64, int) {
	var stats []models.PlayerStat
	err := s.db.WithContext(ctx).
		Where("player_name = ? AND stat_type = ?", player, stat).
		Order("game_date DESC").
		Limit(recentFormGames).
		Find(&stats).Error
	if err != nil {
		s.logger.Errorf("Failed to load recent stats for %s %s: %v", player, stat, err)
		return 0, 0
	}

	values := make([]float64, 0, len(stats))
	for _, st := range stats {
		values = append(values, st.Value)
	}
	return edge.Mean(values), len(values)
}

// playerProps compares each market's average posted line against the
// player's recent production.
func (s *Service) playerProps(ctx context.Context, sport string) []Opportunity {
	opportunities := make([]Opportunity, 0)
	for _, group := range s.loadPropGroups(ctx, sport) {
		if len(group.quotes) < 2 {
			continue
		}
		avgLine := edge.Mean(group.lines())
		if avgLine == 0 {
			continue
		}

		recentAvg, games := s.recentFormAvg(ctx, group.player, group.stat)
		if games == 0 {
			continue
		}

		edgePct := edge.Compute(recentAvg, avgLine)
		if edgePct <= s.tun.MinEdgePercent {
			continue
		}

		side := "over"
		if recentAvg < avgLine {
			side = "under"
		}

		opportunities = append(opportunities, Opportunity{
			Category:    CategoryPlayerProps,
			Title:       fmt.Sprintf("%s %s %s", group.player, group.stat, side),
			Description: fmt.Sprintf("Recent form %.1f vs average line %.1f across %d books", recentAvg, avgLine, len(group.quotes)),
			Sport:       group.sport,
			PlayerName:  group.player,
			StatType:    group.stat,
			EdgePercent: edgePct,
			Confidence:  edge.PropConfidence(edgePct),
			Urgency:     edge.PropUrgency(edgePct),
			Books:       group.books(),
			TimeToAct:   "before lineup lock",
			Reasoning: fmt.Sprintf("%s is averaging %.1f %s over the last %d games against a posted line of %.1f, a %.1f%% gap.",
				group.player, recentAvg, strings.ToLower(group.stat), games, avgLine, edgePct),
		})
	}
	return opportunities
}

// arbitrage flags markets where books disagree by at least a full line point.
func (s *Service) arbitrage(ctx context.Context, sport string) []Opportunity {
	opportunities := make([]Opportunity, 0)
	for _, group := range s.loadPropGroups(ctx, sport) {
		if len(group.quotes) < 2 {
			continue
		}

		lines := group.lines()
		if !edge.IsArbitrage(lines) {
			continue
		}

		min, max := edge.LineSpread(lines)
		opportunities = append(opportunities, Opportunity{
			Category:    CategoryArbitrage,
			Title:       fmt.Sprintf("%s %s middle", group.player, group.stat),
			Description: fmt.Sprintf("Books posting %.1f to %.1f on the same market", min, max),
			Sport:       group.sport,
			PlayerName:  group.player,
			StatType:    group.stat,
			EdgePercent: edge.SpreadEdge(lines),
			Confidence:  95,
			Urgency:     edge.UrgencyHigh,
			Books:       group.books(),
			TimeToAct:   "immediately, spreads close fast",
			Reasoning: fmt.Sprintf("A %.1f point spread between books leaves a middle window: over %.1f at the low book and under %.1f at the high book.",
				max-min, min, max),
		})
	}
	return opportunities
}

// derivativeMarkets projects full-game totals from derivative lines (first
// half, quarters) and flags implied totals far from the baseline.
func (s *Service) derivativeMarkets(ctx context.Context, sport string) []Opportunity {
	var rows []models.LiveOdds
	query := s.db.WithContext(ctx).Where("stat_type LIKE ?", "%First Half%")
	if sport != "all" {
		query = query.Where("sport = ?", sport)
	}
	if err := query.Find(&rows).Error; err != nil {
		s.logger.Errorf("Failed to load derivative odds: %v", err)
		return nil
	}

	baseline := s.tun.FullGameTotalBaseline
	threshold := baseline * s.tun.DerivativeEdgeThreshold / 100

	opportunities := make([]Opportunity, 0)
	for _, row := range rows {
		implied := row.Line / s.tun.FirstHalfRatio
		deviation := math.Abs(implied - baseline)
		if deviation <= threshold {
			continue
		}

		edgePct := deviation / baseline * 100
		opportunities = append(opportunities, Opportunity{
			Category:    CategoryDerivativeMarkets,
			Title:       fmt.Sprintf("%s %s off-market", row.PlayerName, row.StatType),
			Description: fmt.Sprintf("First-half line %.1f implies a full-game total of %.1f", row.Line, implied),
			Sport:       row.Sport,
			PlayerName:  row.PlayerName,
			StatType:    row.StatType,
			EdgePercent: edgePct,
			Confidence:  edge.PropConfidence(edgePct),
			Urgency:     edge.PropUrgency(edgePct),
			Books:       []string{row.Sportsbook},
			TimeToAct:   "before tipoff",
			Reasoning: fmt.Sprintf("Dividing the %.1f first-half line by the typical %.2f scoring share implies %.1f, %.1f points off the %.0f baseline.",
				row.Line, s.tun.FirstHalfRatio, implied, deviation, baseline),
		})
	}
	return opportunities
}

// liveBetting flags in-game markets whose line has run from its opener.
func (s *Service) liveBetting(ctx context.Context, sport string) []Opportunity {
	var games []models.GameSchedule
	query := s.db.WithContext(ctx).Where("status = ?", "live")
	if sport != "all" {
		query = query.Where("sport = ?", sport)
	}
	if err := query.Find(&games).Error; err != nil {
		s.logger.Errorf("Failed to load live games: %v", err)
		return nil
	}
	if len(games) == 0 {
		return nil
	}

	liveSports := make(map[string]bool)
	for _, game := range games {
		liveSports[game.Sport] = true
	}

	var rows []models.LiveOdds
	oddsQuery := s.db.WithContext(ctx).
		Where("line_movement <> ? AND line_movement <> ? AND opening_line > 0", "", "stable")
	if sport != "all" {
		oddsQuery = oddsQuery.Where("sport = ?", sport)
	}
	if err := oddsQuery.Find(&rows).Error; err != nil {
		s.logger.Errorf("Failed to load moving odds: %v", err)
		return nil
	}

	opportunities := make([]Opportunity, 0)
	for _, row := range rows {
		if !liveSports[row.Sport] {
			continue
		}

		edgePct := edge.Compute(row.OpeningLine, row.Line)
		if edgePct <= s.tun.LiveEdgeThreshold {
			continue
		}

		opportunities = append(opportunities, Opportunity{
			Category:    CategoryLiveBetting,
			Title:       fmt.Sprintf("%s %s line run", row.PlayerName, row.StatType),
			Description: fmt.Sprintf("Line %s from %.1f open to %.1f now", row.LineMovement, row.OpeningLine, row.Line),
			Sport:       row.Sport,
			PlayerName:  row.PlayerName,
			StatType:    row.StatType,
			EdgePercent: edgePct,
			Confidence:  edge.PropConfidence(edgePct),
			Urgency:     edge.UrgencyHigh,
			Books:       []string{row.Sportsbook},
			TimeToAct:   "2-5 minutes",
			Reasoning: fmt.Sprintf("In-game line moved %.1f%% off the opener while %s's game is live; late money is pushing one side.",
				edgePct, row.PlayerName),
		})
	}
	return opportunities
}

// collegeSports flags college games with low-visibility scheduling where
// books disagree on player lines.
func (s *Service) collegeSports(ctx context.Context, sport string) []Opportunity {
	if sport != "all" && sport != "ncaab" {
		return nil
	}

	var games []models.GameSchedule
	err := s.db.WithContext(ctx).
		Where("sport = ? AND status <> ?", "ncaab", "final").
		Find(&games).Error
	if err != nil {
		s.logger.Errorf("Failed to load college schedule: %v", err)
		return nil
	}

	opportunities := make([]Opportunity, 0)
	for _, game := range games {
		if !s.lowVisibility(game) {
			continue
		}

		teams := map[string]bool{game.HomeTeam: true, game.AwayTeam: true}
		for _, group := range s.loadPropGroups(ctx, "ncaab") {
			if len(group.quotes) < 2 || !teams[group.quotes[0].Team] {
				continue
			}

			lines := group.lines()
			variance := edge.Variance(lines)
			if variance <= s.tun.CollegeVarianceThreshold {
				continue
			}

			avgLine := edge.Mean(lines)
			edgePct := 0.0
			if avgLine > 0 {
				edgePct = math.Sqrt(variance) / avgLine * 100
			}

			opportunities = append(opportunities, Opportunity{
				Category:    CategoryCollegeSports,
				Title:       fmt.Sprintf("%s %s book disagreement", group.player, group.stat),
				Description: fmt.Sprintf("%s @ %s, line variance %.2f across %d books", game.AwayTeam, game.HomeTeam, variance, len(group.quotes)),
				Sport:       "ncaab",
				PlayerName:  group.player,
				StatType:    group.stat,
				GameKey:     game.GameKey,
				EdgePercent: edgePct,
				Confidence:  68,
				Urgency:     edge.UrgencyMedium,
				Books:       group.books(),
				TimeToAct:   "before tipoff",
				Reasoning: fmt.Sprintf("Low-visibility college game (%s, network %q) with books split on %s's %s line; thin markets lag player news.",
					game.GameTime, game.Network, group.player, strings.ToLower(group.stat)),
			})
		}
	}
	return opportunities
}

// lowVisibility marks games outside the national evening window or without a
// TV network, where lines get less sharp attention.
func (s *Service) lowVisibility(game models.GameSchedule) bool {
	if game.Network == "" {
		return true
	}
	hour := parseHour(game.GameTime)
	if hour < 0 {
		return false
	}
	return hour < s.tun.CollegeEveningStartHour || hour > s.tun.CollegeLateEndHour
}

// parseHour extracts the 24h hour from times like "19:00" or "19:00 ET".
// Returns -1 when the format is unrecognized.
func parseHour(gameTime string) int {
	gameTime = strings.TrimSpace(gameTime)
	idx := strings.Index(gameTime, ":")
	if idx <= 0 || idx > 2 {
		return -1
	}
	hour := 0
	for _, r := range gameTime[:idx] {
		if r < '0' || r > '9' {
			return -1
		}
		hour = hour*10 + int(r-'0')
	}
	if hour > 23 {
		return -1
	}
	return hour
}
