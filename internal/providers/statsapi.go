package providers

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// StatsAPIClient pulls per-game player stat lines from the stats provider.
type StatsAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

func NewStatsAPIClient(apiKey string, timeout time.Duration, breakerThreshold int, logger *logrus.Logger) *StatsAPIClient {
	return &StatsAPIClient{
		baseURL:    "https://api.balldontlie.io/v1",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    newBreaker("stats-api", breakerThreshold),
		logger:     logger,
	}
}

type statsAPIResponse struct {
	Data []struct {
		Pts    float64 `json:"pts"`
		Reb    float64 `json:"reb"`
		Ast    float64 `json:"ast"`
		Fg3m   float64 `json:"fg3m"`
		Player struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"player"`
		Team struct {
			Abbreviation string `json:"abbreviation"`
		} `json:"team"`
		Game struct {
			Date   string `json:"date"`
			Season int    `json:"season"`
		} `json:"game"`
	} `json:"data"`
	Meta struct {
		NextCursor int `json:"next_cursor"`
	} `json:"meta"`
}

// GetRecentStats fetches recent game logs, optionally filtered to a single
// player, and fans each box score out into one StatLine per stat type.
func (c *StatsAPIClient) GetRecentStats(sport, playerName string, limit int) ([]StatLine, error) {
	if sport != "nba" {
		// Only the NBA endpoint is wired on the stats provider today; other
		// sports fall back to sampled lines.
		return c.fallbackStats(sport, playerName, limit), nil
	}
	if limit <= 0 {
		limit = 25
	}

	endpoint := fmt.Sprintf("%s/stats?per_page=%d", c.baseURL, limit)
	if playerName != "" {
		endpoint += "&player_search=" + url.QueryEscape(playerName)
	}

	var payload statsAPIResponse
	headers := map[string]string{"Authorization": c.apiKey}
	if err := fetchJSON(c.breaker, c.httpClient, endpoint, headers, &payload); err != nil {
		c.logger.Warnf("Stats fetch failed for %s, generating fallback stats: %v", sport, err)
		return c.fallbackStats(sport, playerName, limit), nil
	}

	lines := make([]StatLine, 0, len(payload.Data)*4)
	for _, row := range payload.Data {
		name := row.Player.FirstName + " " + row.Player.LastName
		gameDate := row.Game.Date
		if len(gameDate) > 10 {
			gameDate = gameDate[:10]
		}
		for statType, value := range map[string]float64{
			"Points":         row.Pts,
			"Rebounds":       row.Reb,
			"Assists":        row.Ast,
			"Three Pointers": row.Fg3m,
		} {
			lines = append(lines, StatLine{
				PlayerName: name,
				Team:       row.Team.Abbreviation,
				StatType:   statType,
				Value:      value,
				GameDate:   gameDate,
				Season:     row.Game.Season,
			})
		}
	}

	if len(lines) == 0 {
		return c.fallbackStats(sport, playerName, limit), nil
	}
	return lines, nil
}

// fallbackStats fabricates a short recent-game history with bounded jitter,
// tagged synthetic.
func (c *StatsAPIClient) fallbackStats(sport, playerName string, limit int) []StatLine {
	if playerName == "" {
		playerName = "Sample Player"
	}
	statType := map[string]string{
		"nba":   "Points",
		"nfl":   "Passing Yards",
		"mlb":   "Total Bases",
		"nhl":   "Shots on Goal",
		"ncaab": "Points",
	}[sport]
	if statType == "" {
		statType = "Points"
	}

	games := 5
	if limit > 0 && limit < games {
		games = limit
	}

	base := 20 + rand.Float64()*10
	lines := make([]StatLine, 0, games)
	for i := 0; i < games; i++ {
		day := time.Now().AddDate(0, 0, -(i + 1))
		lines = append(lines, StatLine{
			PlayerName: playerName,
			Team:       "N/A",
			StatType:   statType,
			Value:      base + (rand.Float64()-0.5)*6,
			GameDate:   day.Format("2006-01-02"),
			Season:     day.Year(),
			Synthetic:  true,
		})
	}
	return lines
}
