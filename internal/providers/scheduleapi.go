package providers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ScheduleAPIClient pulls the day's scoreboard from the schedule provider.
type ScheduleAPIClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	teams      *TeamIndex
	logger     *logrus.Logger
}

func NewScheduleAPIClient(timeout time.Duration, breakerThreshold int, teams *TeamIndex, logger *logrus.Logger) *ScheduleAPIClient {
	return &ScheduleAPIClient{
		baseURL:    "https://site.api.espn.com/apis/site/v2/sports",
		httpClient: &http.Client{Timeout: timeout},
		breaker:    newBreaker("schedule-api", breakerThreshold),
		teams:      teams,
		logger:     logger,
	}
}

var scheduleSportPaths = map[string]string{
	"nba":   "basketball/nba",
	"nfl":   "football/nfl",
	"mlb":   "baseball/mlb",
	"nhl":   "hockey/nhl",
	"ncaab": "basketball/mens-college-basketball",
}

type scoreboardResponse struct {
	Events []struct {
		ID     string `json:"id"`
		Date   string `json:"date"`
		Season struct {
			Year int `json:"year"`
		} `json:"season"`
		Week struct {
			Number int `json:"number"`
		} `json:"week"`
		Competitions []struct {
			Venue struct {
				FullName string `json:"fullName"`
			} `json:"venue"`
			Broadcasts []struct {
				Names []string `json:"names"`
			} `json:"broadcasts"`
			Status struct {
				Type struct {
					State string `json:"state"` // "pre", "in", "post"
				} `json:"type"`
			} `json:"status"`
			Competitors []struct {
				ID       string `json:"id"`
				HomeAway string `json:"homeAway"`
				Score    string `json:"score"`
				Team     struct {
					ID          string `json:"id"`
					DisplayName string `json:"displayName"`
				} `json:"team"`
				Records []struct {
					Summary string `json:"summary"`
				} `json:"records"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

// GetSchedule fetches the scoreboard for a sport and date (YYYYMMDD).
// Unlike the odds and stats fetchers there is no fabricated fallback here;
// an empty schedule is an acceptable degraded state.
func (c *ScheduleAPIClient) GetSchedule(sport, date string) ([]ScheduledGame, error) {
	path, ok := scheduleSportPaths[sport]
	if !ok {
		return nil, fmt.Errorf("unsupported sport: %s", sport)
	}

	endpoint := fmt.Sprintf("%s/%s/scoreboard", c.baseURL, path)
	if date != "" {
		endpoint += "?dates=" + date
	}

	var payload scoreboardResponse
	if err := fetchJSON(c.breaker, c.httpClient, endpoint, nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch %s scoreboard: %w", sport, err)
	}

	games := make([]ScheduledGame, 0, len(payload.Events))
	for _, event := range payload.Events {
		if len(event.Competitions) == 0 {
			continue
		}
		comp := event.Competitions[0]

		game := ScheduledGame{
			ExternalID: event.ID,
			Sport:      sport,
			Venue:      comp.Venue.FullName,
			Status:     normalizeStatus(comp.Status.Type.State),
			Season:     event.Season.Year,
			Week:       event.Week.Number,
		}

		if ts, err := time.Parse("2006-01-02T15:04Z", event.Date); err == nil {
			game.GameDate = ts.Format("2006-01-02")
			game.GameTime = ts.Format("15:04")
		}
		if len(comp.Broadcasts) > 0 && len(comp.Broadcasts[0].Names) > 0 {
			game.Network = comp.Broadcasts[0].Names[0]
		}

		for _, competitor := range comp.Competitors {
			c.teams.Register(competitor.Team.ID, competitor.Team.DisplayName, competitor.Team.DisplayName)
			name := c.teams.Resolve(competitor.Team.ID, competitor.Team.DisplayName)
			record := ""
			if len(competitor.Records) > 0 {
				record = competitor.Records[0].Summary
			}
			score := parseScore(competitor.Score)

			if competitor.HomeAway == "home" {
				game.HomeTeam = name
				game.HomeRecord = record
				game.HomeScore = score
			} else {
				game.AwayTeam = name
				game.AwayRecord = record
				game.AwayScore = score
			}
		}

		games = append(games, game)
	}

	return games, nil
}

func normalizeStatus(state string) string {
	switch state {
	case "in":
		return "live"
	case "post":
		return "final"
	default:
		return "scheduled"
	}
}

func parseScore(s string) int {
	score := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			return 0
		}
		score = score*10 + int(r-'0')
	}
	return score
}
