package providers

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// OddsAPIClient pulls player-prop quotes from the odds provider.
type OddsAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

func NewOddsAPIClient(apiKey string, timeout time.Duration, breakerThreshold int, logger *logrus.Logger) *OddsAPIClient {
	return &OddsAPIClient{
		baseURL:    "https://api.the-odds-api.com/v4",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    newBreaker("odds-api", breakerThreshold),
		logger:     logger,
	}
}

type oddsAPIResponse []struct {
	ID         string `json:"id"`
	SportKey   string `json:"sport_key"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Bookmakers []struct {
		Key     string `json:"key"`
		Title   string `json:"title"`
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name        string  `json:"name"`
				Description string  `json:"description"` // player name for prop markets
				Price       int     `json:"price"`
				Point       float64 `json:"point"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

var oddsSportKeys = map[string]string{
	"nba":   "basketball_nba",
	"nfl":   "americanfootball_nfl",
	"mlb":   "baseball_mlb",
	"nhl":   "icehockey_nhl",
	"ncaab": "basketball_ncaab",
}

var propMarkets = map[string]string{
	"player_points":   "Points",
	"player_rebounds": "Rebounds",
	"player_assists":  "Assists",
	"player_threes":   "Three Pointers",
	"totals":          "Total Points",
}

// GetPlayerProps fetches prop quotes for a sport. On any upstream failure it
// returns fabricated sample quotes tagged synthetic so the UI can degrade
// instead of going blank.
func (c *OddsAPIClient) GetPlayerProps(sport string) ([]OddsQuote, error) {
	sportKey, ok := oddsSportKeys[sport]
	if !ok {
		return nil, fmt.Errorf("unsupported sport: %s", sport)
	}

	endpoint := fmt.Sprintf("%s/sports/%s/odds?regions=us&markets=%s&oddsFormat=american&apiKey=%s",
		c.baseURL, sportKey, url.QueryEscape("player_points,player_rebounds,player_assists,totals"), c.apiKey)

	var payload oddsAPIResponse
	if err := fetchJSON(c.breaker, c.httpClient, endpoint, nil, &payload); err != nil {
		c.logger.Warnf("Odds fetch failed for %s, generating fallback quotes: %v", sport, err)
		return c.fallbackQuotes(sport), nil
	}

	quotes := make([]OddsQuote, 0)
	for _, event := range payload {
		for _, book := range event.Bookmakers {
			for _, market := range book.Markets {
				statType, ok := propMarkets[market.Key]
				if !ok {
					continue
				}
				quotes = append(quotes, c.normalizeMarket(event.HomeTeam, sport, statType, book.Title, market.Outcomes)...)
			}
		}
	}

	if len(quotes) == 0 {
		c.logger.Warnf("Odds fetch for %s returned no structured prop markets, generating fallback quotes", sport)
		return c.fallbackQuotes(sport), nil
	}

	return quotes, nil
}

func (c *OddsAPIClient) normalizeMarket(team, sport, statType, book string, outcomes []struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int     `json:"price"`
	Point       float64 `json:"point"`
}) []OddsQuote {
	// Outcomes come as Over/Under pairs per player; fold them into one quote.
	byPlayer := make(map[string]*OddsQuote)
	order := make([]string, 0)

	for _, outcome := range outcomes {
		player := outcome.Description
		if player == "" {
			player = team // game totals carry no player
		}
		quote, ok := byPlayer[player]
		if !ok {
			quote = &OddsQuote{
				PlayerName: player,
				Team:       team,
				Sport:      sport,
				StatType:   statType,
				Line:       outcome.Point,
				Sportsbook: book,
			}
			byPlayer[player] = quote
			order = append(order, player)
		}
		price := formatAmerican(outcome.Price)
		if strings.EqualFold(outcome.Name, "Over") {
			quote.OverOdds = price
		} else {
			quote.UnderOdds = price
		}
	}

	quotes := make([]OddsQuote, 0, len(order))
	for _, player := range order {
		quotes = append(quotes, *byPlayer[player])
	}
	return quotes
}

func formatAmerican(price int) string {
	if price > 0 {
		return fmt.Sprintf("+%d", price)
	}
	return fmt.Sprintf("%d", price)
}

var fallbackBooks = []string{"DraftKings", "FanDuel", "BetMGM"}

var fallbackProps = map[string][]struct {
	player string
	team   string
	stat   string
	line   float64
}{
	"nba": {
		{"Jayson Tatum", "BOS", "Points", 27.5},
		{"Nikola Jokic", "DEN", "Rebounds", 12.5},
		{"Luka Doncic", "DAL", "Assists", 9.5},
	},
	"nfl": {
		{"Josh Allen", "BUF", "Passing Yards", 255.5},
		{"Christian McCaffrey", "SF", "Rushing Yards", 88.5},
	},
	"mlb": {
		{"Aaron Judge", "NYY", "Total Bases", 1.5},
	},
	"nhl": {
		{"Connor McDavid", "EDM", "Shots on Goal", 3.5},
	},
	"ncaab": {
		{"Team Total", "HOME", "Total Points", 145.5},
	},
}

// fallbackQuotes fabricates plausible quotes with bounded jitter. Every row
// is marked Synthetic so downstream consumers can tell.
func (c *OddsAPIClient) fallbackQuotes(sport string) []OddsQuote {
	props := fallbackProps[sport]
	quotes := make([]OddsQuote, 0, len(props)*len(fallbackBooks))
	for _, prop := range props {
		for _, book := range fallbackBooks {
			jitter := (rand.Float64() - 0.5) // +/- 0.5 line points per book
			quotes = append(quotes, OddsQuote{
				PlayerName:   prop.player,
				Team:         prop.team,
				Sport:        sport,
				StatType:     prop.stat,
				Line:         prop.line + jitter,
				OverOdds:     formatAmerican(-120 + rand.Intn(20)),
				UnderOdds:    formatAmerican(100 + rand.Intn(15)),
				Sportsbook:   book,
				LineMovement: "stable",
				OpeningLine:  prop.line,
				Synthetic:    true,
			})
		}
	}
	return quotes
}
