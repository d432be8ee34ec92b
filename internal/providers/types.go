package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Fetchers normalize third-party payloads into the model row shapes before
// the ingest service upserts them.

// OddsQuote is one normalized sportsbook quote for one player prop.
type OddsQuote struct {
	PlayerName   string
	Team         string
	Sport        string
	StatType     string
	Line         float64
	OverOdds     string
	UnderOdds    string
	Sportsbook   string
	LineMovement string
	OpeningLine  float64
	Synthetic    bool
}

// StatLine is one normalized player/stat/game result.
type StatLine struct {
	PlayerName string
	Team       string
	StatType   string
	Value      float64
	GameDate   string
	Season     int
	Synthetic  bool
}

// ScheduledGame is one normalized schedule entry.
type ScheduledGame struct {
	ExternalID string
	Sport      string
	HomeTeam   string
	AwayTeam   string
	HomeRecord string
	AwayRecord string
	GameDate   string
	GameTime   string
	Venue      string
	Network    string
	Status     string
	HomeScore  int
	AwayScore  int
	Season     int
	Week       int
	Synthetic  bool
}

// newBreaker builds the circuit breaker shared by all provider clients.
// The breaker opens after threshold consecutive failures and half-opens
// after 30 seconds.
func newBreaker(name string, threshold int) *gobreaker.CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
	})
}

// fetchJSON executes a GET through the breaker and decodes the JSON body
// into dest.
func fetchJSON(breaker *gobreaker.CircuitBreaker, client *http.Client, url string, headers map[string]string, dest interface{}) error {
	_, err := breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return nil, nil
	})
	return err
}
