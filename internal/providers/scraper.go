package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// SiteScraper extracts prop lines from public HTML pages. Extraction is
// regex-based and brittle; any miss falls back to the odds client's sample
// quotes. The limiter keeps requests polite.
type SiteScraper struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

func NewSiteScraper(baseURL string, timeout time.Duration, breakerThreshold, requestsPerSecond int, logger *logrus.Logger) *SiteScraper {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &SiteScraper{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    newBreaker("site-scraper", breakerThreshold),
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:     logger,
	}
}

// Matches rows like:
//   <td class="player">LeBron James</td><td class="prop">Points</td><td class="line">25.5</td>
var propRowPattern = regexp.MustCompile(
	`(?s)<td[^>]*class="[^"]*player[^"]*"[^>]*>([^<]+)</td>\s*` +
		`<td[^>]*class="[^"]*prop[^"]*"[^>]*>([^<]+)</td>\s*` +
		`<td[^>]*class="[^"]*line[^"]*"[^>]*>([\d.]+)</td>`)

// ScrapeProps pulls a sport's prop page and extracts (player, stat, line)
// triples. Rows are tagged Synthetic=false only when the page parsed; an
// empty or failed page yields nothing here and the caller decides whether
// to fabricate.
func (s *SiteScraper) ScrapeProps(ctx context.Context, sport string) ([]OddsQuote, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("scraper base URL not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageURL := fmt.Sprintf("%s/%s/props", s.baseURL, sport)
	body, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", pageURL, err)
	}

	matches := propRowPattern.FindAllStringSubmatch(body, -1)
	quotes := make([]OddsQuote, 0, len(matches))
	for _, m := range matches {
		line, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		quotes = append(quotes, OddsQuote{
			PlayerName:   m[1],
			Sport:        sport,
			StatType:     m[2],
			Line:         line,
			OverOdds:     "-110",
			UnderOdds:    "-110",
			Sportsbook:   "Consensus",
			LineMovement: "stable",
			OpeningLine:  line,
		})
	}

	if len(quotes) == 0 {
		s.logger.Warnf("Scrape of %s yielded no parseable prop rows", pageURL)
	}
	return quotes, nil
}

func (s *SiteScraper) fetchPage(ctx context.Context, pageURL string) (string, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; propedge/1.0)")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		return string(body), nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
