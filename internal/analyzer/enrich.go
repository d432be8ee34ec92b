package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/propedge/propedge/internal/ai"
)

// enrichLimit caps how many opportunities are sent for narrative enrichment
// per run; one request covers the whole slice.
const enrichLimit = 5

const enrichSystemPrompt = `You review heuristic betting opportunities. For each numbered item, ` +
	`reply with a JSON array of objects {"index": n, "risk_factors": ["..."]} listing 1-3 concrete ` +
	`risks (injury exposure, small sample, thin market). Reply with JSON only.`

type enrichment struct {
	Index       int      `json:"index"`
	RiskFactors []string `json:"risk_factors"`
}

// enrich asks the model for risk factors on the top slice. Strictly
// best-effort: any failure returns the opportunities unchanged.
func (s *Service) enrich(ctx context.Context, opportunities []Opportunity) []Opportunity {
	if s.client == nil || !s.client.IsConfigured() || len(opportunities) == 0 {
		return opportunities
	}

	sortOpportunities(opportunities)
	limit := len(opportunities)
	if limit > enrichLimit {
		limit = enrichLimit
	}

	var prompt strings.Builder
	for i, opp := range opportunities[:limit] {
		prompt.WriteString(fmt.Sprintf("%d. [%s] %s: %s (edge %.1f%%, confidence %.0f)\n",
			i, opp.Category, opp.Title, opp.Reasoning, opp.EdgePercent, opp.Confidence))
	}

	resp, err := s.client.Messages(ctx, ai.Request{
		MaxTokens: 1024,
		System:    enrichSystemPrompt,
		Messages:  []ai.Message{ai.TextMessage("user", prompt.String())},
	})
	if err != nil {
		s.logger.Warnf("Opportunity enrichment skipped: %v", err)
		return opportunities
	}

	var enrichments []enrichment
	text := resp.FirstText()
	if start := strings.Index(text, "["); start >= 0 {
		text = text[start:]
	}
	if err := json.Unmarshal([]byte(text), &enrichments); err != nil {
		s.logger.Warnf("Unparseable enrichment response: %v", err)
		return opportunities
	}

	for _, e := range enrichments {
		if e.Index >= 0 && e.Index < limit {
			opportunities[e.Index].RiskFactors = e.RiskFactors
		}
	}
	return opportunities
}
