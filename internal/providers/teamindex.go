package providers

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// TeamIndex resolves team names to a canonical key. Entries are keyed by the
// provider's stable team ID when the upstream API supplies one; name
// containment is only a fallback and every fuzzy hit is logged so bad merges
// can be traced.
type TeamIndex struct {
	mu     sync.RWMutex
	byID   map[string]string // provider team ID -> canonical name
	byName map[string]string // lowercased full name -> canonical name
	logger *logrus.Logger
}

func NewTeamIndex(logger *logrus.Logger) *TeamIndex {
	return &TeamIndex{
		byID:   make(map[string]string),
		byName: make(map[string]string),
		logger: logger,
	}
}

// Register records a provider ID and display name for a canonical team name.
func (t *TeamIndex) Register(providerID, displayName, canonical string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if providerID != "" {
		t.byID[providerID] = canonical
	}
	t.byName[strings.ToLower(displayName)] = canonical
	t.byName[strings.ToLower(canonical)] = canonical
}

// Resolve maps a provider ID or display name to the canonical team name.
// ID lookups are authoritative; name containment is best-effort and warned.
func (t *TeamIndex) Resolve(providerID, name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if providerID != "" {
		if canonical, ok := t.byID[providerID]; ok {
			return canonical
		}
	}

	lower := strings.ToLower(name)
	if canonical, ok := t.byName[lower]; ok {
		return canonical
	}

	// Fuzzy fallback: containment either way.
	for known, canonical := range t.byName {
		if strings.Contains(lower, known) || strings.Contains(known, lower) {
			t.logger.Warnf("Fuzzy team match: %q resolved to %q via containment", name, canonical)
			return canonical
		}
	}

	return name
}
