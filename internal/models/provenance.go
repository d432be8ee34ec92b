package models

// Provenance records where an ingested row came from. Fallback and synthetic
// rows are fabricated when a live fetch fails, so every consumer can tell
// them apart from real data.
type Provenance string

const (
	ProvenanceLive      Provenance = "live"
	ProvenanceFallback  Provenance = "fallback"
	ProvenanceSynthetic Provenance = "synthetic"
)

func (p Provenance) IsReal() bool {
	return p == ProvenanceLive
}
