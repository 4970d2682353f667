package services

import "finwise/internal/parser"

// InsightConfig carries the tunable inputs of the analytics engines. Every
// engine receives one explicitly at construction time instead of reading
// process-wide settings.
type InsightConfig struct {
	// MinSavingsThreshold is the minimum monthly savings, in currency
	// units, a spending recommendation must offer to be worth emitting.
	MinSavingsThreshold float64

	// MinConfidence is the confidence a recommendation must exceed to be
	// emitted.
	MinConfidence float64

	// ExcessSpendingThreshold is the ratio above the peer median at which
	// a category counts as overspent. 0.2 means 20% above peers.
	ExcessSpendingThreshold float64

	// PeerMedians maps category name to the peer monthly spend baseline.
	// A category with a zero or missing baseline is excluded from
	// comparison.
	PeerMedians map[string]float64

	// Taxonomy is the category keyword table shared with the extractor.
	Taxonomy parser.Taxonomy
}

// DefaultInsightConfig returns the stock thresholds and the anonymized peer
// baseline table.
func DefaultInsightConfig() InsightConfig {
	return InsightConfig{
		MinSavingsThreshold:     500,
		MinConfidence:           0.7,
		ExcessSpendingThreshold: 0.2,
		PeerMedians: map[string]float64{
			"food":          4500,
			"transport":     3000,
			"shopping":      3500,
			"entertainment": 2000,
			"utilities":     2500,
			"groceries":     6000,
			"health":        1500,
			"other":         2000,
		},
		Taxonomy: parser.DefaultTaxonomy(),
	}
}
