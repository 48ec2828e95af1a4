package model

// ConfidenceTier buckets how reliable a matching rule has proven to be.
type ConfidenceTier string

// Confidence tiers.
const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// Rule is a named matching policy the allocation engine consults when
// proposing invoice allocations. Read-only reference data in the review
// flow; only the engine updates MatchedCount.
type Rule struct {
	ID           string
	Name         string
	Description  string
	MatchLogic   string
	Confidence   ConfidenceTier
	MatchedCount int
	Limitations  []string
}
