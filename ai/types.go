package ai

// RiskLevels defines the valid risk labels a classifier may emit, ordered by
// increasing severity.
var RiskLevels = []string{
	"unknown",
	"low",
	"medium",
	"high",
	"critical",
}

// Categories defines the threat categories a classifier may emit.
var Categories = []string{
	"phishing",
	"malware",
	"c2",
	"spam",
	"scam",
	"infrastructure",
	"unknown",
}

// Classification is the result of classifying one indicator.
type Classification struct {
	// RiskLevel is one of the RiskLevels labels.
	RiskLevel string

	// Category is one of the Categories labels.
	Category string

	// Confidence is the classifier's self-assessed confidence in [0,1].
	Confidence float64

	// Reasoning is a short human-readable explanation of the verdict.
	Reasoning string
}

// SimilarContext summarizes a previously classified indicator that is
// semantically close to the one being classified. Classifiers may use it to
// bias their verdict toward established knowledge.
type SimilarContext struct {
	Indicator  string
	RiskLevel  string
	Category   string
	Similarity float64
}
