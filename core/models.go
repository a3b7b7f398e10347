package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities. Indicator IDs are derived
// from the indicator's natural key via content hashing; append-only entities
// (technique mappings, analysis records) draw IDs from database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b
// hashing. Identical content always produces an identical ID, which is what
// makes the indicator natural key stable across upserts.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// IndicatorType categorizes an indicator of compromise by its shape.
type IndicatorType int

const (
	IndicatorTypeUnknown IndicatorType = iota
	IndicatorTypeDomain
	IndicatorTypeIP
	IndicatorTypeURL
	IndicatorTypeHash
	IndicatorTypeEmail
)

var indicatorTypeNames = map[IndicatorType]string{
	IndicatorTypeUnknown: "unknown",
	IndicatorTypeDomain:  "domain",
	IndicatorTypeIP:      "ip",
	IndicatorTypeURL:     "url",
	IndicatorTypeHash:    "hash",
	IndicatorTypeEmail:   "email",
}

func (t IndicatorType) String() string {
	if name, ok := indicatorTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseIndicatorType maps a type label from a feed or classifier to an
// IndicatorType. Unrecognized labels map to IndicatorTypeUnknown.
func ParseIndicatorType(s string) IndicatorType {
	switch s {
	case "domain", "hostname":
		return IndicatorTypeDomain
	case "ip", "ip_address", "ip-src", "ip-dst":
		return IndicatorTypeIP
	case "url", "uri":
		return IndicatorTypeURL
	case "hash", "md5", "sha1", "sha256":
		return IndicatorTypeHash
	case "email", "email-src", "email-dst":
		return IndicatorTypeEmail
	default:
		return IndicatorTypeUnknown
	}
}

// RiskLevel is the classified severity of an indicator.
type RiskLevel int

const (
	RiskLevelUnknown RiskLevel = iota
	RiskLevelLow
	RiskLevelMedium
	RiskLevelHigh
	RiskLevelCritical
)

var riskLevelNames = map[RiskLevel]string{
	RiskLevelUnknown:  "unknown",
	RiskLevelLow:      "low",
	RiskLevelMedium:   "medium",
	RiskLevelHigh:     "high",
	RiskLevelCritical: "critical",
}

func (r RiskLevel) String() string {
	if name, ok := riskLevelNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParseRiskLevel maps a lowercase risk label to a RiskLevel. Unrecognized
// labels map to RiskLevelUnknown.
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "low":
		return RiskLevelLow
	case "medium":
		return RiskLevelMedium
	case "high":
		return RiskLevelHigh
	case "critical":
		return RiskLevelCritical
	default:
		return RiskLevelUnknown
	}
}

// IndicatorRecord represents one observed IOC. The Indicator field is the
// natural key: re-observation of the same value updates the existing record
// in place rather than creating a second one.
type IndicatorRecord struct {
	Id            ID
	Indicator     string
	IndicatorType IndicatorType
	RiskLevel     RiskLevel
	Category      string
	Confidence    float64
	Source        string
	FirstSeen     time.Time
	LastSeen      time.Time
	TimesSeen     int64
	Metadata      map[string]string
	Embedding     []float32 // empty when no embedding provider is configured
}

// EmbeddingText returns the text an indicator embedding is computed from.
func (r *IndicatorRecord) EmbeddingText() string {
	return r.Indicator + " " + r.Category + " " + r.RiskLevel.String()
}

// TechniqueMapping attributes an indicator to an ATT&CK technique.
// Mappings are append-only; one indicator may carry many.
type TechniqueMapping struct {
	Id                   ID
	IndicatorId          ID
	TechniqueId          string
	TechniqueName        string
	TechniqueDescription string
	Confidence           float64
	CreatedAt            time.Time
}

// AnalysisRecord is an immutable log entry for one analysis invocation.
// InputPayload and OutputPayload are opaque serialized blobs whose structure
// is keyed by AnalysisType.
type AnalysisRecord struct {
	Id            ID
	SessionId     string
	Scope         string // originating component, used for context filtering
	AnalysisType  string
	InputPayload  string
	OutputPayload string
	Confidence    float64
	Duration      time.Duration
	CreatedAt     time.Time
	Embedding     []float32
}

// EmbeddingText returns the text an analysis embedding is computed from.
func (r *AnalysisRecord) EmbeddingText() string {
	return r.AnalysisType + " " + r.InputPayload
}

// KnowledgePattern is a derived, reusable rule extracted from clusters of
// high-confidence analyses. The core only stores and retrieves patterns; the
// learning layer that produces them lives outside this module.
type KnowledgePattern struct {
	Id                 ID
	PatternType        string
	PatternText        string
	PatternRules       string // serialized structured rule set
	EffectivenessScore float64
	UsageCount         int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Tuple returns a string representation of the pattern as "(Type,Text)".
// This is used for generating deterministic IDs.
func (p *KnowledgePattern) Tuple() string {
	return "(" + p.PatternType + "," + p.PatternText + ")"
}

// FeedEncoding identifies the wire format of a feed payload.
type FeedEncoding int

const (
	FeedEncodingUnknown    FeedEncoding = iota
	FeedEncodingStructured              // structured-object (JSON)
	FeedEncodingMarkup                  // markup-tree (XML)
	FeedEncodingDelimited               // delimited-line (hosts-file style)
	FeedEncodingPlainText               // one raw indicator per line
)

var feedEncodingNames = map[FeedEncoding]string{
	FeedEncodingUnknown:    "unknown",
	FeedEncodingStructured: "json",
	FeedEncodingMarkup:     "xml",
	FeedEncodingDelimited:  "delimited",
	FeedEncodingPlainText:  "text",
}

func (e FeedEncoding) String() string {
	if name, ok := feedEncodingNames[e]; ok {
		return name
	}
	return "unknown"
}

// ParseFeedEncoding maps an encoding label to a FeedEncoding.
func ParseFeedEncoding(s string) FeedEncoding {
	switch s {
	case "json", "structured":
		return FeedEncodingStructured
	case "xml", "markup":
		return FeedEncodingMarkup
	case "delimited", "csv", "hosts":
		return FeedEncodingDelimited
	case "text", "plaintext":
		return FeedEncodingPlainText
	default:
		return FeedEncodingUnknown
	}
}

// FeedDescriptor is the configuration for one external feed. Descriptors are
// owned by the feed registry; pollers work from per-cycle snapshots.
type FeedDescriptor struct {
	Name         string
	Endpoint     string
	Encoding     FeedEncoding
	PollInterval time.Duration
	LastUpdated  time.Time // zero until the first successful cycle
	Active       bool
	AuthHeaders  map[string]string
}

// CandidateIndicator is one extracted, not-yet-classified indicator tuple
// produced by an extraction adapter.
type CandidateIndicator struct {
	Value          string
	Type           IndicatorType
	Source         string
	ThreatTypeHint string
	Tags           []string
}

// IndicatorMatch is one ranked result from a similarity query. Similarity is
// cosine similarity for embedding-ranked results and a fixed 0.5 for
// substring-fallback results, so the field is always populated.
type IndicatorMatch struct {
	Record     *IndicatorRecord
	Similarity float64
}

// StoreStatistics is a full-table aggregate snapshot, intended for periodic
// rather than per-request use.
type StoreStatistics struct {
	TotalIndicators      int64
	RiskDistribution     map[string]int64
	CategoryDistribution map[string]int64
	TotalAnalyses        int64
	AnalysisDistribution map[string]int64
}

// HistoricalContext is a bounded recency snapshot of the knowledge base.
type HistoricalContext struct {
	RecentIndicators []*IndicatorRecord
	RecentMappings   []*TechniqueMapping
	RecentAnalyses   []*AnalysisRecord
}
