package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "domain indicator",
			content: "evil-login.example.com",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long url",
			content: "https://evil-login.example.com/account/verify?session=abcdef0123456789&redirect=https%3A%2F%2Fbank.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("evil.example.com")
	id2 := IDFromContent("evil.example.org")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestParseIndicatorType(t *testing.T) {
	tests := []struct {
		label string
		want  IndicatorType
	}{
		{"url", IndicatorTypeURL},
		{"domain", IndicatorTypeDomain},
		{"hostname", IndicatorTypeDomain},
		{"ip-dst", IndicatorTypeIP},
		{"md5", IndicatorTypeHash},
		{"sha256", IndicatorTypeHash},
		{"email-src", IndicatorTypeEmail},
		{"filename", IndicatorTypeUnknown},
		{"", IndicatorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParseIndicatorType(tt.label); got != tt.want {
				t.Errorf("ParseIndicatorType(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestRiskLevelRoundTrip(t *testing.T) {
	for _, level := range []RiskLevel{
		RiskLevelUnknown, RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical,
	} {
		if got := ParseRiskLevel(level.String()); got != level {
			t.Errorf("ParseRiskLevel(%q) = %v, want %v", level.String(), got, level)
		}
	}
}

func TestParseRiskLevel_Unknown(t *testing.T) {
	if got := ParseRiskLevel("catastrophic"); got != RiskLevelUnknown {
		t.Errorf("ParseRiskLevel(catastrophic) = %v, want %v", got, RiskLevelUnknown)
	}
}

func TestParseFeedEncoding(t *testing.T) {
	tests := []struct {
		label string
		want  FeedEncoding
	}{
		{"json", FeedEncodingStructured},
		{"structured", FeedEncodingStructured},
		{"xml", FeedEncodingMarkup},
		{"markup", FeedEncodingMarkup},
		{"delimited", FeedEncodingDelimited},
		{"csv", FeedEncodingDelimited},
		{"hosts", FeedEncodingDelimited},
		{"text", FeedEncodingPlainText},
		{"plaintext", FeedEncodingPlainText},
		{"yaml", FeedEncodingUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParseFeedEncoding(tt.label); got != tt.want {
				t.Errorf("ParseFeedEncoding(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestEmbeddingText(t *testing.T) {
	record := &IndicatorRecord{
		Indicator: "evil.example.com",
		RiskLevel: RiskLevelHigh,
		Category:  "phishing",
	}
	want := "evil.example.com phishing high"
	if got := record.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}
}
