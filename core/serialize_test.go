package core

import (
	"reflect"
	"testing"
	"time"
)

func TestIndicatorRecordSerialization(t *testing.T) {
	record := IndicatorRecord{
		Id:            IDFromContent("evil.example.com"),
		Indicator:     "evil.example.com",
		IndicatorType: IndicatorTypeDomain,
		RiskLevel:     RiskLevelHigh,
		Category:      "phishing",
		Confidence:    0.85,
		Source:        "urlhaus",
		FirstSeen:     time.Now().Add(-24 * time.Hour).Truncate(time.Microsecond).UTC(),
		LastSeen:      time.Now().Truncate(time.Microsecond).UTC(),
		TimesSeen:     3,
		Metadata:      map[string]string{"threat_type": "phishing", "tags": `["banking"]`},
		Embedding:     []float32{0.1, -0.2, 0.3},
	}

	buf := make([]byte, IndicatorRecordMUS.Size(record))
	n := IndicatorRecordMUS.Marshal(record, buf)
	if n != len(buf) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(buf))
	}

	decoded, read, err := IndicatorRecordMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if read != n {
		t.Errorf("Unmarshal consumed %d bytes, want %d", read, n)
	}
	if !reflect.DeepEqual(record, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, record)
	}
}

func TestFeedDescriptorSerialization(t *testing.T) {
	// zero LastUpdated must survive the round trip exactly
	feed := FeedDescriptor{
		Name:         "urlhaus",
		Endpoint:     "https://urlhaus-api.abuse.ch/v1/urls/recent/",
		Encoding:     FeedEncodingStructured,
		PollInterval: 15 * time.Minute,
		Active:       true,
		AuthHeaders:  map[string]string{"Authorization": "Bearer sesame"},
	}

	buf := make([]byte, FeedDescriptorMUS.Size(feed))
	FeedDescriptorMUS.Marshal(feed, buf)

	decoded, _, err := FeedDescriptorMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !decoded.LastUpdated.IsZero() {
		t.Errorf("zero LastUpdated decoded as %v", decoded.LastUpdated)
	}
	if !reflect.DeepEqual(feed, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, feed)
	}
}

func TestTechniqueMappingSerialization(t *testing.T) {
	mapping := TechniqueMapping{
		Id:                   7,
		IndicatorId:          IDFromContent("evil.example.com"),
		TechniqueId:          "T1566.002",
		TechniqueName:        "Spearphishing Link",
		TechniqueDescription: "Phishing indicator delivered via URL",
		Confidence:           0.7,
		CreatedAt:            time.Now().Truncate(time.Microsecond).UTC(),
	}

	buf := make([]byte, TechniqueMappingMUS.Size(mapping))
	TechniqueMappingMUS.Marshal(mapping, buf)

	decoded, _, err := TechniqueMappingMUS.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(mapping, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, mapping)
	}
}

func TestUnmarshalTruncatedBuffer(t *testing.T) {
	record := IndicatorRecord{
		Indicator:  "evil.example.com",
		Confidence: 0.5,
	}
	buf := make([]byte, IndicatorRecordMUS.Size(record))
	IndicatorRecordMUS.Marshal(record, buf)

	if _, _, err := IndicatorRecordMUS.Unmarshal(buf[:len(buf)/2]); err == nil {
		t.Error("Unmarshal() of truncated buffer succeeded, want error")
	}
}
