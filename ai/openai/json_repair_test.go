package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON_MissingOpeningQuote(t *testing.T) {
	broken := `{risk_level": "high", category": "phishing"}`
	repaired := repairJSON(broken)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(repaired), &parsed))
	assert.Equal(t, "high", parsed["risk_level"])
	assert.Equal(t, "phishing", parsed["category"])
}

func TestRepairJSON_ValidInputUnchanged(t *testing.T) {
	valid := `{"risk_level": "high", "confidence": 0.8}`
	assert.Equal(t, valid, repairJSON(valid))
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "high", normalizeLabel(" High ", []string{"low", "high"}))
	assert.Equal(t, "unknown", normalizeLabel("severe", []string{"low", "high"}))
	assert.Equal(t, "unknown", normalizeLabel("", []string{"low", "high"}))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, clampConfidence(-0.5))
	assert.Equal(t, 0.7, clampConfidence(0.7))
	assert.Equal(t, 1.0, clampConfidence(1.8))
}
