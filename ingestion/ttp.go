package ingestion

import (
	"github.com/corvusec/threatbase/core"
)

// techniqueRule maps a threat category to the ATT&CK technique it most
// commonly evidences.
type techniqueRule struct {
	id          string
	name        string
	description string
}

var techniqueRules = map[string]techniqueRule{
	"phishing": {
		id:          "T1566.002",
		name:        "Spearphishing Link",
		description: "Adversaries send spearphishing messages with a malicious link to elicit sensitive information or gain access.",
	},
	"malware": {
		id:          "T1105",
		name:        "Ingress Tool Transfer",
		description: "Adversaries transfer tools or malware from an external system into a compromised environment.",
	},
	"c2": {
		id:          "T1071.001",
		name:        "Application Layer Protocol: Web Protocols",
		description: "Adversaries communicate using application layer web protocols to blend command and control with normal traffic.",
	},
}

// techniqueForCategory returns the ATT&CK mapping for a classified category,
// or nil when the category carries no mapping.
func techniqueForCategory(category string, indicatorID core.ID, confidence float64) *core.TechniqueMapping {
	rule, ok := techniqueRules[category]
	if !ok {
		return nil
	}
	return &core.TechniqueMapping{
		IndicatorId:          indicatorID,
		TechniqueId:          rule.id,
		TechniqueName:        rule.name,
		TechniqueDescription: rule.description,
		Confidence:           confidence,
	}
}
