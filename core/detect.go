package core

import (
	"net"
	"strings"
)

// DetectIndicatorType infers the type of an indicator from its shape. It is
// used for candidates coming from feeds that do not label their indicators.
func DetectIndicatorType(indicator string) IndicatorType {
	indicator = strings.TrimSpace(indicator)
	if indicator == "" {
		return IndicatorTypeUnknown
	}

	if strings.HasPrefix(indicator, "http://") || strings.HasPrefix(indicator, "https://") {
		return IndicatorTypeURL
	}

	if strings.Contains(indicator, "@") {
		return IndicatorTypeEmail
	}

	if ip := net.ParseIP(indicator); ip != nil {
		return IndicatorTypeIP
	}

	// MD5, SHA-1, SHA-256 hex digests
	switch len(indicator) {
	case 32, 40, 64:
		if isHex(indicator) {
			return IndicatorTypeHash
		}
	}

	if strings.Contains(indicator, ".") {
		return IndicatorTypeDomain
	}

	return IndicatorTypeUnknown
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
