// Package extract turns raw feed payloads into candidate indicators.
//
// One adapter exists per feed encoding: structured-object (JSON, with the
// URLhaus and MISP provider conventions), markup-tree (PhishTank-style XML),
// delimited-line (hosts-file blocklists) and plain-text (one indicator per
// line). Adapters filter out entries that fail the provider's own quality
// gates, e.g. offline URLhaus entries or deleted MISP attributes.
package extract
