package extract

import (
	"github.com/corvusec/threatbase/core"
)

// Adapter decodes one feed payload format into candidate indicators.
// Adapters are stateless and safe for concurrent use.
type Adapter interface {
	// Extract decodes the raw payload for the given feed. Entries that fail
	// the adapter's filters are dropped silently; a payload that cannot be
	// decoded at all returns a *ParseError.
	Extract(payload []byte, feed *core.FeedDescriptor) ([]*core.CandidateIndicator, error)
}

// ForEncoding returns the adapter for a feed encoding. Returns
// ErrUnsupportedEncoding for encodings without an adapter.
func ForEncoding(encoding core.FeedEncoding) (Adapter, error) {
	switch encoding {
	case core.FeedEncodingStructured:
		return &StructuredAdapter{}, nil
	case core.FeedEncodingMarkup:
		return &MarkupAdapter{}, nil
	case core.FeedEncodingDelimited:
		return &DelimitedAdapter{}, nil
	case core.FeedEncodingPlainText:
		return &PlainTextAdapter{}, nil
	default:
		return nil, ErrUnsupportedEncoding
	}
}
