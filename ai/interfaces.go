package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Classifier assigns a risk level and threat category to an indicator.
// Implementations must be thread-safe for concurrent use.
type Classifier interface {
	// Classify analyzes a single indicator value, optionally informed by
	// previously classified similar indicators. An indicator the classifier
	// cannot place is NOT an error: it returns a Classification with the
	// "unknown" risk level and a low confidence.
	Classify(ctx context.Context, indicator string, similar []SimilarContext) (*Classification, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Classifier returns the indicator classification service.
	Classifier() Classifier

	// Close releases resources held by the provider and its services.
	Close() error
}
