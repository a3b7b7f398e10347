package ingestion

import "errors"

var (
	// ErrIndicatorRepositoryRequired is returned when an indicator repository
	// is not provided.
	ErrIndicatorRepositoryRequired = errors.New("indicator repository required")

	// ErrTechniqueRepositoryRequired is returned when a technique repository
	// is not provided.
	ErrTechniqueRepositoryRequired = errors.New("technique repository required")

	// ErrAnalysisRepositoryRequired is returned when an analysis repository
	// is not provided.
	ErrAnalysisRepositoryRequired = errors.New("analysis repository required")

	// ErrClassifierRequired is returned when a classifier is not provided.
	ErrClassifierRequired = errors.New("classifier required")
)
