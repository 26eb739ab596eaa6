package ideascout

import "github.com/kailas-cloud/ideascout/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrUnknownSource          = domain.ErrUnknownSource
	ErrUnsupportedFilter      = domain.ErrUnsupportedFilter
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrLiteratureAPI          = domain.ErrLiteratureAPI
)
