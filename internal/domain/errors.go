package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownSource signals a source identifier outside the supported set.
	ErrUnknownSource = errors.New("unknown source")
	// ErrUnsupportedFilter signals a category filter on a source without categories.
	ErrUnsupportedFilter = errors.New("source does not support category filters")
	// ErrUnknownChatMode signals a chat mode outside the supported set.
	ErrUnknownChatMode = errors.New("unknown chat mode")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEnrichmentFailed signals a reasoning service failure or an unusable response.
	ErrEnrichmentFailed = errors.New("query enrichment failed")
	// ErrChatProviderError signals a chat completion failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrLiteratureAPI signals a bibliographic search API failure.
	ErrLiteratureAPI = errors.New("literature api error")

	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrZeroNorm signals a vector with zero magnitude.
	ErrZeroNorm = errors.New("zero-norm vector")
	// ErrNonFiniteScore signals a similarity that is NaN or infinite.
	ErrNonFiniteScore = errors.New("non-finite similarity score")
)
