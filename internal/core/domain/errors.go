package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownSource indicates a crawl was requested for a source id
	// that is not in the registry. Surfaced as not-found, never retried.
	ErrUnknownSource = errors.New("unknown source")

	// ErrEmptyQuestion indicates a question was blank after trimming.
	// Raised before any retrieval call is made.
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrGenerationFailed indicates the language model call failed or
	// timed out. There is no retrieval-only fallback answer.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrVectorUnavailable indicates the vector index could not be
	// reached. Distinguishable from "no relevant documents found".
	ErrVectorUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or not reachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrCrawlInProgress indicates a crawl is already running for the
	// requested source.
	ErrCrawlInProgress = errors.New("crawl in progress")
)
