package domain

import "errors"

var (
	// ErrUnsupportedFormat is returned when a file is neither PDF nor DOCX.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrContentBlocked marks a provider policy rejection (safety or recitation).
	ErrContentBlocked = errors.New("content blocked by provider")

	// ErrTransientProvider marks a retryable provider failure.
	ErrTransientProvider = errors.New("transient provider error")

	// ErrNoOutput is returned when the model produced no usable text.
	ErrNoOutput = errors.New("model produced no output")

	// ErrIndexNotFound is returned when a folder has no persisted index.
	ErrIndexNotFound = errors.New("index not found")

	// ErrPersistenceFailure is returned when an index could not be built.
	ErrPersistenceFailure = errors.New("index persistence failed")

	// ErrEmbedderMismatch is returned when an index was built with another embedder.
	ErrEmbedderMismatch = errors.New("embedder does not match index")

	// ErrSectionRetrieval wraps a failed aggregator section.
	ErrSectionRetrieval = errors.New("section retrieval failed")

	// ErrDocumentTooLarge is returned when a document exceeds the agent input budget.
	ErrDocumentTooLarge = errors.New("document exceeds agent input budget")

	// ErrUnknownAgent is returned for an agent name outside the fixed set.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrInvalidOutput is returned when structured agent output cannot be parsed.
	ErrInvalidOutput = errors.New("invalid agent output")
)
