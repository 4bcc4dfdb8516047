package domain

import "errors"

// Sentinel errors, grouped by subsystem. Callers classify with errors.Is;
// adapters wrap these with context via fmt.Errorf("...: %w", ...).
var (
	// Extraction errors. Per-document: the pipeline reports them and
	// moves on to the next document.

	// ErrCorruptDocument indicates the document bytes could not be parsed.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrUnsupportedType indicates the declared mime type has no extractor.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrOCRFailed indicates the OCR fallback itself failed.
	ErrOCRFailed = errors.New("ocr failed")

	// Embedding errors.

	// ErrRateLimited indicates the provider throttled the request.
	// Retryable with backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidInput indicates a chunk the provider rejects (e.g. empty).
	// Not retried; the chunk is skipped and logged.
	ErrInvalidInput = errors.New("invalid embedding input")

	// ErrProviderUnavailable indicates a transient provider outage.
	// Retried a bounded number of times, then the document fails.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// Vector index errors.

	// ErrDimensionMismatch indicates an existing collection is configured
	// with a different vector dimension. Fatal for the run.
	ErrDimensionMismatch = errors.New("collection dimension mismatch")

	// ErrUpsertFailed indicates a point batch could not be written.
	ErrUpsertFailed = errors.New("upsert failed")

	// ErrStoreUnavailable indicates the vector store is unreachable.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// Configuration errors. Fatal at startup.

	// ErrMissingCredential indicates the selected provider's API key
	// environment variable is empty.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidProvider indicates an unknown embedding provider name.
	ErrInvalidProvider = errors.New("invalid embedding provider")
)

// Retryable reports whether an error is worth retrying with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrUpsertFailed)
}

// Fatal reports whether an error must abort the whole run rather than
// fail a single document.
func Fatal(err error) bool {
	return errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidProvider)
}
