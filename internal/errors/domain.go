package errors

// Domain error codes for the hybrid catalog search core (spec.md §7).
// These extend the ERR_XXX taxonomy in codes.go with the index-contract
// and store-level errors the core's components raise.
const (
	// ErrCodeNotFound indicates a doc_id absent from the Document Store.
	ErrCodeNotFound = "ERR_410_NOT_FOUND"

	// ErrCodeAlreadyIndexed indicates BM25Index.add or VectorIndex.add was
	// called for a doc_id already present.
	ErrCodeAlreadyIndexed = "ERR_411_ALREADY_INDEXED"

	// ErrCodeNotIndexed indicates update/remove was called for a doc_id
	// absent from the index.
	ErrCodeNotIndexed = "ERR_412_NOT_INDEXED"

	// ErrCodeStoreUnavailable indicates the external Document Store could
	// not be reached or returned an I/O failure.
	ErrCodeStoreUnavailable = "ERR_301_STORE_UNAVAILABLE"
)

// Sentinel errors for the index-contract violations in spec.md §7. Callers
// compare with errors.Is, never by inspecting .Code or .Error() text.
var (
	// ErrNotFound: doc_id absent in Doc Store.
	ErrNotFound = New(ErrCodeNotFound, "document not found", nil)

	// ErrAlreadyIndexed: doc_id already present in an index.
	ErrAlreadyIndexed = New(ErrCodeAlreadyIndexed, "document already indexed", nil)

	// ErrNotIndexed: doc_id absent from an index.
	ErrNotIndexed = New(ErrCodeNotIndexed, "document not indexed", nil)

	// ErrDimensionMismatch: vector dimension does not match the index's D.
	ErrDimensionMismatch = New(ErrCodeDimensionMismatch, "vector dimension mismatch", nil)

	// ErrZeroVector: insert/update rejected a vector whose L2 norm is zero.
	ErrZeroVector = New(ErrCodeInvalidInput, "vector has zero norm", nil)

	// ErrInvalidQuery: a query-time vector has zero norm, or another
	// contract violation that is specific to the query path.
	ErrInvalidQuery = New(ErrCodeInvalidQuery, "invalid query", nil)

	// ErrInvalidInput: malformed query or out-of-range parameter.
	ErrInvalidInput = New(ErrCodeInvalidInput, "invalid input", nil)

	// ErrStoreUnavailable: Document Store I/O failure.
	ErrStoreUnavailable = New(ErrCodeStoreUnavailable, "document store unavailable", nil)

	// ErrIndexInvariant: an index invariant was violated. Fatal, never
	// swallowed — see spec.md §7.
	ErrIndexInvariant = New(ErrCodeInternal, "index invariant violated", nil)
)

// WithCause returns a copy of a sentinel error with the underlying cause
// attached, preserving Is()-comparability by error code.
func WithCause(sentinel *AmanError, cause error) *AmanError {
	return &AmanError{
		Code:      sentinel.Code,
		Message:   sentinel.Message,
		Category:  sentinel.Category,
		Severity:  sentinel.Severity,
		Cause:     cause,
		Retryable: sentinel.Retryable,
	}
}
