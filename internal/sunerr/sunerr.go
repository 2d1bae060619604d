// Package sunerr defines the stable, tagged error vocabulary shared across
// the inventory core. Every fallible operation in blobstore, catalog, txn,
// inventory, and runtime surfaces one of these kinds so that callers across
// process and language boundaries can match on a stable textual identifier
// instead of parsing messages.
package sunerr

import "fmt"

// Kind is a stable textual error identifier.
type Kind string

const (
	KindIO                   Kind = "error-io"
	KindClosing              Kind = "error-closing"
	KindDB                   Kind = "error-db"
	KindHashMismatch         Kind = "error-hash-mismatch"
	KindPackageMissingBlobs  Kind = "error-package-missing-blobs"
	KindPackageDuplicate     Kind = "error-package-duplicate"
	KindBlobReferenced       Kind = "error-blob-referenced"
	KindPathNonexistent      Kind = "error-path-nonexistent"
	KindPeerMissing          Kind = "error-peer-missing"
	KindPeerImportMissing    Kind = "error-peer-import-missing"
	KindPeerMisconfigured    Kind = "error-peer-misconfigured"
	KindInvalidState         Kind = "error-invalid-state"

	// KindInvalidArgument is not part of the core's stable wire vocabulary;
	// it tags syntax failures in the identity value constructors, which are
	// local input validation rather than an operation result.
	KindInvalidArgument Kind = "error-invalid-argument"
)

// Error is a tagged error value: a stable Kind, a human message, an
// optional wrapped cause, and optional structured Extra detail (e.g. the
// list of missing blob hashes for KindPackageMissingBlobs).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Extra   []string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target shares this error's Kind, so callers can write
// errors.Is(err, sunerr.New(sunerr.KindPathNonexistent, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithExtra attaches structured string detail (e.g. missing blob hashes) and
// returns the same *Error for chaining at the call site.
func (e *Error) WithExtra(extra ...string) *Error {
	e.Extra = append(e.Extra, extra...)
	return e
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if asError(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// asError walks err's Unwrap chain looking for a *Error, mirroring
// errors.As without importing it twice in call sites that already import
// errors under a different alias.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
