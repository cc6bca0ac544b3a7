package psddiff

import (
	"errors"
	"fmt"

	"github.com/deepteams/psddiff/internal/decompose"
	"github.com/deepteams/psddiff/internal/diffcodec"
	"github.com/deepteams/psddiff/internal/diffengine"
	"github.com/deepteams/psddiff/internal/psdformat"
)

// Kind categorizes an Error, mirroring the error-kind taxonomy every
// caller of this package is expected to switch on.
type Kind byte

const (
	KindUnknown Kind = iota
	KindBadSignature
	KindBadVersion
	KindTruncatedInput
	KindLengthOverflow
	KindUnknownAction
	KindDiffMagicMismatch
	KindDiffVersionMismatch
	KindUnappliedTail
	KindOverApplied
	KindMissingChunk
	KindManifestMalformed
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindBadSignature:
		return "BadSignature"
	case KindBadVersion:
		return "BadVersion"
	case KindTruncatedInput:
		return "TruncatedInput"
	case KindLengthOverflow:
		return "LengthOverflow"
	case KindUnknownAction:
		return "UnknownAction"
	case KindDiffMagicMismatch:
		return "DiffMagicMismatch"
	case KindDiffVersionMismatch:
		return "DiffVersionMismatch"
	case KindUnappliedTail:
		return "UnappliedTail"
	case KindOverApplied:
		return "OverApplied"
	case KindMissingChunk:
		return "MissingChunk"
	case KindManifestMalformed:
		return "ManifestMalformed"
	case KindIO:
		return "Io"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned across this package's public
// surface. Kind lets callers branch without string matching; Hash is
// populated only for KindMissingChunk; Err is always the underlying
// cause and is reachable through errors.Unwrap/errors.As.
type Error struct {
	Kind Kind
	Hash string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindMissingChunk {
		return fmt.Sprintf("psddiff: %s(%s)", e.Kind, e.Hash)
	}
	if e.Err != nil {
		return fmt.Sprintf("psddiff: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("psddiff: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinel errors for caller misuse of the public API's list-valued
// parameters, independent of any file's contents.
var (
	ErrApplyNeedsDiff           = errors.New("psddiff: apply requires at least one diff")
	ErrCombineNeedsTwoDiffs     = errors.New("psddiff: combine requires at least two diffs")
	ErrRestoreNeedsSingleWriter = errors.New("psddiff: restoring to a single writer requires exactly one manifest")
)

// Sentinel errors matching each file-content-dependent Kind, so callers can
// use errors.Is(err, psddiff.ErrBadSignature) instead of comparing Kind
// fields. wrapErr wraps the internal sentinel these are paired with,
// so both remain reachable through errors.Is on the returned *Error.
var (
	ErrBadSignature        = errors.New("psddiff: bad signature")
	ErrBadVersion          = errors.New("psddiff: bad version")
	ErrTruncatedInput      = errors.New("psddiff: truncated input")
	ErrLengthOverflow      = errors.New("psddiff: length overflow")
	ErrUnknownAction       = errors.New("psddiff: unknown diff action")
	ErrDiffMagicMismatch   = errors.New("psddiff: diff magic mismatch")
	ErrDiffVersionMismatch = errors.New("psddiff: diff version mismatch")
	ErrUnappliedTail       = errors.New("psddiff: unapplied tail")
	ErrOverApplied         = errors.New("psddiff: over applied")
	ErrManifestMalformed   = errors.New("psddiff: malformed manifest")
)

// wrapErr classifies a sub-package sentinel (or generic I/O error) into
// this package's unified Error, preserving it under Unwrap so
// errors.Is/errors.As against either the root-level sentinel above or the
// original internal sentinel still works.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}

	var missing decompose.ErrMissingChunk
	if errors.As(err, &missing) {
		return &Error{Kind: KindMissingChunk, Hash: missing.Hash, Err: err}
	}

	switch {
	case errors.Is(err, psdformat.ErrBadSignature):
		return &Error{Kind: KindBadSignature, Err: fmt.Errorf("%w: %w", ErrBadSignature, err)}
	case errors.Is(err, psdformat.ErrBadVersion):
		return &Error{Kind: KindBadVersion, Err: fmt.Errorf("%w: %w", ErrBadVersion, err)}
	case errors.Is(err, psdformat.ErrTruncatedInput):
		return &Error{Kind: KindTruncatedInput, Err: fmt.Errorf("%w: %w", ErrTruncatedInput, err)}
	case errors.Is(err, psdformat.ErrLengthOverflow):
		return &Error{Kind: KindLengthOverflow, Err: fmt.Errorf("%w: %w", ErrLengthOverflow, err)}
	case errors.Is(err, diffcodec.ErrUnknownAction):
		return &Error{Kind: KindUnknownAction, Err: fmt.Errorf("%w: %w", ErrUnknownAction, err)}
	case errors.Is(err, diffcodec.ErrMagicMismatch):
		return &Error{Kind: KindDiffMagicMismatch, Err: fmt.Errorf("%w: %w", ErrDiffMagicMismatch, err)}
	case errors.Is(err, diffcodec.ErrVersionMismatch):
		return &Error{Kind: KindDiffVersionMismatch, Err: fmt.Errorf("%w: %w", ErrDiffVersionMismatch, err)}
	case errors.Is(err, diffcodec.ErrTruncated):
		return &Error{Kind: KindTruncatedInput, Err: fmt.Errorf("%w: %w", ErrTruncatedInput, err)}
	case errors.Is(err, diffengine.ErrUnappliedTail):
		return &Error{Kind: KindUnappliedTail, Err: fmt.Errorf("%w: %w", ErrUnappliedTail, err)}
	case errors.Is(err, diffengine.ErrOverApplied):
		return &Error{Kind: KindOverApplied, Err: fmt.Errorf("%w: %w", ErrOverApplied, err)}
	case errors.Is(err, decompose.ErrManifestMalformed):
		return &Error{Kind: KindManifestMalformed, Err: fmt.Errorf("%w: %w", ErrManifestMalformed, err)}
	default:
		return &Error{Kind: KindIO, Err: err}
	}
}
