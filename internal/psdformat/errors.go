package psdformat

import "errors"

// Sentinel errors for the block reader. Callers compare with errors.Is;
// the root psddiff package wraps these into its own Error/Kind type.
var (
	ErrBadSignature   = errors.New("psdformat: bad file signature")
	ErrBadVersion     = errors.New("psdformat: bad version")
	ErrTruncatedInput = errors.New("psdformat: truncated input")
	ErrLengthOverflow = errors.New("psdformat: length overflow")
)
