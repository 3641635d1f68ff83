package pak

import "errors"

// Decode and encode errors. Callers decide how to degrade — the
// original source silently collapsed every decode failure into an
// empty archive (spec §9); this codec preserves the distinction so the
// driver can choose.
var (
	// ErrMalformedHeader means the first 8 plain-text bytes didn't match magic.
	ErrMalformedHeader = errors.New("pak: malformed header")
	// ErrMalformedFlag means a record/end flag byte was neither entryFlag nor endFlag.
	ErrMalformedFlag = errors.New("pak: malformed flag")
	// ErrTruncated means the input ended before a length-prefixed field was fully read.
	ErrTruncated = errors.New("pak: truncated input")
	// ErrNameEmpty means a record name has zero length.
	ErrNameEmpty = errors.New("pak: name is empty")
	// ErrNameTooLong means a record name exceeds 255 bytes.
	ErrNameTooLong = errors.New("pak: name exceeds 255 bytes")
	// ErrPayloadTooLarge means a record's data exceeds 2^32-1 bytes.
	ErrPayloadTooLarge = errors.New("pak: payload exceeds 2^32-1 bytes")
)
