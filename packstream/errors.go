package packstream

import "errors"

// Decoding errors, please read @spec section 4.1 Decoding contract.
var (
	// ErrMalformedMarker is returned when the leading marker byte does not
	// match any known form.
	ErrMalformedMarker = errors.New("packstream: malformed marker")
	// ErrTruncatedInput is returned when the buffer ends before a value
	// that the marker promised is fully read.
	ErrTruncatedInput = errors.New("packstream: truncated input")
	// ErrUnexpectedTag is returned when a struct's tag byte does not match
	// the signature the caller expected.
	ErrUnexpectedTag = errors.New("packstream: unexpected struct tag")
	// ErrSizeOverflow is returned when a declared container size is larger
	// than the bytes remaining in the buffer.
	ErrSizeOverflow = errors.New("packstream: declared size overflows buffer")
)
