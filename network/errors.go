package network

import "errors"

// ErrInvalidInput is returned when an input spike matrix has non-uniform
// row lengths, or when a loaded topology fails a fan-in/fan-out invariant.
var ErrInvalidInput = errors.New("network: invalid input")

// ErrSerialization wraps failures decoding/encoding network or matrix JSON.
var ErrSerialization = errors.New("network: serialization error")
