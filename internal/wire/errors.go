package wire

import "errors"

var (
	ErrMalformedMessage       = errors.New("wire: malformed message")
	ErrUnknownSignatureScheme = errors.New("wire: unknown signature scheme")
)
