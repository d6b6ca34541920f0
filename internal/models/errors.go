package models

import "errors"

// Domain errors surfaced by services. Handlers map these onto HTTP status
// codes; everything else is treated as an infrastructure failure.
var (
	// ErrNotFound covers both genuinely missing rows and rows owned by a
	// different user, so existence is never leaked across accounts.
	ErrNotFound = errors.New("not found")

	ErrInvalidQuantity = errors.New("quantity must be positive")

	ErrAlreadyConsumed = errors.New("item already consumed")

	ErrBarcodeExists = errors.New("barcode already exists for another product")

	// ErrUpstreamUnavailable marks an external catalog or generative model
	// failure. The resolution engine converts it into a skipped tier and
	// never lets it escape a Resolve call.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
