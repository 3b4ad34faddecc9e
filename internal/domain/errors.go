package domain

import "errors"

var (
	// ErrInvalidQuery marks a keyword/location pair or URL that cannot name a namespace.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrStorageUnavailable wraps failures opening or writing a store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNamespaceNotFound is returned when reading a namespace that was never provisioned.
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrUnknownSource is returned for provider names outside Sources().
	ErrUnknownSource = errors.New("unknown source")
)
