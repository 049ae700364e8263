package domain

import "errors"

var (
	// ErrEmptyTitle rejects card creation with an empty or whitespace-only title.
	ErrEmptyTitle = errors.New("title must not be empty")

	// ErrNotFound indicates that no card with the given id is persisted.
	ErrNotFound = errors.New("card not found")

	// ErrInvalidMove indicates an unknown column or out-of-range index in a
	// drag-and-drop request.
	ErrInvalidMove = errors.New("invalid move")

	// ErrStaleMove indicates the board changed since the client started the
	// drag, so the slot it named no longer holds the card it expected.
	ErrStaleMove = errors.New("board changed since drag started")

	// ErrStorageDisabled is reported when the service runs without a storage
	// connection configured.
	ErrStorageDisabled = errors.New("storage is not configured")
)
