package domain

import "errors"

// Sentinel errors surfaced by the store's mutation boundary. Network
// failures never appear here: they degrade the mutation outcome instead of
// producing an error.
var (
	// ErrInvalidInput is returned when input validation fails. No partial
	// state change occurs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserNotFound is returned when a user id resolves to nothing.
	ErrUserNotFound = errors.New("user not found")

	// ErrPlantNotFound is returned when a plant id resolves to nothing.
	ErrPlantNotFound = errors.New("plant not found")

	// ErrWorkOrderNotFound is returned when a work-order id resolves to nothing.
	ErrWorkOrderNotFound = errors.New("work order not found")

	// ErrAttachmentNotFound is returned when an attachment id resolves to nothing.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrDuplicateUsername is returned when a login is already taken
	// (case-insensitive).
	ErrDuplicateUsername = errors.New("username already in use")

	// ErrSubPlantsFixed is returned when an update tries to resize the
	// sub-plant list of an existing plant.
	ErrSubPlantsFixed = errors.New("sub-plant list is fixed at creation time")
)
