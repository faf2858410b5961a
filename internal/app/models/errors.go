package models

import "errors"

// Domain sentinel errors. Services fail fast with these before mutating
// anything; handlers narrow with errors.Is and map them to HTTP statuses.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidState    = errors.New("unrecognized external data")
)
