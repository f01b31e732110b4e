package models

import "errors"

var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional write finds the row in an
// unexpected state.
var ErrConflict = errors.New("conflict")
