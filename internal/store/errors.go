package store

import "errors"

var (
	ErrBadRequest = errors.New("store: invalid input")
	ErrNotFound   = errors.New("store: not found")
	ErrConflict   = errors.New("store: already exists")
	ErrAmbiguous  = errors.New("store: filter matches more than one row")
)
