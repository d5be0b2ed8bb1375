package admin

import "errors"

var (
	ErrEventConflict   = errors.New("event conflict")
	ErrCatalogConflict = errors.New("catalog item conflict")
	ErrInvalidFees     = errors.New("invalid fee configuration")
)
