package service

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrJobNotFound   = errors.New("render job not found")
	// ErrNoGridKind is an input error reported synchronously to the caller.
	ErrNoGridKind = errors.New("order has no grid kind")
	// ErrDuplicateMember rejects rosters where two members share an id.
	ErrDuplicateMember = errors.New("duplicate member id")
)
