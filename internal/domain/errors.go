package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRuleset   = errors.New("invalid ruleset")
	ErrProviderDown     = errors.New("search provider unavailable")
	ErrInsufficientData = errors.New("insufficient data")
	ErrContextDone      = errors.New("context cancelled")
)
