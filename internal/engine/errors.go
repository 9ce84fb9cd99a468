package engine

import "errors"

// Rejected operations. A rejection leaves the session untouched.
var (
	ErrInsufficientKarma   = errors.New("insufficient karma")
	ErrUnknownPower        = errors.New("unknown power")
	ErrWrongPhase          = errors.New("action not allowed in current phase")
	ErrWrongMode           = errors.New("action not allowed in current mode")
	ErrDescentNotRequested = errors.New("descent was not requested")
	ErrInvalidChoice       = errors.New("invalid choice")
	ErrInvalidRole         = errors.New("invalid role for era")
	ErrBusy                = errors.New("waiting for narrative")
	ErrInvalidSpeed        = errors.New("invalid time speed")
	ErrUnknownAction       = errors.New("unknown action")
)
