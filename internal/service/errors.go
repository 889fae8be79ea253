package service

import "errors"

var (
	ErrMissingMovieID   = errors.New("movieId is required")
	ErrMissingRequestID = errors.New("requestId is required")
	ErrMissingTheaterID = errors.New("theaterId is required")
	ErrNoSeatsSelected  = errors.New("at least one seat must be selected")
	ErrTooManySeats     = errors.New("too many seats requested")
	ErrInvalidSeatID    = errors.New("invalid seat id")
	ErrInvalidToken     = errors.New("invalid admission token")
)
