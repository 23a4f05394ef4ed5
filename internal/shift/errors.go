package shift

import "errors"

var (
	ErrShiftNotFound    = errors.New("shift not found")
	ErrNoPassenger      = errors.New("no passenger in the car")
	ErrRideInProgress   = errors.New("a ride is already in progress")
	ErrNoPassengersLeft = errors.New("no passengers available")
	ErrStaleAnalysis    = errors.New("analysis does not belong to the current passenger")
	ErrShiftOver        = errors.New("shift is over")
	ErrUnknownGuideline = errors.New("guideline is not active this shift")
	ErrAlreadyDecided   = errors.New("guideline already decided for this analysis")
	ErrInvalidInput     = errors.New("invalid input")
)
