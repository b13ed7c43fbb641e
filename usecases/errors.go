package usecases

import (
	"errors"

	"siar-server/entities"
	"siar-server/repositories"
)

var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrReadingNotFound    = errors.New("no readings yet")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrValidation         = errors.New("validation failed")
	ErrAutoModeBlocked    = errors.New("automatic mode cannot be enabled now")
	ErrProfileInUse       = errors.New("profile is in use")

	// ErrInvalidTransition is the state machine's rejection of an edge.
	ErrInvalidTransition = entities.ErrInvalidTransition
)

// orNotFound swaps the repository miss for the domain error nf.
func orNotFound(err, nf error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return nf
	}
	return err
}
