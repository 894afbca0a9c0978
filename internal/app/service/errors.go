package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied is returned when the acting user may not touch the resource.
	ErrAccessDenied = errors.New("access denied")
	// ErrSharingDisabled is returned for public share reads while sharing is off.
	ErrSharingDisabled = fmt.Errorf("%w: public sharing is disabled", ErrAccessDenied)
	// ErrInvalidInput marks caller mistakes such as a blank title or a malformed URL.
	ErrInvalidInput = errors.New("invalid input")
)
