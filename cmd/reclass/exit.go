package main

import (
	"errors"

	"github.com/opmodel/reclass/internal/rerrors"
)

// Exit codes, grounded on the teacher's internal/cmd/exit.go pattern of
// one code per sentinel error family.
const (
	exitSuccess           = 0
	exitGeneralError      = 1
	exitClassNotFound     = 2
	exitCycle             = 3
	exitReferenceMissing  = 4
	exitConstantViolation = 5
	exitConfigError       = 6
	exitIOError           = 7
)

// exitCodeFromError maps a resolver error to a process exit code by its
// rerrors sentinel, falling back to exitGeneralError for anything else.
func exitCodeFromError(err error) int {
	if err == nil {
		return exitSuccess
	}
	switch {
	case errors.Is(err, rerrors.ErrClassNotFound):
		return exitClassNotFound
	case errors.Is(err, rerrors.ErrClassCycle), errors.Is(err, rerrors.ErrReferenceCycle):
		return exitCycle
	case errors.Is(err, rerrors.ErrReferenceMissing):
		return exitReferenceMissing
	case errors.Is(err, rerrors.ErrConstantViolation):
		return exitConstantViolation
	case errors.Is(err, rerrors.ErrConfigError), errors.Is(err, rerrors.ErrInvalidPattern):
		return exitConfigError
	case errors.Is(err, rerrors.ErrIOError):
		return exitIOError
	default:
		return exitGeneralError
	}
}
