package spend_core

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrApproverNotFound  = errors.New("no approver found")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrValidation        = errors.New("invalid payload")
)
