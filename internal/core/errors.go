package core

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDateRange   = errors.New("start date after end date")
	ErrInvalidType        = errors.New("invalid type: must be income or expense")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidPeriod      = errors.New("invalid period: must be monthly or yearly")
	ErrMissingField       = errors.New("missing required field")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrRegistrationClosed = errors.New("registration is closed, ask an admin to create your account")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
)
