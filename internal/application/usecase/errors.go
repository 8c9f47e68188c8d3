// internal/application/usecase/errors.go
package usecase

import "errors"

var (
	ErrInvalidArgument  = errors.New("usecase: invalid argument")
	ErrNotConfigured    = errors.New("usecase: not configured")
	ErrOrderAlreadyPaid = errors.New("usecase: order already paid")
	ErrProviderFailed   = errors.New("usecase: payment provider failed")
	ErrRatesUnavailable = errors.New("usecase: crypto rates unavailable")
)
