package transaction

import "errors"

var (
	ErrMissingID      = errors.New("transaction id is required")
	ErrMissingUserID  = errors.New("user id is required")
	ErrNegativeAmount = errors.New("amount cannot be negative")
)
