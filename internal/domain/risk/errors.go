package risk

import "errors"

var (
	// ErrNotTrained is returned when an operation requires a fitted
	// model or detector and none has been trained or loaded.
	ErrNotTrained = errors.New("model has not been trained")

	// ErrModelUnavailable is returned when no model artifact could be
	// loaded and the caller asked for model-path scoring explicitly.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrInference wraps failures during model prediction.
	ErrInference = errors.New("inference failed")

	// ErrInvalidInput wraps payload validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBatchTooLarge is returned when a batch exceeds the limit.
	ErrBatchTooLarge = errors.New("batch size exceeds limit")
)
