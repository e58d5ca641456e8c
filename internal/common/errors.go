// Package common defines shared constants and sentinel errors used across
// ftpchat layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Validation errors.
	ErrorInvalidArgument = errors.New("invalid argument")
)
