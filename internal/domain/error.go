package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrOperationFailed    = errors.New("database operation failed")

	// Registration keys
	ErrKeyDeactivated  = errors.New("registration key deactivated")
	ErrKeyAlreadyUsed  = errors.New("registration key already used")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 1000")
	ErrCodeGeneration  = errors.New("could not generate a unique key code")

	// Progression
	ErrCompletionNotEligible = errors.New("episode is not eligible for completion")
	ErrAccessDenied          = errors.New("access denied")
)
