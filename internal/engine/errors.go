package engine

import "errors"

// Reason strings are stable API: callers branch on them programmatically.
var (
	// Configuration
	ErrInvalidRegistry      = errors.New("registry reports no grant data")
	ErrInvalidDonationToken = errors.New("donation token reports zero total supply")

	// Validation
	ErrUnknownGrant        = errors.New("grant does not exist in registry")
	ErrRoundTokenMismatch  = errors.New("round's donation token does not match engine's donation token")
	ErrRoundInactive       = errors.New("round is not active")
	ErrDuplicateInputToken = errors.New("swap parameter has duplicate input tokens")
	ErrRatioSum            = errors.New("ratios do not sum to 100%")
	ErrNativeValueMismatch = errors.New("native value does not match native swap input")

	// Execution
	ErrDeadlineExpired = errors.New("deadline has passed")
	ErrSlippage        = errors.New("realized output is below the specified minimum")

	// Distribution
	ErrZeroDonation      = errors.New("donation amount must be greater than zero")
	ErrMissingSwapOutput = errors.New("no swap output recorded for donation token")
)
