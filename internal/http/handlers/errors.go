// Package handlers defines HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case and stable: clients branch on
// them programmatically while the accompanying message stays human-readable.
//
// The taxonomy distinguishes validation errors (malformed id, bad payload)
// from not-found errors (well-formed id, no such row); both are client
// errors and never map to a 5xx.
package handlers

const (
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
