// Package errors provides structured error handling with machine-readable
// codes and metadata for user-facing rendering.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Permission errors
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// Eligibility errors
	CodeClassMismatch Code = "CLASS_MISMATCH"

	// Content errors
	CodeSectionWriteDenied Code = "SECTION_WRITE_DENIED"
	CodeArchetypeNotFound  Code = "ARCHETYPE_NOT_FOUND"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
