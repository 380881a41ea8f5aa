// Package errs provides standardized error types for the order lifecycle service.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError: For when a required value is missing
//   - ValueIsInvalidError: For when a value is invalid
//   - ObjectNotFoundError: For when an object cannot be found
//   - InvalidTransitionError: For status changes the lifecycle table does not allow
//   - OrderClosedError: For mutations attempted on an order in a terminal status
//   - CourierMismatchError: For courier actions on an order assigned to someone else
//   - RepositoryUnavailableError: For persistence failures that abort a write
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
//
// Callers classify errors with errors.Is against the sentinels; adapters map
// the sentinels onto transport status codes.
package errs
