// Package errors provides classified error primitives for buildseq.
//
// A ClassifiedError carries an ErrorCategory, an ErrorSeverity and a RetryStrategy
// next to the message and cause. The CLI adapter maps categories to process exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryGit, "publish failed").
//		WithContext("branch", "gh-pages").
//		Build()
package errors
