// Package errors provides the classified error primitives used across metricstd.
//
// A ClassifiedError carries a category (config, validation, registry, scan,
// fix, ...), a severity and structured context. The CLI maps categories to
// exit codes through CLIErrorAdapter.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryValidation, "required field missing").
//		WithContext("field", "displayName").
//		Build()
package errors
