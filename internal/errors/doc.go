// Package errors provides the classified error type used across campus.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying a
// category, a severity and structured context. Generation distinguishes fatal
// conditions (scope violations, link cycles) from recoverable ones (missing
// content, broken links, failed copies) purely by category, so callers never
// need to parse messages.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryScope, "path outside source root").
//		WithContext("path", p).
//		WithContext("root", src).
//		Build()
package errors
