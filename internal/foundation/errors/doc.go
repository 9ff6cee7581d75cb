// Package errors provides the classified error primitives used across docsite.
//
// Errors carry a category (what part of the build failed), a severity (whether
// the build can continue) and structured context that is rendered into log
// attributes. A fluent builder keeps construction uniform:
//
//	err := errors.ConfigError("missing \"pages\" property").
//		WithContext("file", cfgPath).
//		WithContext("property", "pages").
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
