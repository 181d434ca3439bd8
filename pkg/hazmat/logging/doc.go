// Package logging provides the logger facade used across hazmat.
//
// The Logger interface wraps the context-aware subset of log/slog. The rsa
// package logs generation parameters and weak-key warnings through it; the
// ocsp package logs decode failures at debug level. Neither ever logs key
// material: use Redacted to mark where a secret would have gone.
//
//	logger := logging.New(nil) // slog.Default()
//	logger.Warn(ctx, "weak key requested", "bits", 1024, logging.Redacted("d"))
//
// NewSlog builds the *slog.Logger the command-line tool hands to New, picking
// a text or JSON handler.
package logging
