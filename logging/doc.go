// Package logging provides a minimal logging interface and adapters for
// treestore.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) the data store uses for informational diagnostics. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.Config{Level: logging.LogLevelInfo})
//	ds := treestore.New(func(o *treestore.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal: failures are reported
// as typed return values, never through the logger alone.
package logging
