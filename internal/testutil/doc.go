// Package testutil contains helper implementations used across tests to
// exercise failure paths and observe diagnostics: an allocator that fails on
// demand and a logger that captures messages. These helpers are intentionally
// minimal and not intended for production usage.
package testutil
