// Package shared holds helpers used across the probecli packages that do not
// belong to any single layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - CaptureHandler, a slog.Handler that records entries for assertions
//   - legacy and extended probe result fixtures (LegacyFile, ExtendedFile)
//   - SourceFile builders for aggregator and handler tests
//
// Packages must not import testutil outside of _test.go files.
package shared
