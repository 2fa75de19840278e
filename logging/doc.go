// Package logging provides a minimal logging interface and adapters for travelmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the graph, runner and stores use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelInfo, Format: "json"})
//	r := runner.New(graph, func(o *runner.Options) { o.Logger = logger })
//
// Messages are dotted event names ("flow.route.decided") followed by snake_case
// key/value attributes ("thread_id", "agent", "duration_ms").
package logging
