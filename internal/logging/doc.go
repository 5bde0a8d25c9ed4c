// Package logging provides the leveled logger used across the playlist
// widget service.
//
// Levels, lowest first:
//   - DEBUG: per-message routing and state machine tracing
//   - INFO: lifecycle events (layouts created, feeds fetched)
//   - WARN: degraded conditions (stale cache served, feed failures)
//   - ERROR: failures that need operator attention
//   - FATAL: startup errors that terminate the process
//
// The level is read once from DEBUG or LOG_LEVEL. Tests may override it
// with SetLevel.
package logging
