package logging

import "log/slog"

// WithTable creates a logger with table context.
// Use this for catalog and table operations.
func WithTable(tableName string) *slog.Logger {
	return GetLogger().With("table", tableName)
}

// WithFile creates a logger with file context.
// Use this for page file and WAL I/O.
func WithFile(path string) *slog.Logger {
	return GetLogger().With("file", path)
}
