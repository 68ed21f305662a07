package testutil

import (
	"io"
	"log/slog"
	"os"

	"3tcapital/ms_emision_dian/internal/infrastructure/logger"
)

const testAppName = "ms-emision-dian-test"

// NewTestLogger logs at debug through the service's own handler chain, so
// correlation ids show up in test output.
func NewTestLogger() *slog.Logger {
	return logger.NewWithWriter(os.Stderr, testAppName, "debug", "test")
}

// NewNullLogger discards everything.
func NewNullLogger() *slog.Logger {
	return logger.NewWithWriter(io.Discard, testAppName, "error", "test")
}
