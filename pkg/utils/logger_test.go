package utils

import "testing"

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(false)
	if err != nil {
		t.Fatal(err)
	}
	if logger == nil {
		t.Fatal("logger should not be nil")
	}
	_ = logger.Sync()

	debugLogger, err := NewLogger(true)
	if err != nil {
		t.Fatal(err)
	}
	if !debugLogger.Core().Enabled(-1) { // zap.DebugLevel
		t.Error("debug logger should enable debug level")
	}
}
