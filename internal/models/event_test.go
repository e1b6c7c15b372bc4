package models

import (
	"testing"
	"time"
)

func TestEventMeanScan(t *testing.T) {
	var e Event
	if e.MeanScanMillis() != 0 || e.MeanScanDuration() != 0 {
		t.Fatalf("expected zero mean before the first timed scan")
	}

	e.ScanTotalMs = 2501
	e.ScanCount = 2
	if got := e.MeanScanMillis(); got != 1250.5 {
		t.Errorf("expected 1250.5ms, got %v", got)
	}
	if got := e.MeanScanDuration(); got != 1250*time.Millisecond {
		t.Errorf("expected 1.25s, got %v", got)
	}
}
