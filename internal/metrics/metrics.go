package metrics

import "time"

// RunRecord summarises one completed policy run.
type RunRecord struct {
	Policy              string
	Periods             int
	DataQualityWarnings int
	ClippedPeriods      int
	Duration            time.Duration
}

// Sink receives simulation metrics. Implementations must be safe for
// concurrent use; batch runs report from several goroutines.
type Sink interface {
	RecordRun(r RunRecord)
	RecordFailure(policy string)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord)   {}
func (NopSink) RecordFailure(string) {}
