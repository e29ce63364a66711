// Package telemetry provides population tracking, bookmarking and CSV output.
package telemetry

// EventRecord is one narration line as written to events.csv.
type EventRecord struct {
	Tick int64  `csv:"tick"`
	Tone string `csv:"tone"`
	Text string `csv:"text"`
}
