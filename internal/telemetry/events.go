// Package telemetry defines the typed progress events the decoder pushes to
// its caller. The decoder reports at stage boundaries only; front-ends (the
// aptdec CLI today) decide how to render them.
package telemetry

import "time"

// Stage identifies one phase of the decode pipeline.
type Stage string

const (
	StageResample   Stage = "resample"
	StageDemodulate Stage = "demodulate"
	StageSync       Stage = "sync"
	StageImage      Stage = "image"
)

// Progress reports incremental completion of a decode run.
type Progress struct {
	Stage    Stage   `json:"stage"`
	Fraction float64 `json:"fraction"` // 0..1 across the whole run
	Detail   string  `json:"detail,omitempty"`
	TS       string  `json:"ts"`
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching
// the timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
