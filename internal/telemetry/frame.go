package telemetry

import "time"

// FrameReport describes one completed frame. Text is only filled when frame
// text retention is enabled.
type FrameReport struct {
	Input    string
	Index    int64
	Records  int
	Duration time.Duration
	Text     []string
}

// FrameObserver receives one report per completed frame, after the frame's
// records were dispatched.
type FrameObserver func(FrameReport)
