package telemetry

import (
	"sync"
	"sync/atomic"
	"time"

	"jellyflow/internal/stream"
)

// Aggregator accumulates the metrics of one logical input. The pipeline
// writes it; progress readers may call Snapshot concurrently. Frame, record
// and decode time counts move together under mu; bytes are counted by the
// ingestion side and may run ahead of them.
type Aggregator struct {
	input string
	bytes atomic.Int64

	mu      sync.Mutex
	records int64
	frames  int64
	decode  time.Duration // spent inside frame pulls
	started time.Time
	done    bool
	errKind string
	errText string
}

func NewAggregator(input string) *Aggregator {
	RegisterMetrics()
	return &Aggregator{input: input, started: time.Now()}
}

func (a *Aggregator) Input() string { return a.input }

// ObserveFrame records one completed frame and the duration of its pull.
func (a *Aggregator) ObserveFrame(records int, d time.Duration) {
	if d < 0 {
		d = 0
	}
	a.mu.Lock()
	a.frames++
	a.records += int64(records)
	a.decode += d
	a.mu.Unlock()

	framesTotal.WithLabelValues(a.input).Inc()
	recordsTotal.WithLabelValues(a.input).Add(float64(records))
	frameDuration.WithLabelValues(a.input).Observe(d.Seconds())
}

// ObserveBytes records n bytes handed to the decoder.
func (a *Aggregator) ObserveBytes(n int) {
	a.bytes.Add(int64(n))
	bytesTotal.WithLabelValues(a.input).Add(float64(n))
}

// Finish marks the input done; err may be nil.
func (a *Aggregator) Finish(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return
	}
	a.done = true
	if err != nil {
		a.errKind = stream.Kind(err)
		a.errText = err.Error()
		failuresTotal.WithLabelValues(a.input, a.errKind).Inc()
	}
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Input:      a.input,
		Records:    a.records,
		Frames:     a.frames,
		DecodeTime: a.decode,
		Bytes:      a.bytes.Load(),
		Elapsed:    time.Since(a.started),
		Done:       a.done,
		ErrKind:    a.errKind,
		Err:        a.errText,
	}
}

// Snapshot is a point-in-time view of an Aggregator.
type Snapshot struct {
	Input      string
	Records    int64
	Frames     int64
	DecodeTime time.Duration
	Bytes      int64
	Elapsed    time.Duration
	Done       bool
	ErrKind    string
	Err        string
}

// Throughput reports records per second of decode time. It reports false
// when no decode time was accumulated.
func (s Snapshot) Throughput() (float64, bool) {
	if s.DecodeTime <= 0 {
		return 0, false
	}
	return float64(s.Records) / s.DecodeTime.Seconds(), true
}
