package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"jellyflow/internal/stream"
)

func TestAggregator_Accumulates(t *testing.T) {
	a := NewAggregator("agg-accumulates")
	a.ObserveFrame(3, 2*time.Millisecond)
	a.ObserveFrame(0, 0)
	a.ObserveFrame(5, 6*time.Millisecond)
	a.ObserveBytes(120)

	s := a.Snapshot()
	if s.Frames != 3 || s.Records != 8 || s.DecodeTime != 8*time.Millisecond || s.Bytes != 120 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	tp, ok := s.Throughput()
	if !ok || tp != 1000 {
		t.Fatalf("want 1000 records/s, got %v %v", tp, ok)
	}
	if got := testutil.ToFloat64(recordsTotal.WithLabelValues("agg-accumulates")); got != 8 {
		t.Fatalf("prometheus records want 8, got %v", got)
	}
	if got := testutil.ToFloat64(framesTotal.WithLabelValues("agg-accumulates")); got != 3 {
		t.Fatalf("prometheus frames want 3, got %v", got)
	}
}

func TestSnapshot_ZeroDecodeTimeHasNoThroughput(t *testing.T) {
	a := NewAggregator("agg-zero")
	a.ObserveFrame(4, 0)
	if tp, ok := a.Snapshot().Throughput(); ok || tp != 0 {
		t.Fatalf("want undefined throughput, got %v %v", tp, ok)
	}
}

func TestAggregator_FinishOnce(t *testing.T) {
	a := NewAggregator("agg-finish")
	a.ObserveFrame(1, time.Millisecond)
	a.Finish(&stream.DecodeError{Offset: 40, Err: errors.New("bad")})
	a.Finish(nil)

	s := a.Snapshot()
	if !s.Done || s.ErrKind != "decode" || s.Frames != 1 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if got := testutil.ToFloat64(failuresTotal.WithLabelValues("agg-finish", "decode")); got != 1 {
		t.Fatalf("want one failure counted, got %v", got)
	}
}

func TestBoard_ConcurrentReaders(t *testing.T) {
	b := NewBoard()
	a := b.Track("board-a")
	b.Track("board-b")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			a.ObserveFrame(1, time.Microsecond)
		}
	}()
	for i := 0; i < 100; i++ {
		_ = b.Snapshots()
	}
	wg.Wait()

	snaps := b.Snapshots()
	if len(snaps) != 2 || snaps[0].Input != "board-a" || snaps[0].Records != 1000 {
		t.Fatalf("unexpected snapshots %+v", snaps)
	}
}

func TestSnapshot_FrameCountsMoveTogether(t *testing.T) {
	a := NewAggregator("agg-consistent")
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				a.ObserveFrame(3, time.Microsecond)
			}
		}
	}()
	for i := 0; i < 500; i++ {
		s := a.Snapshot()
		if s.Records != 3*s.Frames || s.DecodeTime != time.Duration(s.Frames)*time.Microsecond {
			close(stop)
			wg.Wait()
			t.Fatalf("torn snapshot %+v", s)
		}
	}
	close(stop)
	wg.Wait()
}
