package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/simlabels/groundtruth/internal/intersect"
	"github.com/simlabels/groundtruth/internal/record"
)

func framesN(n int) []record.Frame {
	frames := make([]record.Frame, n)
	for i := range frames {
		frames[i] = record.Frame{RecordID: fmt.Sprintf("%d", i)}
	}
	return frames
}

func TestSupervisorRunProcessesEveryFrameExactlyOnce(t *testing.T) {
	frames := framesN(25)
	var generated atomic.Int64

	s := New(Config{
		Frames:             frames,
		NRayCastWorkers:    3,
		NGenerationWorkers: 2,
		RayCast: func(f record.Frame) (*intersect.Record, error) {
			return &intersect.Record{RecordID: f.RecordID}, nil
		},
		Generate: func(rec *intersect.Record) error {
			generated.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := generated.Load(); got != int64(len(frames)) {
		t.Fatalf("generated %d records, want %d", got, len(frames))
	}
	if got := s.NComplete(); got != int64(len(frames)) {
		t.Fatalf("NComplete() = %d, want %d", got, len(frames))
	}
}

func TestSupervisorRunPropagatesRayCastError(t *testing.T) {
	frames := framesN(5)
	s := New(Config{
		Frames:             frames,
		NRayCastWorkers:    1,
		NGenerationWorkers: 1,
		RayCast: func(f record.Frame) (*intersect.Record, error) {
			if f.RecordID == "2" {
				return nil, fmt.Errorf("boom")
			}
			return &intersect.Record{RecordID: f.RecordID}, nil
		},
		Generate: func(rec *intersect.Record) error { return nil },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Run(ctx); err == nil {
		t.Fatal("expected an error from the failing ray-cast worker")
	}
}

func TestSupervisorWatchdogCancelsOnStalledWorker(t *testing.T) {
	frames := framesN(2)
	block := make(chan struct{})
	s := New(Config{
		Frames:             frames,
		NRayCastWorkers:    1,
		NGenerationWorkers: 1,
		WatchdogTimeout:    40 * time.Millisecond,
		RayCast: func(f record.Frame) (*intersect.Record, error) {
			<-block
			return &intersect.Record{RecordID: f.RecordID}, nil
		},
		Generate: func(rec *intersect.Record) error { return nil },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.Run(ctx)
	close(block)
	if err == nil {
		t.Fatal("expected the watchdog to report a stalled worker")
	}
}
