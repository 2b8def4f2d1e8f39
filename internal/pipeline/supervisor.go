// Package pipeline runs the two-stage ray-cast / generate worker pool
// described in spec.md §4.4-§4.5, mapped onto goroutines and channels
// per the re-architecture guidance in spec.md §9: each worker is a
// goroutine rather than a separate OS process, synchronised through
// two bounded channels standing in for the bounded FIFO queues plus a
// handful of atomics.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/simlabels/groundtruth/internal/intersect"
	"github.com/simlabels/groundtruth/internal/record"
	"github.com/simlabels/groundtruth/internal/timeutil"
)

// RayCastFunc casts one record's rays, grounded on internal/raycast.
type RayCastFunc func(record.Frame) (*intersect.Record, error)

// GenerateFunc runs every enabled generator against one intersection
// record.
type GenerateFunc func(*intersect.Record) error

// Heartbeat is called by every worker on each unit of work, so the
// supervisor's watchdog can detect a stalled worker. It is an optional
// extra observer: the watchdog keeps its own record of heartbeats and is
// switched on by Config.WatchdogTimeout whether or not a Heartbeat is set.
type Heartbeat func(workerKind string, workerIndex int)

// Config configures a Supervisor run.
type Config struct {
	Frames              []record.Frame
	NRayCastWorkers     int
	NGenerationWorkers  int
	QueueDepth          int // bounded queue capacity; defaults to NRayCastWorkers*2 if <= 0
	RayCast             RayCastFunc
	Generate            GenerateFunc
	Heartbeat           Heartbeat
	WatchdogTimeout     time.Duration // 0 disables the watchdog
	Logger              *log.Logger
	Clock               timeutil.Clock // defaults to timeutil.RealClock{}; a MockClock may be substituted
}

// Supervisor drives the ray-cast and generation worker pools for one
// run, following spec.md §4.4's "await ready / drive progress / drain"
// lifecycle. Worker lifecycle (start, signal-ready, stop, done) is
// grounded on the mutex-guarded running/stopCh/doneCh pattern used
// throughout the teacher's background worker types.
type Supervisor struct {
	cfg Config

	frameQueue  chan record.Frame
	recordQueue chan *intersect.Record

	nComplete        atomic.Int64
	isRayCastingDone atomic.Bool

	rayReady, rayDone []*atomic.Bool
	genReady, genDone []*atomic.Bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	lastHeartbeat sync.Map // key "kind:index" -> time.Time
}

// New builds a Supervisor. Call Run to execute it.
func New(cfg Config) *Supervisor {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = cfg.NRayCastWorkers * 2
		if cfg.QueueDepth <= 0 {
			cfg.QueueDepth = 1
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	s := &Supervisor{
		cfg:         cfg,
		frameQueue:  make(chan record.Frame, cfg.QueueDepth),
		recordQueue: make(chan *intersect.Record, cfg.QueueDepth),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for i := 0; i < cfg.NRayCastWorkers; i++ {
		s.rayReady = append(s.rayReady, new(atomic.Bool))
		s.rayDone = append(s.rayDone, new(atomic.Bool))
	}
	for i := 0; i < cfg.NGenerationWorkers; i++ {
		s.genReady = append(s.genReady, new(atomic.Bool))
		s.genDone = append(s.genDone, new(atomic.Bool))
	}
	return s
}

// NComplete returns the number of records the generation stage has
// finished, for the record-count-preserving invariant in spec.md §8.
func (s *Supervisor) NComplete() int64 { return s.nComplete.Load() }

// Run starts every worker, feeds frameQueue, waits for every worker to
// signal readiness, then blocks until every record has been generated
// or ctx is cancelled. It returns an error if the watchdog detects a
// stalled worker.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("pipeline: supervisor already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.doneCh)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg, rayWg sync.WaitGroup
	errCh := make(chan error, s.cfg.NRayCastWorkers+s.cfg.NGenerationWorkers)

	for i := 0; i < s.cfg.NRayCastWorkers; i++ {
		wg.Add(1)
		rayWg.Add(1)
		go s.runRayCastWorker(ctx, i, &wg, &rayWg, errCh)
	}
	for i := 0; i < s.cfg.NGenerationWorkers; i++ {
		wg.Add(1)
		go s.runGenerationWorker(ctx, i, &wg, errCh)
	}

	s.awaitReady(ctx)

	go func() {
		defer close(s.frameQueue)
		for _, f := range s.cfg.Frames {
			select {
			case s.frameQueue <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Per spec.md §4.4 step 5: is_ray_casting_done flips once every
	// ray-cast worker has drained and returned, independently of the
	// generation workers, which themselves poll this flag to know when
	// to stop draining recordQueue.
	go func() {
		rayWg.Wait()
		s.isRayCastingDone.Store(true)
	}()

	// Progress display: log the completed-record count on a coarse
	// interval until the run ends.
	go func() {
		ticker := s.cfg.Clock.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				s.cfg.Logger.Printf("pipeline: %d/%d records complete", s.nComplete.Load(), len(s.cfg.Frames))
			}
		}
	}()

	var watchdogErr error
	if s.cfg.WatchdogTimeout > 0 {
		watchdogDone := make(chan struct{})
		defer close(watchdogDone)
		go s.runWatchdog(ctx, cancel, watchdogDone, &watchdogErr)
	}

	// A stalled worker may never return, so wait for the workers or for
	// the watchdog to fire, whichever comes first.
	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()
	select {
	case <-allDone:
	case <-ctx.Done():
		if watchdogErr != nil {
			return watchdogErr
		}
		<-allDone
	}
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	if watchdogErr != nil {
		return watchdogErr
	}
	return ctx.Err()
}

// Stop requests an in-progress run to halt and waits for it to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.mu.Unlock()
	<-s.doneCh
}

func (s *Supervisor) awaitReady(ctx context.Context) {
	ticker := s.cfg.Clock.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if allTrue(s.rayReady) && allTrue(s.genReady) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

func allTrue(flags []*atomic.Bool) bool {
	for _, f := range flags {
		if !f.Load() {
			return false
		}
	}
	return true
}

func (s *Supervisor) runRayCastWorker(ctx context.Context, idx int, wg, rayWg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer rayWg.Done()
	defer s.rayDone[idx].Store(true)
	defer s.lastHeartbeat.Delete(fmt.Sprintf("raycast:%d", idx))
	s.rayReady[idx].Store(true)
	s.heartbeat("raycast", idx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case frame, ok := <-s.frameQueue:
			if !ok {
				return
			}
			rec, err := s.cfg.RayCast(frame)
			if err != nil {
				errCh <- fmt.Errorf("ray-cast worker %d: record %s: %w", idx, frame.RecordID, err)
				return
			}
			s.heartbeat("raycast", idx)
			select {
			case s.recordQueue <- rec:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Supervisor) runGenerationWorker(ctx context.Context, idx int, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer s.genDone[idx].Store(true)
	defer s.lastHeartbeat.Delete(fmt.Sprintf("generate:%d", idx))
	s.genReady[idx].Store(true)
	s.heartbeat("generate", idx)

	timeout := 50 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case rec, ok := <-s.recordQueue:
			if !ok {
				return
			}
			if err := s.cfg.Generate(rec); err != nil {
				errCh <- fmt.Errorf("generation worker %d: record %s: %w", idx, rec.RecordID, err)
				return
			}
			s.nComplete.Add(1)
			s.heartbeat("generate", idx)
		case <-s.cfg.Clock.After(timeout):
			if s.isRayCastingDone.Load() && len(s.recordQueue) == 0 {
				return
			}
		}
	}
}

func (s *Supervisor) heartbeat(kind string, idx int) {
	s.lastHeartbeat.Store(fmt.Sprintf("%s:%d", kind, idx), s.cfg.Clock.Now())
	if s.cfg.Heartbeat != nil {
		s.cfg.Heartbeat(kind, idx)
	}
}

// runWatchdog polls heartbeats and cancels the run if one goes stale
// while work remains, implementing the §9 open item: a dead worker
// must propagate failure instead of letting the supervisor hang.
func (s *Supervisor) runWatchdog(ctx context.Context, cancel context.CancelFunc, done <-chan struct{}, outErr *error) {
	ticker := s.cfg.Clock.NewTicker(s.cfg.WatchdogTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C():
			now := s.cfg.Clock.Now()
			s.lastHeartbeat.Range(func(key, value any) bool {
				last := value.(time.Time)
				if now.Sub(last) > s.cfg.WatchdogTimeout {
					*outErr = fmt.Errorf("pipeline: watchdog: worker %v stalled for %v", key, now.Sub(last))
					cancel()
					return false
				}
				return true
			})
		}
	}
}
