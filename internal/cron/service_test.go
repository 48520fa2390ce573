package cron

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kasirpos/kasir-terminal/internal/cart"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
	"github.com/kasirpos/kasir-terminal/pkg/metrics"
)

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type recordedJob struct {
	job, outcome string
}

type stubRecorder struct {
	mu   sync.Mutex
	runs []recordedJob
}

func (r *stubRecorder) ObserveJob(job, outcome string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, recordedJob{job, outcome})
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	recorder := &stubRecorder{}
	service, err := NewService(ServiceParams{
		Logger:  testLogger(),
		Jobs:    []Job{failure, nil, success},
		Metrics: recorder,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	service.runCycle(context.Background())

	if failure.runs != 1 || success.runs != 1 {
		t.Fatalf("expected each job to run once, got fail=%d success=%d", failure.runs, success.runs)
	}
	want := []recordedJob{{"fail", metrics.OutcomeFailure}, {"success", metrics.OutcomeSuccess}}
	if len(recorder.runs) != len(want) {
		t.Fatalf("expected %d recorded runs, got %v", len(want), recorder.runs)
	}
	for i := range want {
		if recorder.runs[i] != want[i] {
			t.Fatalf("run %d: expected %v, got %v", i, want[i], recorder.runs[i])
		}
	}
}

func TestNewServiceRequiresJobs(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected error without jobs")
	}
	if _, err := NewService(ServiceParams{Jobs: []Job{&testJob{name: "a"}}}); err == nil {
		t.Fatalf("expected error without logger")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "tick"}
	service, err := NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{job}, Interval: time.Hour})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs before the first tick, got %d", job.runs)
	}
}

func TestCartSweepJobEvictsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := cart.NewMemoryStore(time.Nanosecond)
	if err := store.Save(ctx, "cashier-1", cart.NewLedger()); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(time.Millisecond)

	job, err := NewCartSweepJob(store, testLogger())
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != cartSweepJobName {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	evicted, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if evicted != 0 {
		t.Fatalf("expected job to have evicted the session already, %d left", evicted)
	}
}
