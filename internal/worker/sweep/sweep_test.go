package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/sessiond/internal/clock"
)

// mockStore はStoreのモック実装。
type mockStore struct {
	mu      sync.Mutex
	cutoffs []string
	count   int64
	err     error
}

func (m *mockStore) MarkInactiveBefore(ctx context.Context, cutoff string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.count, m.err
}

func (m *mockStore) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cutoffs...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testClock(t *testing.T) *clock.Clock {
	t.Helper()
	c, err := clock.New(clock.DefaultTimezone)
	if err != nil {
		t.Fatalf("clock.New() error = %v", err)
	}
	return c
}

func TestJob_Run_CutoffReflectsThreshold(t *testing.T) {
	store := &mockStore{count: 2}
	c := testClock(t)
	job := NewJob(store, c, testLogger(), nil, 600*time.Second)

	before := c.Now()
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	after := c.Now()

	calls := store.calls()
	if len(calls) != 1 {
		t.Fatalf("MarkInactiveBefore calls = %d, want 1", len(calls))
	}

	cutoff, err := c.Parse(calls[0])
	if err != nil {
		t.Fatalf("cutoff %q is not in the canonical layout: %v", calls[0], err)
	}

	// cutoff は now − 600秒。フォーマットの秒単位切り捨てを許容して検証する。
	lo := before.Add(-600 * time.Second).Truncate(time.Second)
	hi := after.Add(-600 * time.Second)
	if cutoff.Before(lo) || cutoff.After(hi) {
		t.Errorf("cutoff = %v, want within [%v, %v]", cutoff, lo, hi)
	}
}

func TestJob_Run_StoreError(t *testing.T) {
	store := &mockStore{err: errors.New("db down")}
	job := NewJob(store, testClock(t), testLogger(), nil, 600*time.Second)

	if err := job.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want store error")
	}
}

func TestJob_Run_NoCandidates(t *testing.T) {
	store := &mockStore{count: 0}
	job := NewJob(store, testClock(t), testLogger(), nil, 600*time.Second)

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil when nothing to mark", err)
	}
}

func TestNewJob_DefaultThreshold(t *testing.T) {
	job := NewJob(&mockStore{}, testClock(t), testLogger(), nil, 0)
	if job.IdleThreshold != 600*time.Second {
		t.Errorf("IdleThreshold = %v, want 600s default", job.IdleThreshold)
	}
}

func TestJob_Start_RunsImmediatelyAndStops(t *testing.T) {
	store := &mockStore{}
	job := NewJob(store, testClock(t), testLogger(), nil, 600*time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	// 起動直後の1回目の実行を待つ
	deadline := time.After(2 * time.Second)
	for len(store.calls()) == 0 {
		select {
		case <-deadline:
			t.Fatal("initial sweep did not run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not stop after context cancellation")
	}

	if got := len(store.calls()); got != 1 {
		t.Errorf("sweep runs = %d, want 1 (interval is one hour)", got)
	}
}
