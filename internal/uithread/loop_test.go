package uithread

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(nil)
	go l.Run()
	t.Cleanup(func() {
		l.Stop()
		<-l.Done()
	})
	return l
}

func TestDoReturnsTaskError(t *testing.T) {
	l := startLoop(t)

	want := errors.New("boom")
	if err := l.Do(func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("Do error = %v, want %v", err, want)
	}
	if err := l.Do(func() error { return nil }); err != nil {
		t.Fatalf("Do error = %v, want nil", err)
	}
}

func TestTasksAreSerialized(t *testing.T) {
	l := startLoop(t)

	var (
		running int
		maxSeen int
		total   int
	)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(func() error {
				// Only the loop touches these counters.
				running++
				if running > maxSeen {
					maxSeen = running
				}
				total++
				running--
				return nil
			})
		}()
	}
	wg.Wait()

	if total != 50 {
		t.Fatalf("ran %d tasks, want 50", total)
	}
	if maxSeen != 1 {
		t.Fatalf("saw %d concurrent tasks, want 1", maxSeen)
	}
}

func TestPostRunsEventually(t *testing.T) {
	l := startLoop(t)

	ran := make(chan struct{})
	if !l.Post(func() { close(ran) }) {
		t.Fatal("Post reported stopped loop")
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted task did not run")
	}
}

func TestDoAfterStop(t *testing.T) {
	l := New(nil)
	go l.Run()
	l.Stop()
	l.Stop()
	<-l.Done()

	if err := l.Do(func() error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("Do after stop = %v, want ErrStopped", err)
	}
	if l.Post(func() {}) {
		t.Fatal("Post after stop reported success")
	}
}

func TestStopFromTask(t *testing.T) {
	l := New(nil)
	go l.Run()

	if err := l.Do(func() error {
		l.Stop()
		return nil
	}); err != nil {
		t.Fatalf("Do error = %v", err)
	}

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}
