package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsAtInterval(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler(5*time.Millisecond, func(dt time.Duration) {
		if dt <= 0 {
			t.Error("dt must be positive")
		}
		ticks.Add(1)
	})

	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	got := ticks.Load()
	if got < 5 {
		t.Errorf("expected at least 5 ticks in 100ms, got %d", got)
	}

	// После Stop тиков больше нет
	time.Sleep(30 * time.Millisecond)
	if ticks.Load() != got {
		t.Error("scheduler kept ticking after Stop")
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler(5*time.Millisecond, func(time.Duration) {
		ticks.Add(1)
	})

	s.Start()
	s.Start() // второй запуск - no-op, не вторая горутина
	if !s.Running() {
		t.Error("scheduler must report running")
	}

	s.Stop()
	if s.Running() {
		t.Error("scheduler must report stopped")
	}
}

func TestScheduler_StopWaitsForInFlightTick(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var done atomic.Bool

	s := NewScheduler(time.Millisecond, func(time.Duration) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		done.Store(true)
	})

	s.Start()
	<-entered
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	// Stop обязан вернуться только после завершения текущего тика
	s.Stop()
	if !done.Load() {
		t.Error("Stop returned while a tick was still in flight")
	}
}
