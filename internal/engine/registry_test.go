package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
)

func TestRegistry_AddAndLookup(t *testing.T) {
	r := NewConnectionRegistry(0, nil)
	id := domain.PackEntityID(domain.KindPlayer, 1)

	r.Add("conn-1", id)

	got, ok := r.EntityOf("conn-1")
	if !ok || got != id {
		t.Errorf("EntityOf returned (%d, %v), want (%d, true)", got, ok, id)
	}
	if _, ok := r.EntityOf("ghost"); ok {
		t.Error("unknown connection must not resolve")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewConnectionRegistry(0, nil)
	id := domain.PackEntityID(domain.KindPlayer, 1)
	r.Add("conn-1", id)

	got, ok := r.Remove("conn-1")
	if !ok || got != id {
		t.Errorf("Remove returned (%d, %v), want (%d, true)", got, ok, id)
	}
	if _, ok := r.Remove("conn-1"); ok {
		t.Error("second remove must report a missing entry")
	}
}

func TestRegistry_IdleTimerFires(t *testing.T) {
	var mu sync.Mutex
	fired := make(map[string]int)

	r := NewConnectionRegistry(30*time.Millisecond, func(connID string) {
		mu.Lock()
		fired[connID]++
		mu.Unlock()
	})
	r.Add("conn-1", domain.PackEntityID(domain.KindPlayer, 1))

	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired["conn-1"] != 1 {
		t.Errorf("idle callback fired %d times, want 1", fired["conn-1"])
	}
}

func TestRegistry_TouchResetsTimer(t *testing.T) {
	var mu sync.Mutex
	fired := 0

	r := NewConnectionRegistry(60*time.Millisecond, func(string) {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	r.Add("conn-1", domain.PackEntityID(domain.KindPlayer, 1))

	// Активность каждые 20мс держит таймер взведенным
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		if !r.Touch("conn-1") {
			t.Fatal("touch of a live connection must succeed")
		}
	}

	mu.Lock()
	if fired != 0 {
		mu.Unlock()
		t.Fatalf("timer fired despite activity")
	}
	mu.Unlock()

	// Без активности окно истекает
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("idle callback fired %d times after silence, want 1", fired)
	}
}

func TestRegistry_RemoveStopsTimer(t *testing.T) {
	var mu sync.Mutex
	fired := 0

	r := NewConnectionRegistry(30*time.Millisecond, func(string) {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	r.Add("conn-1", domain.PackEntityID(domain.KindPlayer, 1))
	r.Remove("conn-1")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Error("timer of a removed connection must never fire")
	}
}

func TestRegistry_ZeroTimeoutDisablesTimer(t *testing.T) {
	r := NewConnectionRegistry(0, func(string) {
		t.Error("callback must never fire with timeout disabled")
	})
	r.Add("conn-1", domain.PackEntityID(domain.KindPlayer, 1))
	r.Touch("conn-1")

	time.Sleep(50 * time.Millisecond)
}
