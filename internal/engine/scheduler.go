package engine

import (
	"sync"
	"time"

	"github.com/DavidKirkpatrick95/Alterrain/pkg/logger"
)

// Scheduler гонит цикл с фиксированной частотой: Stopped -> Running
// (Start) -> Stopped (Stop). Пропущенные срабатывания не навёрстываются
// пачкой (time.Ticker их схлопывает); dt отражает реально прошедшее
// время, поэтому под нагрузкой симуляция сама выравнивает скорость,
// хотя отдельный тик может интегрировать больше номинала.
type Scheduler struct {
	interval time.Duration
	run      func(dt time.Duration)

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	done    chan struct{}
}

func NewScheduler(interval time.Duration, run func(dt time.Duration)) *Scheduler {
	return &Scheduler{
		interval: interval,
		run:      run,
	}
}

// Start запускает цикл. Повторный вызов на запущенном планировщике - no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.quit = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.quit, s.done)
	logger.WithComponent("scheduler").WithField("interval", s.interval).Info("Tick loop started")
}

func (s *Scheduler) loop(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			// select обрабатывает по одному случаю за раз, поэтому
			// идущий тик всегда завершается до реакции на quit:
			// рваный снапшот в рассылку не попадает.
			now := time.Now()
			s.run(now.Sub(last))
			last = now
		}
	}
}

// Stop останавливает цикл и дожидается завершения текущего тика.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	quit, done := s.quit, s.done
	s.mu.Unlock()

	close(quit)
	<-done
	logger.WithComponent("scheduler").Info("Tick loop stopped")
}

// Running сообщает, крутится ли цикл.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
