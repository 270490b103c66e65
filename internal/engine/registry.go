package engine

import (
	"sync"
	"time"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
)

// connEntry - состояние одного соединения в реестре.
type connEntry struct {
	Entity       domain.EntityID
	LastActivity time.Time
	timer        *time.Timer
}

// ConnectionRegistry сопоставляет идентификаторы соединений сущностям
// и следит за бездействием. Таймер бездействия НЕ трогает мир: его
// колбэк уходит в тот же сериализованный канал событий, который
// дренирует планировщик.
type ConnectionRegistry struct {
	mu          sync.Mutex
	entries     map[string]*connEntry
	idleTimeout time.Duration

	// onIdle вызывается из горутины таймера при истечении окна
	// бездействия. Обязан быть неблокирующим.
	onIdle func(connID string)
}

func NewConnectionRegistry(idleTimeout time.Duration, onIdle func(connID string)) *ConnectionRegistry {
	return &ConnectionRegistry{
		entries:     make(map[string]*connEntry),
		idleTimeout: idleTimeout,
		onIdle:      onIdle,
	}
}

// Add регистрирует соединение и, если таймаут включен, взводит таймер.
func (r *ConnectionRegistry) Add(connID string, id domain.EntityID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &connEntry{
		Entity:       id,
		LastActivity: time.Now(),
	}
	if r.idleTimeout > 0 && r.onIdle != nil {
		entry.timer = time.AfterFunc(r.idleTimeout, func() {
			r.onIdle(connID)
		})
	}
	r.entries[connID] = entry
}

// Remove удаляет запись и останавливает ее таймер.
// Возвращает привязанную сущность и признак того, что запись была.
func (r *ConnectionRegistry) Remove(connID string) (domain.EntityID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[connID]
	if !ok {
		return 0, false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(r.entries, connID)
	return entry.Entity, true
}

// Touch отмечает активность соединения и перевзводит таймер.
// Вызывается на каждой входящей команде.
func (r *ConnectionRegistry) Touch(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[connID]
	if !ok {
		return false
	}
	entry.LastActivity = time.Now()
	if entry.timer != nil {
		entry.timer.Reset(r.idleTimeout)
	}
	return true
}

// EntityOf возвращает сущность, привязанную к соединению.
func (r *ConnectionRegistry) EntityOf(connID string) (domain.EntityID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[connID]
	if !ok {
		return 0, false
	}
	return entry.Entity, true
}

// Len возвращает число живых соединений.
func (r *ConnectionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
