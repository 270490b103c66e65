package network

import (
	"sync"

	"github.com/goccy/go-json"

	"github.com/DavidKirkpatrick95/Alterrain/pkg/api"
	"github.com/DavidKirkpatrick95/Alterrain/pkg/logger"
)

// Размер личного буфера подписчика. Медленное соединение никогда не
// тормозит тик: при переполнении самый старый кадр выбрасывается
// в пользу свежего.
const subscriberBuffer = 32

// Broadcaster занимается только доставкой сообщений подписчикам.
// Ключ - идентификатор соединения (не сущности): одна сущность
// существует в мире, но подписка живет вместе с сокетом.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan []byte
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan []byte),
	}
}

// Register создает личный канал для соединения.
func (b *Broadcaster) Register(connID string) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Если канал был, закрываем
	if old, ok := b.subscribers[connID]; ok {
		close(old)
	}

	ch := make(chan []byte, subscriberBuffer)
	b.subscribers[connID] = ch
	return ch
}

// Unregister удаляет подписчика и закрывает его канал.
// Закрытие канала - сигнал транспорту завершить отправку.
func (b *Broadcaster) Unregister(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[connID]; ok {
		close(ch)
		delete(b.subscribers, connID)
	}
}

// SendTo отправляет сообщение конкретному соединению (Unicast).
func (b *Broadcaster) SendTo(connID string, msg api.ServerMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		logger.WithComponent("hub").WithError(err).Error("marshal failed")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if ch, ok := b.subscribers[connID]; ok {
		push(ch, frame)
	}
}

// Broadcast отправляет сообщение всем подписчикам.
// Сообщение сериализуется один раз на всех.
func (b *Broadcaster) Broadcast(msg api.ServerMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		logger.WithComponent("hub").WithError(err).Error("marshal failed")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		push(ch, frame)
	}
}

// push кладет кадр в канал без блокировки. Если буфер полон,
// выбрасывает самый старый кадр: свежий снапшот важнее очереди.
func push(ch chan []byte, frame []byte) {
	select {
	case ch <- frame:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- frame:
	default:
	}
}

// HasSubscriber проверяет, подписано ли соединение.
func (b *Broadcaster) HasSubscriber(connID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[connID]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
