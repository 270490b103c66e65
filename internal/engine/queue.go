package engine

import (
	"sync"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
)

// CommandQueue - пер-сущностные FIFO-буферы ожидающих команд.
// Сетевые горутины только добавляют; поток симуляции забирает все
// разом один раз за тик. Единственная точка синхронизации ядра.
type CommandQueue struct {
	mu      sync.Mutex
	pending map[domain.EntityID][]domain.Command
	depth   int
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{
		pending: make(map[domain.EntityID][]domain.Command),
	}
}

// Enqueue добавляет команду в хвост очереди сущности. Потокобезопасно.
func (q *CommandQueue) Enqueue(id domain.EntityID, cmd domain.Command) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending[id] = append(q.pending[id], cmd)
	q.depth++
}

// DrainAll атомарно опустошает ВСЕ очереди и возвращает их содержимое.
// Команды, встающие в очередь во время дренажа, попадают целиком в
// следующий тик - частичной видимости нет: отдается старая мапа,
// а на ее место встает пустая.
func (q *CommandQueue) DrainAll() map[domain.EntityID][]domain.Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.depth == 0 {
		return nil
	}

	drained := q.pending
	q.pending = make(map[domain.EntityID][]domain.Command)
	q.depth = 0
	return drained
}

// Drop выбрасывает накопленные команды сущности (дисконнект).
func (q *CommandQueue) Drop(id domain.EntityID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.depth -= len(q.pending[id])
	delete(q.pending, id)
}

// Depth возвращает суммарное число ожидающих команд (для debug-эндпоинта).
func (q *CommandQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depth
}
