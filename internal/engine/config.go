package engine

import (
	"time"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
)

// Config хранит параметры запуска движка
type Config struct {
	// Seed - мастер-зерно. От него зависят ландшафт, погода и объекты.
	Seed int64

	// Размер мира в клетках.
	Width  int
	Height int

	// TickRate - частота симуляции в герцах.
	TickRate int

	// BroadcastEvery - слать TICK-пачку раз в N тиков. Симуляция идет
	// на полной частоте, трафик - на пониженной.
	BroadcastEvery int

	// IdleTimeout - окно бездействия, после которого соединение
	// принудительно закрывается. Ноль или меньше отключает таймаут.
	IdleTimeout time.Duration

	// Тюнинг мира.
	MoveDuration  time.Duration
	SoundCooldown time.Duration
	RegrowDelay   time.Duration

	// SnapshotID - идентификатор снапшота тайлов для загрузки/сохранения.
	// Пустая строка означает всегда свежую генерацию.
	SnapshotID string

	// JournalDir - куда писать журнал команд при остановке.
	// Пустая строка отключает журнал.
	JournalDir string
}

// NewConfig создает конфиг по умолчанию (случайный сид)
func NewConfig() Config {
	return Config{
		Seed:           time.Now().UnixNano(),
		Width:          64,
		Height:         64,
		TickRate:       60,
		BroadcastEvery: 2,
		IdleTimeout:    5 * time.Minute,
		MoveDuration:   domain.DefaultMoveDuration,
		SoundCooldown:  domain.DefaultSoundCooldown,
		RegrowDelay:    domain.DefaultRegrowDelay,
	}
}

// TickInterval возвращает длительность одного тика.
func (c Config) TickInterval() time.Duration {
	rate := c.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}
