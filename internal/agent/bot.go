package agent

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/DavidKirkpatrick95/Alterrain/pkg/api"
	"github.com/DavidKirkpatrick95/Alterrain/pkg/logger"
)

// Bot - безголовый клиент для нагрузочных прогонов и ручной отладки.
// Подключается к /ws, выбрасывает входящие кадры и шлет случайные
// команды с заданным интервалом.
type Bot struct {
	Name     string
	URL      string
	Interval time.Duration

	rng *rand.Rand
}

func NewBot(name, url string, interval time.Duration, seed int64) *Bot {
	return &Bot{
		Name:     name,
		URL:      url,
		Interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Run держит соединение до stop или ошибки сокета.
func (b *Bot) Run(stop <-chan struct{}) error {
	log := logger.WithComponent("bot").WithField("bot", b.Name)

	conn, _, err := websocket.DefaultDialer.Dial(b.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info("🤖 Bot connected")

	// Читаем и выбрасываем все, что шлет сервер. Без этого буфер
	// подписчика на сервере будет постоянно переполняться.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			if err := conn.WriteJSON(b.randomEnvelope()); err != nil {
				log.WithError(err).Warn("Bot write failed")
				return err
			}
		}
	}
}

// randomEnvelope собирает случайную валидную команду.
// Движения доминируют: боты должны бродить, а не только стучать по клеткам.
func (b *Bot) randomEnvelope() api.ClientEnvelope {
	roll := b.rng.Intn(10)
	switch {
	case roll < 6:
		params, _ := json.Marshal(api.MoveParams{Dir: b.rng.Intn(4)})
		return api.ClientEnvelope{Type: api.TypeMove, Params: params}
	case roll < 8:
		return api.ClientEnvelope{Type: api.TypeInteract}
	case roll < 9:
		params, _ := json.Marshal(api.AlterTileParams{Tile: b.rng.Intn(5)})
		return api.ClientEnvelope{Type: api.TypeAlterTile, Params: params}
	default:
		params, _ := json.Marshal(api.CommunicateParams{
			Sound: fmt.Sprintf("bot-call-%d", b.rng.Intn(4)),
		})
		return api.ClientEnvelope{Type: api.TypeCommunicate, Params: params}
	}
}
