package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
	"github.com/DavidKirkpatrick95/Alterrain/internal/engine"
	"github.com/DavidKirkpatrick95/Alterrain/pkg/api"
	"github.com/DavidKirkpatrick95/Alterrain/pkg/logger"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и GameService
type Client struct {
	Game     *engine.GameService
	Conn     *websocket.Conn
	ConnID   string
	EntityID domain.EntityID
}

func NewClient(game *engine.GameService, conn *websocket.Conn, connID string) *Client {
	return &Client{
		Game:   game,
		Conn:   conn,
		ConnID: connID,
	}
}

// readPump читает команды от клиента
func (c *Client) readPump() {
	defer func() {
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("failed to close websocket connection")
		}
		// Таймер бездействия мог отключить нас раньше закрытия сокета.
		// Тогда записи в реестре уже нет и повторный Disconnect не нужен.
		if _, ok := c.Game.Registry.EntityOf(c.ConnID); ok {
			c.Game.Disconnect(c.ConnID, "socket closed")
		} else {
			c.Game.Hub.Unregister(c.ConnID)
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	// 1. СПАВН. Блокируется до ближайшего тика; world-init придет
	// через подписку, оформленную до запуска пампов.
	id, err := c.Game.Connect(c.ConnID)
	if err != nil {
		logger.Log.WithError(err).Warn("Spawn rejected, dropping connection")
		return
	}
	c.EntityID = id

	logger.Log.WithFields(logrus.Fields{
		"conn_id":   c.ConnID,
		"entity_id": c.EntityID,
	}).Info("Client connected")

	// 2. ЦИКЛ ЧТЕНИЯ КОМАНД
	for {
		var env api.ClientEnvelope
		if err := c.Conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Errorf("WS Error: %v", err)
			}
			break
		}

		// Невалидная команда отбрасывается, соединение живет дальше
		if err := c.Game.HandleCommand(c.ConnID, env); err != nil {
			logger.Log.WithError(err).WithField("conn_id", c.ConnID).Debug("Command rejected")
		}
	}
}

// writePump пересылает кадры из хаба клиенту + Ping.
// Закрытие канала updates (Unregister в хабе) завершает памп.
func (c *Client) writePump(updates chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case frame, ok := <-updates:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Log.WithError(err).Debug("write frame failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
