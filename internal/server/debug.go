package server

import (
	"encoding/json"
	"net/http"

	"github.com/DavidKirkpatrick95/Alterrain/internal/engine"
)

// DebugHandler предоставляет доступ к внутреннему состоянию движка
type DebugHandler struct {
	Service *engine.GameService
}

func NewDebugHandler(s *engine.GameService) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/state", h.handleState)
	mux.HandleFunc("/debug/objects", h.handleObjects)
}

// /debug/state - сводка по симуляции и соединениям
func (h *DebugHandler) handleState(w http.ResponseWriter, r *http.Request) {
	type StateSummary struct {
		Tick        uint64 `json:"tick"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		Weather     string `json:"weather"`
		Connections int    `json:"connections"`
		Subscribers int    `json:"subscribers"`
		QueueDepth  int    `json:"queue_depth"`
		TickRate    int    `json:"tick_rate"`
		IdleTimeout string `json:"idle_timeout"`
		JournalSize int    `json:"journal_entries"`
	}

	writeJSON(w, StateSummary{
		Tick:        h.Service.Tick(),
		Width:       h.Service.Cfg.Width,
		Height:      h.Service.Cfg.Height,
		Weather:     string(h.Service.World.Weather),
		Connections: h.Service.Registry.Len(),
		Subscribers: h.Service.Hub.SubscriberCount(),
		QueueDepth:  h.Service.Queue.Depth(),
		TickRate:    h.Service.Cfg.TickRate,
		IdleTimeout: h.Service.Cfg.IdleTimeout.String(),
		JournalSize: len(h.Service.Journal.Entries),
	})
}

// /debug/objects - дамп деревьев и сундуков.
// Читает мир без синхронизации с тиком: для дебага сойдет.
func (h *DebugHandler) handleObjects(w http.ResponseWriter, r *http.Request) {
	type ObjectDump struct {
		ID      int64  `json:"id"`
		Kind    string `json:"kind"`
		X       int    `json:"x"`
		Y       int    `json:"y"`
		Details any    `json:"details,omitempty"`
	}

	var dump []ObjectDump
	for _, t := range h.Service.World.Trees() {
		dump = append(dump, ObjectDump{
			ID: int64(t.ID), Kind: "tree", X: t.Pos.X, Y: t.Pos.Y,
			Details: map[string]int{"durability": t.Tree.Durability},
		})
	}
	for _, c := range h.Service.World.Chests() {
		dump = append(dump, ObjectDump{
			ID: int64(c.ID), Kind: "chest", X: c.Pos.X, Y: c.Pos.Y,
			Details: map[string]any{
				"required": c.Chest.Required,
				"unlocked": len(c.Chest.UnlockedBy),
				"opened":   c.Chest.Opened,
			},
		})
	}

	writeJSON(w, dump)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	// Пустой дамп отдаем как [], а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
