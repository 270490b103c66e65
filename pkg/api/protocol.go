package api

import "encoding/json"

// --- КЛИЕНТ -> СЕРВЕР ---

// Числовые типы входящих команд. Значения зафиксированы протоколом.
const (
	TypeMove        = 1
	TypeAlterTile   = 2
	TypeCommunicate = 3
	TypeInteract    = 4
)

// ClientEnvelope это корневой объект для всех сообщений от клиента.
// Структура params зависит от type; неизвестный type отбрасывается
// сервером без разрыва соединения.
type ClientEnvelope struct {
	Type   int             `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// MoveParams - параметры TypeMove.
type MoveParams struct {
	// Dir: 0=вверх, 1=вправо, 2=вниз, 3=влево.
	Dir int `json:"dir"`
}

// AlterTileParams - параметры TypeAlterTile.
type AlterTileParams struct {
	Tile int `json:"tile"`
}

// CommunicateParams - параметры TypeCommunicate.
type CommunicateParams struct {
	Sound string `json:"sound"`
}

// --- СЕРВЕР -> КЛИЕНТ ---

// Типы исходящих сообщений.
const (
	MsgWorldInit   = "WORLD_INIT"
	MsgTick        = "TICK"
	MsgPlayerEvent = "PLAYER_EVENT"
	MsgWorldUpdate = "WORLD_UPDATE"
	MsgPlaySound   = "PLAY_SOUND"
)

// ServerMessage это корневой объект всех сообщений сервера.
// Заполнено ровно одно из полей, соответствующее Type.
type ServerMessage struct {
	Type string `json:"type"`

	Init   *WorldInit    `json:"init,omitempty"`
	Ticks  []TickPayload `json:"ticks,omitempty"`
	Event  *PlayerEvent  `json:"event,omitempty"`
	Update *WorldUpdate  `json:"update,omitempty"`
	Sound  *SoundView    `json:"sound,omitempty"`
}

// WorldInit отправляется один раз новому соединению: полный слепок мира
// плюс ID сущности, назначенной этому клиенту.
type WorldInit struct {
	EntityID int64  `json:"entityId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Weather  string `json:"weather"`

	// Tiles - вся сетка в row-major порядке, Width*Height значений.
	Tiles []int `json:"tiles"`

	Players []PlayerView `json:"players"`
	Trees   []ObjectView `json:"trees"`
	Chests  []ChestView  `json:"chests"`
}

// PlayerView это DTO состояния одного игрока.
type PlayerView struct {
	ID     int64 `json:"id"`
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Facing int   `json:"facing"`
	Moving bool  `json:"moving"`

	// Inventory: тип предмета -> количество.
	Inventory map[string]int `json:"inventory,omitempty"`
}

// ObjectView это DTO статического объекта (дерево).
type ObjectView struct {
	ID int64 `json:"id"`
	X  int   `json:"x"`
	Y  int   `json:"y"`
}

// ChestView это DTO сундука, включая прогресс разблокировки.
type ChestView struct {
	ID       int64 `json:"id"`
	X        int   `json:"x"`
	Y        int   `json:"y"`
	Required int   `json:"required"`
	Unlocked int   `json:"unlocked"`
	Opened   bool  `json:"opened"`
}

// TickPayload - состояние игроков на одном тике. Рассылается пачками:
// несколько тиков могут уехать одним сообщением (батчинг по трафику).
type TickPayload struct {
	Tick    uint64       `json:"tick"`
	Players []PlayerView `json:"players"`
}

// PlayerEvent - вход/выход игрока.
type PlayerEvent struct {
	Kind      string `json:"kind"` // "join" | "leave"
	ID        int64  `json:"id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// WorldUpdate - изменившиеся клетки и, при необходимости, свежие списки
// объектов (после рубки/восстановления дерева или открытия сундука).
type WorldUpdate struct {
	Tiles  []TileView   `json:"tiles,omitempty"`
	Trees  []ObjectView `json:"trees,omitempty"`
	Chests []ChestView  `json:"chests,omitempty"`
}

// TileView - одна измененная клетка.
type TileView struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Tile int `json:"tile"`
}

// SoundView - звук, изданный сущностью.
type SoundView struct {
	ID    int64  `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Sound string `json:"sound"`
}
