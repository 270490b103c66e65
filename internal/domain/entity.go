package domain

import "time"

// EntityKind - закрытый набор видов сущностей.
// Вместо целочисленных "kind" из ранних прототипов (0=дерево, 1=камень...)
// используем явный enum и исчерпывающий switch по нему.
type EntityKind uint8

const (
	KindPlayer EntityKind = iota
	KindTree
	KindChest
)

func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "PLAYER"
	case KindTree:
		return "TREE"
	case KindChest:
		return "CHEST"
	}
	return "UNKNOWN"
}

// --- КОМПОНЕНТЫ ---

// PlayerComponent - состояние, которое есть только у игрока.
type PlayerComponent struct {
	// Inventory: тип предмета -> количество. Количество не бывает отрицательным.
	Inventory map[ItemType]int

	// Движение. Пока Moving=true, новые MOVE-команды игнорируются.
	Moving   bool
	Target   Position
	MoveLeft time.Duration

	// Кулдаун звуковых сообщений (COMMUNICATE).
	SoundCooldown time.Duration
}

// TreeComponent - прочность дерева. Строго убывает, при <=0 дерево
// удаляется из мира и выдает лут.
type TreeComponent struct {
	Durability int
}

// ChestComponent - сундук с множественной разблокировкой.
// Открывается, когда Required РАЗНЫХ сущностей с ним повзаимодействовали.
type ChestComponent struct {
	Required   int
	UnlockedBy map[EntityID]struct{}
	Opened     bool
}

// --- СУЩНОСТЬ ---

// Entity - участник симуляции. Ровно один из компонентов-указателей
// не nil и соответствует Kind.
type Entity struct {
	ID     EntityID
	Kind   EntityKind
	Pos    Position
	Facing Direction

	Player *PlayerComponent
	Tree   *TreeComponent
	Chest  *ChestComponent
}

// Blocking возвращает true, если сущность занимает клетку objectGrid
// и препятствует движению. Игроки друг друга не блокируют.
func (e *Entity) Blocking() bool {
	switch e.Kind {
	case KindTree, KindChest:
		return true
	}
	return false
}

func NewPlayer(id EntityID, pos Position) *Entity {
	return &Entity{
		ID:     id,
		Kind:   KindPlayer,
		Pos:    pos,
		Facing: DirDown,
		Player: &PlayerComponent{
			Inventory: make(map[ItemType]int),
		},
	}
}

func NewTree(id EntityID, pos Position, durability int) *Entity {
	return &Entity{
		ID:     id,
		Kind:   KindTree,
		Pos:    pos,
		Facing: DirDown,
		Tree:   &TreeComponent{Durability: durability},
	}
}

func NewChest(id EntityID, pos Position, required int) *Entity {
	return &Entity{
		ID:     id,
		Kind:   KindChest,
		Pos:    pos,
		Facing: DirDown,
		Chest: &ChestComponent{
			Required:   required,
			UnlockedBy: make(map[EntityID]struct{}),
		},
	}
}
