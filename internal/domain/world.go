package domain

import (
	"math/rand"
	"sort"
	"time"
)

// Параметры симуляции по умолчанию. Движок может переопределить их
// через конфиг после создания мира.
const (
	DefaultMoveDuration  = 180 * time.Millisecond
	DefaultSoundCooldown = 2 * time.Second
	DefaultRegrowDelay   = 30 * time.Second

	// Ограниченное число попыток поиска клетки для спавна.
	// Предохранитель от бесконечного цикла на заставленной карте.
	spawnAttempts = 128
)

// SoundEvent - звук, изданный сущностью на этом тике.
type SoundEvent struct {
	Entity EntityID
	Pos    Position
	Sound  string
}

// TileChange - изменение клетки ландшафта для рассылки клиентам.
type TileChange struct {
	X    int
	Y    int
	Tile TileType
}

// regrowEntry - отложенное восстановление срубленного дерева.
type regrowEntry struct {
	Pos  Position
	Left time.Duration
}

// World - авторитетное состояние симуляции. Владеет сеткой тайлов,
// сеткой объектов и реестром сущностей. Мутируется ТОЛЬКО потоком
// симуляции; никакой внутренней синхронизации здесь нет.
type World struct {
	Width  int
	Height int

	// Tiles[y][x] - тип клетки ландшафта.
	Tiles [][]TileType

	// Objects: индекс клетки (y*Width+x) -> блокирующий объект.
	// Инвариант: занятая клетка соответствует ровно одной живой
	// сущности дерева/сундука с той же позицией.
	Objects map[int]*Entity

	// Entities - все живые сущности по ID.
	Entities map[EntityID]*Entity

	Weather Weather

	MoveDuration  time.Duration
	SoundCooldown time.Duration
	RegrowDelay   time.Duration

	nextPlayerIdx int64
	nextObjectIdx int64
	rng           *rand.Rand

	// Накопители диффов текущего тика. Сбрасываются Consume-методами.
	tileDiffs    map[int]TileType
	sounds       []SoundEvent
	regrow       []regrowEntry
	objectsDirty bool
}

// NewWorld создает мир поверх готовой сетки тайлов.
// Сущности и объекты всегда добавляются отдельно (генерацией или спавном).
func NewWorld(tiles [][]TileType, weather Weather, rng *rand.Rand) *World {
	height := len(tiles)
	width := 0
	if height > 0 {
		width = len(tiles[0])
	}

	return &World{
		Width:         width,
		Height:        height,
		Tiles:         tiles,
		Objects:       make(map[int]*Entity),
		Entities:      make(map[EntityID]*Entity),
		Weather:       weather,
		MoveDuration:  DefaultMoveDuration,
		SoundCooldown: DefaultSoundCooldown,
		RegrowDelay:   DefaultRegrowDelay,
		rng:           rng,
		tileDiffs:     make(map[int]TileType),
	}
}

func (w *World) Index(x, y int) int {
	return y*w.Width + x
}

func (w *World) InBounds(x, y int) bool {
	return x >= 0 && x < w.Width && y >= 0 && y < w.Height
}

// IsPassable возвращает true, если тайл проходим И клетка не занята
// блокирующим объектом. Все, что за границей карты, непроходимо.
func (w *World) IsPassable(x, y int) bool {
	if !w.InBounds(x, y) {
		return false
	}
	if !w.Tiles[y][x].Walkable() {
		return false
	}
	if obj, ok := w.Objects[w.Index(x, y)]; ok && obj.Blocking() {
		return false
	}
	return true
}

// allocID выдает следующий монотонный ID для вида. Индексы игроков и
// объектов независимы: первый подключившийся игрок всегда получает 1.
func (w *World) allocID(kind EntityKind) EntityID {
	switch kind {
	case KindPlayer:
		w.nextPlayerIdx++
		return PackEntityID(kind, w.nextPlayerIdx)
	default:
		w.nextObjectIdx++
		return PackEntityID(kind, w.nextObjectIdx)
	}
}

// Entity возвращает сущность по ID или nil.
func (w *World) Entity(id EntityID) *Entity {
	return w.Entities[id]
}

// SpawnPlayer вставляет нового игрока. Если предложенная клетка
// непроходима, делает ограниченное число случайных попыток и затем
// сдается с ErrNoSpaceAvailable (никогда не зацикливается).
func (w *World) SpawnPlayer(x, y int) (*Entity, error) {
	if !w.IsPassable(x, y) {
		found := false
		for i := 0; i < spawnAttempts; i++ {
			cx := w.rng.Intn(w.Width)
			cy := w.rng.Intn(w.Height)
			if w.IsPassable(cx, cy) {
				x, y = cx, cy
				found = true
				break
			}
		}
		if !found {
			return nil, ErrNoSpaceAvailable
		}
	}

	p := NewPlayer(w.allocID(KindPlayer), Position{X: x, Y: y})
	w.Entities[p.ID] = p
	return p, nil
}

// PlaceTree вставляет дерево в свободную проходимую клетку.
func (w *World) PlaceTree(pos Position, durability int) *Entity {
	if !w.IsPassable(pos.X, pos.Y) {
		return nil
	}
	t := NewTree(w.allocID(KindTree), pos, durability)
	w.Entities[t.ID] = t
	w.Objects[w.Index(pos.X, pos.Y)] = t
	w.objectsDirty = true
	return t
}

// PlaceChest вставляет сундук в свободную проходимую клетку.
func (w *World) PlaceChest(pos Position, required int) *Entity {
	if !w.IsPassable(pos.X, pos.Y) {
		return nil
	}
	c := NewChest(w.allocID(KindChest), pos, required)
	w.Entities[c.ID] = c
	w.Objects[w.Index(pos.X, pos.Y)] = c
	w.objectsDirty = true
	return c
}

// RemoveEntity удаляет сущность и освобождает занятую ею клетку объектов.
// Для неизвестного ID возвращает ErrUnknownEntity (вызывающий логирует).
func (w *World) RemoveEntity(id EntityID) error {
	e, ok := w.Entities[id]
	if !ok {
		return ErrUnknownEntity
	}

	delete(w.Entities, id)

	idx := w.Index(e.Pos.X, e.Pos.Y)
	if obj, ok := w.Objects[idx]; ok && obj.ID == id {
		delete(w.Objects, idx)
		w.objectsDirty = true
	}
	return nil
}

// --- ПРИМЕНЕНИЕ КОМАНД ---

// ApplyCommand применяет одну команду к миру. Диспетчеризация по тегу.
// Невалидные команды (чужая клетка, непроходимость, кулдаун) молча
// отбрасываются - это штатная часть контракта, а не ошибка.
func (w *World) ApplyCommand(cmd Command) error {
	actor, ok := w.Entities[cmd.Entity]
	if !ok {
		return ErrUnknownEntity
	}
	if actor.Player == nil {
		// Команды принимаются только от игроков.
		return ErrUnknownEntity
	}

	switch cmd.Type {
	case CommandMove:
		w.applyMove(actor, cmd.Dir)
	case CommandAlterTile:
		w.applyAlterTile(actor, cmd.Tile)
	case CommandInteract:
		w.applyInteract(actor)
	case CommandCommunicate:
		w.applyCommunicate(actor, cmd.Sound)
	default:
		return ErrUnknownCommand
	}
	return nil
}

func (w *World) applyMove(actor *Entity, dir Direction) {
	// Разворот бесплатный и происходит даже для отклоненного шага.
	actor.Facing = dir

	if actor.Player.Moving {
		return
	}

	dest := actor.Pos.Step(dir)
	if !w.IsPassable(dest.X, dest.Y) {
		// Шаг в стену/за границу молча отбрасывается, без retry.
		return
	}

	actor.Player.Moving = true
	actor.Player.Target = dest
	actor.Player.MoveLeft = w.MoveDuration
}

func (w *World) applyAlterTile(actor *Entity, tile TileType) {
	target := actor.Pos.Step(actor.Facing)
	if !w.InBounds(target.X, target.Y) {
		return
	}

	w.Tiles[target.Y][target.X] = tile
	w.tileDiffs[w.Index(target.X, target.Y)] = tile
}

func (w *World) applyInteract(actor *Entity) {
	target := actor.Pos.Step(actor.Facing)
	if !w.InBounds(target.X, target.Y) {
		return
	}

	obj, ok := w.Objects[w.Index(target.X, target.Y)]
	if !ok {
		return
	}

	switch obj.Kind {
	case KindTree:
		w.interactTree(actor, obj)
	case KindChest:
		w.interactChest(actor, obj)
	}
}

// interactTree уменьшает прочность. На последнем ударе дерево исчезает,
// лут выдается ровно один раз, и планируется отложенное восстановление.
func (w *World) interactTree(actor *Entity, tree *Entity) {
	tree.Tree.Durability--
	if tree.Tree.Durability > 0 {
		return
	}

	pos := tree.Pos
	_ = w.RemoveEntity(tree.ID)
	actor.Player.Inventory[ItemWood]++
	w.regrow = append(w.regrow, regrowEntry{Pos: pos, Left: w.RegrowDelay})
}

// interactChest засчитывает актора в множество открывавших.
// Повторное взаимодействие уже засчитанной сущности ничего не меняет.
func (w *World) interactChest(actor *Entity, chest *Entity) {
	c := chest.Chest
	if c.Opened {
		return
	}
	if _, counted := c.UnlockedBy[actor.ID]; counted {
		return
	}

	c.UnlockedBy[actor.ID] = struct{}{}
	if len(c.UnlockedBy) >= c.Required {
		c.Opened = true
		actor.Player.Inventory[ItemGold]++
	}
	w.objectsDirty = true
}

func (w *World) applyCommunicate(actor *Entity, sound string) {
	if actor.Player.SoundCooldown > 0 {
		return
	}

	w.sounds = append(w.sounds, SoundEvent{
		Entity: actor.ID,
		Pos:    actor.Pos,
		Sound:  sound,
	})
	actor.Player.SoundCooldown = w.SoundCooldown
}

// --- ШАГ СИМУЛЯЦИИ ---

// Step продвигает время мира на dt: завершает начатые перемещения,
// списывает кулдауны, восстанавливает деревья. Детерминирован при
// одинаковой последовательности команд и тиков: сущности обходятся
// в порядке возрастания ID, на порядок обхода map не полагаемся.
func (w *World) Step(dt time.Duration) {
	for _, id := range w.sortedIDs() {
		e, ok := w.Entities[id]
		if !ok || e.Player == nil {
			continue
		}

		if e.Player.SoundCooldown > 0 {
			e.Player.SoundCooldown -= dt
			if e.Player.SoundCooldown < 0 {
				e.Player.SoundCooldown = 0
			}
		}

		if e.Player.Moving {
			e.Player.MoveLeft -= dt
			if e.Player.MoveLeft <= 0 {
				e.Pos = e.Player.Target
				e.Player.Moving = false
				e.Player.MoveLeft = 0
			}
		}
	}

	w.stepRegrowth(dt)
}

// stepRegrowth возвращает деревья на срубленные клетки.
// Если клетка занята, запись откладывается еще на половину задержки.
func (w *World) stepRegrowth(dt time.Duration) {
	if len(w.regrow) == 0 {
		return
	}

	remaining := w.regrow[:0]
	for _, r := range w.regrow {
		r.Left -= dt
		if r.Left > 0 {
			remaining = append(remaining, r)
			continue
		}

		if w.cellFree(r.Pos) {
			w.PlaceTree(r.Pos, 1+w.rng.Intn(4))
			continue
		}

		r.Left = w.RegrowDelay / 2
		remaining = append(remaining, r)
	}
	w.regrow = remaining
}

// cellFree - клетка проходима и на ней не стоит (и в нее не идет) игрок.
func (w *World) cellFree(pos Position) bool {
	if !w.IsPassable(pos.X, pos.Y) {
		return false
	}
	for _, e := range w.Entities {
		if e.Player == nil {
			continue
		}
		if e.Pos == pos {
			return false
		}
		if e.Player.Moving && e.Player.Target == pos {
			return false
		}
	}
	return true
}

// --- ВЫБОРКИ И ДИФФЫ ---

func (w *World) sortedIDs() []EntityID {
	ids := make([]EntityID, 0, len(w.Entities))
	for id := range w.Entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Players возвращает игроков в порядке возрастания ID.
func (w *World) Players() []*Entity {
	var out []*Entity
	for _, id := range w.sortedIDs() {
		if e := w.Entities[id]; e.Kind == KindPlayer {
			out = append(out, e)
		}
	}
	return out
}

// Trees возвращает деревья в порядке возрастания ID.
func (w *World) Trees() []*Entity {
	var out []*Entity
	for _, id := range w.sortedIDs() {
		if e := w.Entities[id]; e.Kind == KindTree {
			out = append(out, e)
		}
	}
	return out
}

// Chests возвращает сундуки в порядке возрастания ID.
func (w *World) Chests() []*Entity {
	var out []*Entity
	for _, id := range w.sortedIDs() {
		if e := w.Entities[id]; e.Kind == KindChest {
			out = append(out, e)
		}
	}
	return out
}

// ConsumeTileDiffs отдает накопленные изменения тайлов и сбрасывает буфер.
// Координаты отсортированы для детерминированной сериализации.
func (w *World) ConsumeTileDiffs() []TileChange {
	if len(w.tileDiffs) == 0 {
		return nil
	}

	idxs := make([]int, 0, len(w.tileDiffs))
	for idx := range w.tileDiffs {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	out := make([]TileChange, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, TileChange{
			X:    idx % w.Width,
			Y:    idx / w.Width,
			Tile: w.tileDiffs[idx],
		})
	}
	w.tileDiffs = make(map[int]TileType)
	return out
}

// ConsumeSounds отдает звуки этого тика и сбрасывает буфер.
func (w *World) ConsumeSounds() []SoundEvent {
	if len(w.sounds) == 0 {
		return nil
	}
	out := w.sounds
	w.sounds = nil
	return out
}

// ConsumeObjectsDirty сообщает, менялся ли состав объектов с прошлого тика.
func (w *World) ConsumeObjectsDirty() bool {
	dirty := w.objectsDirty
	w.objectsDirty = false
	return dirty
}
