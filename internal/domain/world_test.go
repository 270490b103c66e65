package domain

import (
	"math/rand"
	"testing"
	"time"
)

// Helper: пустой проходимый мир width x height из травы
func makeWorld(width, height int) *World {
	tiles := make([][]TileType, height)
	for y := 0; y < height; y++ {
		tiles[y] = make([]TileType, width)
	}
	return NewWorld(tiles, WeatherClear, rand.New(rand.NewSource(42)))
}

func TestWorld_IsPassable_OutOfBounds(t *testing.T) {
	w := makeWorld(8, 8)

	cases := [][2]int{
		{-1, 0}, {0, -1}, {8, 0}, {0, 8}, {-1, -1}, {100, 100},
	}
	for _, c := range cases {
		if w.IsPassable(c[0], c[1]) {
			t.Errorf("(%d,%d) is out of bounds, must not be passable", c[0], c[1])
		}
	}
}

func TestWorld_IsPassable_TilesAndObjects(t *testing.T) {
	w := makeWorld(8, 8)

	w.Tiles[2][3] = TileWater
	if w.IsPassable(3, 2) {
		t.Error("water tile must not be passable")
	}

	w.PlaceTree(Position{X: 5, Y: 5}, 3)
	if w.IsPassable(5, 5) {
		t.Error("tree cell must not be passable")
	}

	if !w.IsPassable(0, 0) {
		t.Error("plain grass must be passable")
	}
}

func TestWorld_SpawnPlayer_MonotonicIDs(t *testing.T) {
	w := makeWorld(8, 8)

	p1, err := w.SpawnPlayer(1, 1)
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	if p1.ID != 1 {
		t.Errorf("first entity must get id 1, got %d", p1.ID)
	}

	p2, _ := w.SpawnPlayer(2, 2)
	if p2.ID != 2 {
		t.Errorf("second entity must get id 2, got %d", p2.ID)
	}

	// ID не переиспользуются после удаления
	if err := w.RemoveEntity(p2.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	p3, _ := w.SpawnPlayer(3, 3)
	if p3.ID != 3 {
		t.Errorf("ids must never be reused, got %d", p3.ID)
	}
}

func TestWorld_SpawnPlayer_NoSpace(t *testing.T) {
	// Карта целиком из воды: спавн обязан сдаться, а не зависнуть.
	w := makeWorld(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			w.Tiles[y][x] = TileWater
		}
	}

	if _, err := w.SpawnPlayer(0, 0); err != ErrNoSpaceAvailable {
		t.Errorf("expected ErrNoSpaceAvailable, got %v", err)
	}
}

func TestWorld_RemoveEntity_Unknown(t *testing.T) {
	w := makeWorld(4, 4)
	if err := w.RemoveEntity(99); err != ErrUnknownEntity {
		t.Errorf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestWorld_Move_CompletesOnPassableTile(t *testing.T) {
	w := makeWorld(8, 8)
	p, _ := w.SpawnPlayer(1, 1)

	if err := w.ApplyCommand(Command{Type: CommandMove, Entity: p.ID, Dir: DirRight}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if !p.Player.Moving {
		t.Fatal("move must be in progress after accepted command")
	}
	if p.Pos != (Position{X: 1, Y: 1}) {
		t.Error("position must not change until the move completes")
	}

	// Шаг завершает перемещение
	w.Step(w.MoveDuration)

	if p.Player.Moving {
		t.Error("move should be completed")
	}
	if p.Pos != (Position{X: 2, Y: 1}) {
		t.Errorf("expected (2,1), got (%d,%d)", p.Pos.X, p.Pos.Y)
	}
	if !w.IsPassable(1, 1) || !w.InBounds(p.Pos.X, p.Pos.Y) {
		t.Error("completed move must land on an in-bounds passable tile")
	}
}

func TestWorld_Move_RejectedIntoBlockedCell(t *testing.T) {
	w := makeWorld(8, 8)
	p, _ := w.SpawnPlayer(0, 0)

	// Шаг за границу карты
	w.ApplyCommand(Command{Type: CommandMove, Entity: p.ID, Dir: DirUp})
	if p.Player.Moving {
		t.Error("out-of-bounds move must be silently dropped")
	}
	if p.Facing != DirUp {
		t.Error("facing must update even for a rejected move")
	}

	// Шаг в дерево
	w.PlaceTree(Position{X: 1, Y: 0}, 2)
	w.ApplyCommand(Command{Type: CommandMove, Entity: p.ID, Dir: DirRight})
	if p.Player.Moving {
		t.Error("move into a tree must be silently dropped")
	}
}

func TestWorld_Move_IgnoredWhileInProgress(t *testing.T) {
	w := makeWorld(8, 8)
	p, _ := w.SpawnPlayer(1, 1)

	w.ApplyCommand(Command{Type: CommandMove, Entity: p.ID, Dir: DirRight})
	target := p.Player.Target

	// Вторая команда до завершения первой - no-op
	w.ApplyCommand(Command{Type: CommandMove, Entity: p.ID, Dir: DirDown})
	if p.Player.Target != target {
		t.Error("a move command must be ignored while another move is in progress")
	}

	w.Step(w.MoveDuration)
	if p.Pos != (Position{X: 2, Y: 1}) {
		t.Errorf("expected (2,1), got (%d,%d)", p.Pos.X, p.Pos.Y)
	}
}

func TestWorld_AlterTile_RecordsDiff(t *testing.T) {
	w := makeWorld(8, 8)
	p, _ := w.SpawnPlayer(3, 3)
	p.Facing = DirRight

	w.ApplyCommand(Command{Type: CommandAlterTile, Entity: p.ID, Tile: TileStone})

	if w.Tiles[3][4] != TileStone {
		t.Error("tile in front of the player must be overwritten")
	}

	diffs := w.ConsumeTileDiffs()
	if len(diffs) != 1 {
		t.Fatalf("expected 1 tile diff, got %d", len(diffs))
	}
	if diffs[0].X != 4 || diffs[0].Y != 3 || diffs[0].Tile != TileStone {
		t.Errorf("wrong diff: %+v", diffs[0])
	}

	// Повторный забор - пусто
	if again := w.ConsumeTileDiffs(); len(again) != 0 {
		t.Error("diff buffer must be empty after consume")
	}
}

func TestWorld_Tree_LootGrantedExactlyOnce(t *testing.T) {
	w := makeWorld(8, 8)
	p, _ := w.SpawnPlayer(2, 2)
	p.Facing = DirRight
	tree := w.PlaceTree(Position{X: 3, Y: 2}, 3)

	interact := Command{Type: CommandInteract, Entity: p.ID}

	// d-1 ударов: дерево стоит, лута нет
	w.ApplyCommand(interact)
	w.ApplyCommand(interact)
	if w.Entity(tree.ID) == nil {
		t.Fatal("tree removed too early")
	}
	if p.Player.Inventory[ItemWood] != 0 {
		t.Error("loot granted before the tree fell")
	}

	// Последний удар: дерево исчезает, лут выдан
	w.ApplyCommand(interact)
	if w.Entity(tree.ID) != nil {
		t.Error("tree must be removed when durability reaches 0")
	}
	if !w.IsPassable(3, 2) {
		t.Error("cell must be cleared after the tree falls")
	}
	if p.Player.Inventory[ItemWood] != 1 {
		t.Errorf("expected exactly 1 wood, got %d", p.Player.Inventory[ItemWood])
	}

	// Взаимодействие с пустой клеткой после удаления лута не добавляет
	w.ApplyCommand(interact)
	if p.Player.Inventory[ItemWood] != 1 {
		t.Error("no double-grant after removal")
	}
}

func TestWorld_Tree_Regrowth(t *testing.T) {
	w := makeWorld(8, 8)
	w.RegrowDelay = 100 * time.Millisecond
	p, _ := w.SpawnPlayer(2, 2)
	p.Facing = DirRight
	w.PlaceTree(Position{X: 3, Y: 2}, 1)

	w.ApplyCommand(Command{Type: CommandInteract, Entity: p.ID})
	if !w.IsPassable(3, 2) {
		t.Fatal("cell must be free right after chopping")
	}

	w.Step(w.RegrowDelay)

	if w.IsPassable(3, 2) {
		t.Error("a fresh tree must regrow after the delay")
	}
	if len(w.Trees()) != 1 {
		t.Errorf("expected 1 tree after regrowth, got %d", len(w.Trees()))
	}
}

func TestWorld_Chest_DistinctUnlockers(t *testing.T) {
	w := makeWorld(8, 8)

	// Сундук на (3,2), оба игрока смотрят на него
	chest := w.PlaceChest(Position{X: 3, Y: 2}, 2)
	a, _ := w.SpawnPlayer(2, 2)
	a.Facing = DirRight
	b, _ := w.SpawnPlayer(4, 2)
	b.Facing = DirLeft

	// A взаимодействует: 1/2, не открыт
	w.ApplyCommand(Command{Type: CommandInteract, Entity: a.ID})
	if chest.Chest.Opened {
		t.Fatal("chest opened after a single unlocker")
	}
	if len(chest.Chest.UnlockedBy) != 1 {
		t.Errorf("expected 1 unlocker, got %d", len(chest.Chest.UnlockedBy))
	}

	// A повторно: все еще 1/2
	w.ApplyCommand(Command{Type: CommandInteract, Entity: a.ID})
	if len(chest.Chest.UnlockedBy) != 1 {
		t.Error("repeat interaction by a counted entity must not change state")
	}

	// B взаимодействует: 2/2, открыт
	w.ApplyCommand(Command{Type: CommandInteract, Entity: b.ID})
	if !chest.Chest.Opened {
		t.Error("chest must open on the k-th distinct unlocker")
	}

	// Дальнейшие взаимодействия ничего не меняют
	w.ApplyCommand(Command{Type: CommandInteract, Entity: a.ID})
	if len(chest.Chest.UnlockedBy) != 2 {
		t.Error("opened chest must ignore further interactions")
	}
}

func TestWorld_Communicate_Cooldown(t *testing.T) {
	w := makeWorld(8, 8)
	p, _ := w.SpawnPlayer(1, 1)

	w.ApplyCommand(Command{Type: CommandCommunicate, Entity: p.ID, Sound: "hello"})
	w.ApplyCommand(Command{Type: CommandCommunicate, Entity: p.ID, Sound: "spam"})

	sounds := w.ConsumeSounds()
	if len(sounds) != 1 {
		t.Fatalf("cooldown must swallow the second sound, got %d", len(sounds))
	}
	if sounds[0].Sound != "hello" || sounds[0].Entity != p.ID {
		t.Errorf("wrong sound event: %+v", sounds[0])
	}

	// После кулдауна можно снова
	w.Step(w.SoundCooldown)
	w.ApplyCommand(Command{Type: CommandCommunicate, Entity: p.ID, Sound: "again"})
	if len(w.ConsumeSounds()) != 1 {
		t.Error("sound must pass after the cooldown expires")
	}
}

func TestWorld_Deterministic(t *testing.T) {
	// Одинаковая последовательность команд и тиков дает одинаковый мир.
	run := func() Position {
		w := makeWorld(8, 8)
		p, _ := w.SpawnPlayer(1, 1)
		cmds := []Command{
			{Type: CommandMove, Entity: p.ID, Dir: DirRight},
			{Type: CommandMove, Entity: p.ID, Dir: DirDown},
			{Type: CommandAlterTile, Entity: p.ID, Tile: TileSand},
		}
		for _, c := range cmds {
			w.ApplyCommand(c)
			w.Step(w.MoveDuration)
		}
		return p.Pos
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("same input must produce the same state: %+v vs %+v", first, second)
	}
}

func TestWorld_ApplyCommand_UnknownEntity(t *testing.T) {
	w := makeWorld(4, 4)
	err := w.ApplyCommand(Command{Type: CommandMove, Entity: 7, Dir: DirUp})
	if err != ErrUnknownEntity {
		t.Errorf("expected ErrUnknownEntity, got %v", err)
	}
}
