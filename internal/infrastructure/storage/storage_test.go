package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
)

func sampleTiles() [][]domain.TileType {
	tiles := make([][]domain.TileType, 4)
	for y := range tiles {
		tiles[y] = make([]domain.TileType, 6)
		for x := range tiles[y] {
			tiles[y][x] = domain.TileType((x + y) % 5)
		}
	}
	return tiles
}

func TestTilesCodec_RoundTrip(t *testing.T) {
	want := sampleTiles()

	data, err := EncodeTiles(want)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := DecodeTiles(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("height mismatch: %d != %d", len(got), len(want))
	}
	for y := range want {
		for x := range want[y] {
			if got[y][x] != want[y][x] {
				t.Fatalf("tile (%d,%d) mismatch: %d != %d", x, y, got[y][x], want[y][x])
			}
		}
	}
}

func TestTilesCodec_RejectsGarbage(t *testing.T) {
	if _, err := DecodeTiles([]byte("definitely not a snapshot")); err == nil {
		t.Error("garbage must not decode")
	}

	// Валидный заголовок, но битое тело
	data, err := EncodeTiles(sampleTiles())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	data[len(data)-1] = 0xFF
	if _, err := DecodeTiles(data); err == nil {
		t.Error("unknown tile value must fail the decode")
	}
}

func TestBoltStore_SaveAndLoad(t *testing.T) {
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	want := sampleTiles()
	if err := store.SaveTiles("test-world", want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.LoadTiles("test-world")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 4 || len(got[0]) != 6 {
		t.Errorf("loaded grid is %dx%d, want 6x4", len(got[0]), len(got))
	}
	if got[2][3] != want[2][3] {
		t.Error("loaded tiles differ from saved tiles")
	}
}

func TestBoltStore_MissingSnapshot(t *testing.T) {
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	if _, err := store.LoadTiles("ghost"); err == nil {
		t.Error("missing snapshot must return an error")
	}
}

func TestJournal_RoundTrip(t *testing.T) {
	j := &Journal{Seed: 42, Started: 1700000000}
	j.Record(1, 1, 1, []byte(`{"dir":1}`))
	j.Record(3, 2, 4, nil)
	j.Record(7, 1, 3, []byte(`{"sound":"bell"}`))

	path, err := j.Save(t.TempDir())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadJournal(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Seed != 42 || loaded.Started != 1700000000 {
		t.Errorf("header mismatch: seed=%d started=%d", loaded.Seed, loaded.Started)
	}
	if len(loaded.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(loaded.Entries))
	}

	e := loaded.Entries[0]
	if e.Tick != 1 || e.Entity != 1 || e.Type != 1 || !bytes.Equal(e.Payload, []byte(`{"dir":1}`)) {
		t.Errorf("entry 0 mismatch: %+v", e)
	}
	if loaded.Entries[1].Payload != nil {
		t.Error("empty payload must stay empty")
	}
}
