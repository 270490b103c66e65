package main

import (
	"fmt"
	"os"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
	"github.com/DavidKirkpatrick95/Alterrain/internal/infrastructure/storage"
)

var tileGlyphs = map[domain.TileType]rune{
	domain.TileGrass: '.',
	domain.TileSand:  ',',
	domain.TileDirt:  ':',
	domain.TileStone: '#',
	domain.TileWater: '~',
}

func main() {
	if len(os.Args) < 3 {
		printHelp()
		return
	}

	store, err := storage.OpenBoltStore(os.Args[1])
	if err != nil {
		fmt.Printf("Cannot open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	tiles, err := store.LoadTiles(os.Args[2])
	if err != nil {
		fmt.Printf("Cannot load snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot %q: %dx%d\n\n", os.Args[2], len(tiles[0]), len(tiles))
	for _, row := range tiles {
		line := make([]rune, 0, len(row))
		for _, t := range row {
			g, ok := tileGlyphs[t]
			if !ok {
				g = '?'
			}
			line = append(line, g)
		}
		fmt.Println(string(line))
	}
}

func printHelp() {
	fmt.Println(`Snapshot Dump - печать сетки тайлов из снапшота
Usage:
  snapdump <world.db> <snapshot_id>

Legend:
  . grass   , sand   : dirt   # stone   ~ water`)
}
