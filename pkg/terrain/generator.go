package terrain

import (
	"math/rand"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
)

// Константы генерации
const (
	DefaultWidth  = 64
	DefaultHeight = 64

	lakeCount    = 3
	outcropCount = 4
	sandRingPass = true

	treeDensity  = 0.04 // доля проходимых клеток под деревья
	chestDensity = 0.006
)

// Generate создает сетку тайлов: трава как основа, озера, каменные
// выходы и песчаная кромка вокруг воды. Чистая функция от rng:
// одинаковый сид дает одинаковую карту.
func Generate(width, height int, rng *rand.Rand) [][]domain.TileType {
	tiles := make([][]domain.TileType, height)
	for y := 0; y < height; y++ {
		tiles[y] = make([]domain.TileType, width)
		for x := 0; x < width; x++ {
			tiles[y][x] = domain.TileGrass
		}
	}

	// Озера: случайные кляксы из воды
	for i := 0; i < lakeCount; i++ {
		carveBlob(tiles, rng, domain.TileWater, 6+rng.Intn(10))
	}

	// Каменные выходы поменьше
	for i := 0; i < outcropCount; i++ {
		carveBlob(tiles, rng, domain.TileStone, 3+rng.Intn(5))
	}

	// Песок по кромке воды
	if sandRingPass {
		ringSand(tiles)
	}

	// Немного протоптанных тропинок
	for i := 0; i < 2; i++ {
		carveTrail(tiles, rng)
	}

	return tiles
}

// RollWeather выбирает флаг окружения для свежего мира.
func RollWeather(rng *rand.Rand) domain.Weather {
	if rng.Float32() < 0.25 {
		return domain.WeatherRain
	}
	return domain.WeatherClear
}

// Placement - объект, который нужно вставить в мир после генерации.
type Placement struct {
	Kind       domain.EntityKind
	Pos        domain.Position
	Durability int // деревья
	Required   int // сундуки
}

// PlaceObjects выбирает клетки под деревья и сундуки. Объекты всегда
// генерируются заново, даже если сетка тайлов загружена из снапшота.
func PlaceObjects(tiles [][]domain.TileType, rng *rand.Rand) []Placement {
	height := len(tiles)
	if height == 0 {
		return nil
	}
	width := len(tiles[0])

	var placements []Placement
	taken := make(map[int]bool)

	walkable := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if tiles[y][x].Walkable() {
				walkable++
			}
		}
	}

	trees := int(float64(walkable) * treeDensity)
	chests := int(float64(walkable) * chestDensity)

	pick := func() (domain.Position, bool) {
		// Ограниченное число попыток: на карте из воды объектов не будет
		for i := 0; i < walkable; i++ {
			x := rng.Intn(width)
			y := rng.Intn(height)
			idx := y*width + x
			if tiles[y][x].Walkable() && !taken[idx] {
				taken[idx] = true
				return domain.Position{X: x, Y: y}, true
			}
		}
		return domain.Position{}, false
	}

	for i := 0; i < trees; i++ {
		pos, ok := pick()
		if !ok {
			break
		}
		placements = append(placements, Placement{
			Kind:       domain.KindTree,
			Pos:        pos,
			Durability: 1 + rng.Intn(4),
		})
	}

	for i := 0; i < chests; i++ {
		pos, ok := pick()
		if !ok {
			break
		}
		placements = append(placements, Placement{
			Kind:     domain.KindChest,
			Pos:      pos,
			Required: 2 + rng.Intn(2),
		})
	}

	return placements
}

// --- Вспомогательные функции ---

// carveBlob закрашивает кляксу случайным блужданием от случайного центра.
func carveBlob(tiles [][]domain.TileType, rng *rand.Rand, t domain.TileType, size int) {
	height := len(tiles)
	width := len(tiles[0])

	x := rng.Intn(width)
	y := rng.Intn(height)

	for i := 0; i < size*size; i++ {
		if x >= 0 && x < width && y >= 0 && y < height {
			tiles[y][x] = t
		}
		switch rng.Intn(4) {
		case 0:
			x++
		case 1:
			x--
		case 2:
			y++
		case 3:
			y--
		}
	}
}

// carveTrail протаптывает грунтовую тропинку через всю карту.
func carveTrail(tiles [][]domain.TileType, rng *rand.Rand) {
	height := len(tiles)
	width := len(tiles[0])

	y := rng.Intn(height)
	for x := 0; x < width; x++ {
		if tiles[y][x] == domain.TileGrass {
			tiles[y][x] = domain.TileDirt
		}
		if rng.Intn(3) == 0 {
			if rng.Intn(2) == 0 && y > 0 {
				y--
			} else if y < height-1 {
				y++
			}
		}
	}
}

// ringSand превращает траву, граничащую с водой, в песок.
func ringSand(tiles [][]domain.TileType) {
	height := len(tiles)
	width := len(tiles[0])

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if tiles[y][x] != domain.TileGrass {
				continue
			}
			if touchesWater(tiles, x, y) {
				tiles[y][x] = domain.TileSand
			}
		}
	}
}

func touchesWater(tiles [][]domain.TileType, x, y int) bool {
	height := len(tiles)
	width := len(tiles[0])

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			if tiles[ny][nx] == domain.TileWater {
				return true
			}
		}
	}
	return false
}
