package domain

// TileType - тип клетки ландшафта.
type TileType uint8

const (
	TileGrass TileType = iota
	TileSand
	TileDirt
	TileStone
	TileWater

	tileCount
)

// ValidTile проверяет, что значение входит в список известных типов.
func ValidTile(v uint8) bool {
	return v < uint8(tileCount)
}

// Walkable возвращает true, если по клетке такого типа можно ходить.
// Камень и вода непроходимы независимо от объектов на клетке.
func (t TileType) Walkable() bool {
	return t == TileGrass || t == TileSand || t == TileDirt
}

var tileNames = map[TileType]string{
	TileGrass: "grass",
	TileSand:  "sand",
	TileDirt:  "dirt",
	TileStone: "stone",
	TileWater: "water",
}

func (t TileType) String() string {
	if name, ok := tileNames[t]; ok {
		return name
	}
	return "unknown"
}

// Direction - одно из четырех направлений. Диагоналей в мире нет.
type Direction uint8

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

// ValidDirection проверяет сырое значение с транспорта.
func ValidDirection(v int) bool {
	return v >= int(DirUp) && v <= int(DirLeft)
}

// Delta возвращает смещение клетки для направления.
// Y растет вниз (как индекс строки карты).
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirRight:
		return 1, 0
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	}
	return "unknown"
}

// ItemType - тип предмета в инвентаре игрока.
type ItemType string

const (
	ItemWood ItemType = "wood"
	ItemGold ItemType = "gold"
)

// Weather - глобальный флаг окружения. Отправляется клиенту в world-init.
type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
)
