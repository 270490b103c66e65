package domain

// CommandType - внутренний числовой идентификатор команды.
// Значения совпадают с полем "type" входящего конверта транспорта.
type CommandType uint8

const (
	CommandUnknown     CommandType = 0
	CommandMove        CommandType = 1
	CommandAlterTile   CommandType = 2
	CommandCommunicate CommandType = 3
	CommandInteract    CommandType = 4
)

var commandNames = map[CommandType]string{
	CommandMove:        "MOVE",
	CommandAlterTile:   "ALTER_TILE",
	CommandCommunicate: "COMMUNICATE",
	CommandInteract:    "INTERACT",
}

// ParseCommandType конвертирует сырое значение транспорта в CommandType.
func ParseCommandType(v int) CommandType {
	ct := CommandType(v)
	if _, ok := commandNames[ct]; ok {
		return ct
	}
	return CommandUnknown
}

// String реализует интерфейс Stringer (для логов)
func (c CommandType) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Command - неизменяемое описание одного намерения игрока.
// Это плоские данные, а не замыкание: применение к миру происходит
// в World.ApplyCommand, что делает команды сериализуемыми для реплея.
type Command struct {
	Type   CommandType
	Entity EntityID

	// Tick - тик, на котором команда попала в очередь.
	// Только для диагностики: порядок применения определяется прибытием.
	Tick uint64

	// Параметры по типу команды. Заполняется только релевантное поле.
	Dir   Direction // CommandMove
	Tile  TileType  // CommandAlterTile
	Sound string    // CommandCommunicate
}
