package domain

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step возвращает соседнюю клетку в заданном направлении.
func (p Position) Step(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}
