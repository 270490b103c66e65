package domain

import "fmt"

// EntityID - упакованный идентификатор: Kind (старшие биты) + Index.
// Индексы монотонны в пределах вида и никогда не переиспользуются за
// время работы сервера. KindPlayer равен нулю, поэтому ID игроков -
// это просто 1, 2, 3... независимо от числа сгенерированных объектов.
type EntityID int64

// Конфигурация битов
const (
	bitsIndex = 40

	shiftKind = bitsIndex
	maskIndex = (1 << bitsIndex) - 1 // 0x000000FFFFFFFFFF
)

// PackEntityID создает ID из компонентов
func PackEntityID(kind EntityKind, index int64) EntityID {
	return EntityID(int64(kind)<<shiftKind | index&maskIndex)
}

// EntityKind извлекает вид сущности из ID.
func (id EntityID) EntityKind() EntityKind {
	return EntityKind(id >> shiftKind)
}

// Index извлекает монотонный индекс внутри вида.
func (id EntityID) Index() int64 {
	return int64(id) & maskIndex
}

// String для логов: [KIND:Index]
func (id EntityID) String() string {
	return fmt.Sprintf("[%s:%d]", id.EntityKind(), id.Index())
}
