package domain

import "errors"

// Таксономия ошибок ядра. Ни одна из них не фатальна для цикла тиков:
// протокольные ошибки отбрасывают команду, рассинхронизация состояния
// логируется как no-op, исчерпание ресурсов обрабатывается вызывающим кодом.
var (
	// ErrNoSpaceAvailable - не нашлось проходимой клетки для спавна.
	ErrNoSpaceAvailable = errors.New("no passable spawn tile available")

	// ErrUnknownEntity - операция над несуществующей сущностью.
	ErrUnknownEntity = errors.New("unknown entity id")

	// ErrUnknownConnection - операция над неизвестным соединением.
	ErrUnknownConnection = errors.New("unknown connection id")

	// ErrUnknownCommand - входящая команда с нераспознанным типом.
	ErrUnknownCommand = errors.New("unknown command type")
)
