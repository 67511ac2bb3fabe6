package session

import "errors"

var (
	// ErrEmptyInput - после очистки от повторов не осталось нового текста.
	// Состояние не меняется, пользователя нужно попросить сказать еще раз.
	ErrEmptyInput = errors.New("no new input after cleaning")

	// ErrInvalidTransition - операция недопустима в текущем состоянии сессии
	// (например, ввод после завершения истории).
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrEmptySegment - генерация вернула пустой фрагмент истории.
	ErrEmptySegment = errors.New("generated segment is empty")

	// ErrSessionNotFound - сессия не найдена в хранилище (или истек TTL).
	ErrSessionNotFound = errors.New("session not found")
)
