// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки экономики (очки)
var (
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrInsufficientBalance — списание больше текущего баланса
	ErrInsufficientBalance = errors.New("недостаточно очков")
)

// Ошибки привычек
var (
	// ErrHabitNotFound — привычка не найдена (или принадлежит другому пользователю)
	ErrHabitNotFound = errors.New("привычка не найдена")
	// ErrHabitNameInvalid — пустое или слишком длинное название
	ErrHabitNameInvalid = errors.New("название привычки должно быть от 1 до 64 символов")
	// ErrInvalidInterval — интервал вне диапазона 0..365 дней
	ErrInvalidInterval = errors.New("интервал должен быть от 0 до 365 дней")
	// ErrUnknownDifficulty — сложность, которой нет в таблице профилей
	ErrUnknownDifficulty = errors.New("неизвестная сложность")
	// ErrUnknownInputType — тип отметки не numeric и не custom
	ErrUnknownInputType = errors.New("тип отметки должен быть numeric или custom")
	// ErrTooManyHabits — достигнут лимит привычек на пользователя
	ErrTooManyHabits = errors.New("слишком много привычек")
	// ErrFutureDate — отметка на дату в будущем
	ErrFutureDate = errors.New("нельзя отмечать привычку на будущую дату")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
)
