// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с временем.
package common

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// pluralize выбирает форму слова по правилам русского языка.
//
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → many (0, 5-20, 25-30, 100, ...)
func pluralize(n int64, one, few, many string) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizePoints возвращает правильную форму слова «очко» для числа n.
//
// Примеры:
//
//	PluralizePoints(1)  → "очко"
//	PluralizePoints(3)  → "очка"
//	PluralizePoints(5)  → "очков"
//	PluralizePoints(11) → "очков"
//	PluralizePoints(21) → "очко"
func PluralizePoints(n int64) string {
	return pluralize(n, "очко", "очка", "очков")
}

// FormatBalance форматирует баланс в читабельную строку.
// Пример: FormatBalance(150) → "150 очков"
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%d %s", balance, PluralizePoints(balance))
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
func PluralizeDays(n int) string {
	return pluralize(int64(n), "день", "дня", "дней")
}

// PluralizeTimes возвращает правильную форму слова «раз» (отметки).
func PluralizeTimes(n int) string {
	return pluralize(int64(n), "раз", "раза", "раз")
}

var (
	locMu sync.RWMutex
	loc   = time.UTC
)

// SetLocation задаёт часовой пояс, в котором считаются календарные дни.
// Вызывается один раз при старте из APP_TIMEZONE.
func SetLocation(l *time.Location) {
	if l == nil {
		return
	}
	locMu.Lock()
	loc = l
	locMu.Unlock()
}

// Location возвращает часовой пояс приложения.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return loc
}

// LocalTime возвращает текущее время в часовом поясе приложения.
func LocalTime() time.Time {
	return time.Now().In(Location())
}

// LocalDate возвращает только дату (без времени) в часовом поясе приложения.
func LocalDate() time.Time {
	return StartOfDay(LocalTime())
}

// StartOfDay обрезает время до полуночи в той же зоне.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Используется для отображения дат транзакций.
func FormatDateTime(t time.Time) string {
	return t.In(Location()).Format("02.01.2006 15:04")
}

// FormatDate форматирует календарную дату как "02.01.2006".
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}
