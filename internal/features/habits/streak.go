// Package habits — streak.go считает серии по истории отметок.
// Расчёт чистый: на вход привычка, таблица профилей и текущее время, на выход StreakResult.
package habits

import (
	"sort"
	"strings"
	"time"
)

// ComputeStreak считает текущую и самую длинную серию привычки.
//
// Алгоритм:
//  1. Профиль сложности берётся из таблицы (неизвестный — профиль по умолчанию)
//  2. Из отметок остаются только валидные, по возрастанию даты
//  3. Если последняя отметка дальше допустимого разрыва от now — текущая серия 0
//  4. Иначе идём от последней отметки назад, пока разрыв между соседними <= допустимого
//  5. Самая длинная серия ищется проходом вперёд по всей истории
func ComputeStreak(h *Habit, profiles *ProfileTable, now time.Time) StreakResult {
	profile := profiles.Resolve(h.Difficulty)
	result := StreakResult{
		Difficulty:       profile.Value,
		PointsMultiplier: profile.PointsMultiplier,
	}

	entries := validEntries(h)
	if len(entries) == 0 {
		return result
	}

	interval := h.Interval()
	allowedGap := float64(interval) * profile.GraceMultiplier

	last := entries[len(entries)-1].Date
	result.Total = len(entries)
	result.LastActivity = &last

	// Текущая серия
	if float64(daysBetween(now, last)) <= allowedGap {
		current, missed := 1, 0
		for i := len(entries) - 1; i > 0; i-- {
			gap := daysBetween(entries[i].Date, entries[i-1].Date)
			if float64(gap) > allowedGap {
				break
			}
			pairMissed := missedIntervals(gap, interval)
			// Строгий лимит: пара, на которой лимит превышен, в серию не входит
			if profile.StrictMissedCap && missed+pairMissed > profile.MaxMissedIntervals {
				break
			}
			missed += pairMissed
			current++
		}
		result.Current = current
		result.MissedIntervals = missed
	}

	// Самая длинная серия
	longest, run, runMissed := 1, 1, 0
	for i := 1; i < len(entries); i++ {
		gap := daysBetween(entries[i].Date, entries[i-1].Date)
		pairMissed := missedIntervals(gap, interval)
		switch {
		case float64(gap) > allowedGap:
			run, runMissed = 1, 0
		case profile.StrictMissedCap && runMissed+pairMissed > profile.MaxMissedIntervals:
			run, runMissed = 1, 0
		default:
			run++
			runMissed += pairMissed
		}
		if run > longest {
			longest = run
		}
	}
	// Обратный проход при строгом лимите может найти хвост длиннее любого
	// прямого отрезка, поэтому longest не меньше current
	if result.Current > longest {
		longest = result.Current
	}
	result.Longest = longest

	return result
}

// IsValidEntry проверяет, засчитывается ли отметка в серию.
// Засчитывается значение больше нуля при любом типе, для custom также непустая заметка.
// Отметка без даты не считается.
func IsValidEntry(inputType InputType, e ActivityEntry) bool {
	if e.Date.IsZero() {
		return false
	}
	return (inputType == InputCustom && strings.TrimSpace(e.Notes) != "") || e.Value > 0
}

// validEntries возвращает валидные отметки по возрастанию даты.
// Исходный срез привычки не меняется.
func validEntries(h *Habit) []ActivityEntry {
	out := make([]ActivityEntry, 0, len(h.Activity))
	for _, e := range h.Activity {
		if IsValidEntry(h.InputType, e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return calendarDay(out[i].Date).Before(calendarDay(out[j].Date))
	})
	return out
}

// missedIntervals — сколько целых интервалов пропущено внутри разрыва.
func missedIntervals(gap, interval int) int {
	if gap <= interval {
		return 0
	}
	return (gap - interval) / interval
}

// daysBetween — разница в календарных днях (всегда >= 0).
// Каждая дата берётся в своём часовом поясе, поэтому DATE из PostgreSQL
// (полночь UTC) и локальное "сейчас" сравниваются по дню, а не по часам.
func daysBetween(a, b time.Time) int {
	d := int(calendarDay(a).Sub(calendarDay(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

// calendarDay переносит календарную дату в полночь UTC.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
