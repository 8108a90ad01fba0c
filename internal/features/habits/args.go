// Package habits — args.go разбирает аргументы чат-команд.
// Аргументы бывают позиционными ("Бег", "5") и именованными ("интервал=2").
package habits

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// commandArgs — разобранные аргументы команды.
type commandArgs struct {
	positional []string
	named      map[string]string
}

// Синонимы именованных аргументов
var argAliases = map[string]string{
	"интервал":   "interval",
	"interval":   "interval",
	"сложность":  "difficulty",
	"difficulty": "difficulty",
	"тип":        "type",
	"type":       "type",
	"дата":       "date",
	"date":       "date",
}

// parseArgs делит аргументы на позиционные и именованные.
// Неизвестный ключ вида "foo=bar" остаётся позиционным: это может быть часть заметки.
func parseArgs(args []string) commandArgs {
	out := commandArgs{named: make(map[string]string)}
	for _, a := range args {
		if k, v, ok := strings.Cut(a, "="); ok {
			if key, known := argAliases[strings.ToLower(k)]; known {
				out.named[key] = v
				continue
			}
		}
		out.positional = append(out.positional, a)
	}
	return out
}

// parseHabitInput собирает HabitInput из аргументов "!новая".
func parseHabitInput(args []string) (HabitInput, error) {
	ca := parseArgs(args)
	in := HabitInput{
		Name:       strings.Join(ca.positional, " "),
		Difficulty: ca.named["difficulty"],
		InputType:  ca.named["type"],
	}
	if raw, ok := ca.named["interval"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("интервал должен быть числом: %q", raw)
		}
		in.IntervalDays = n
	}
	return in, nil
}

// parseHabitID разбирает id привычки ("3" или "#3").
func parseHabitID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный id привычки: %q", s)
	}
	return id, nil
}

// parseValue разбирает числовое значение отметки. Допускается запятая: "2,5".
func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("значение должно быть числом: %q", s)
	}
	return v, nil
}

// parseDate разбирает дату ГГГГ-ММ-ДД в часовом поясе приложения.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("дата должна быть в формате ГГГГ-ММ-ДД: %q", s)
	}
	return t, nil
}
