// Package habits — difficulty.go описывает профили сложности.
// Профиль задаёт, насколько длинный перерыв между отметками ещё не рвёт серию,
// и во сколько раз умножаются очки за выполнение.
package habits

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"serotonyl.ru/habit-bot/internal/common"
)

// DifficultyProfile — параметры одного уровня сложности.
type DifficultyProfile struct {
	Value Difficulty `toml:"value"`
	Label string     `toml:"label"`
	// Допустимый разрыв = интервал * GraceMultiplier
	GraceMultiplier  float64 `toml:"grace_multiplier"`
	PointsMultiplier float64 `toml:"points_multiplier"`
	// Сколько пропущенных интервалов терпит серия
	MaxMissedIntervals int `toml:"max_missed_intervals"`
	// Если true, серия обрывается, как только пропусков больше MaxMissedIntervals.
	// Включено только у hero: щедрый grace, но жёсткий лимит пропусков.
	StrictMissedCap bool `toml:"strict_missed_cap"`
}

// ProfileTable — таблица профилей с явным профилем по умолчанию.
type ProfileTable struct {
	profiles map[Difficulty]DifficultyProfile
	order    []Difficulty
	def      Difficulty
}

// DefaultProfiles возвращает встроенную таблицу: casual, determined, hero.
func DefaultProfiles() *ProfileTable {
	t, _ := NewProfileTable([]DifficultyProfile{
		{Value: DifficultyCasual, Label: "Спокойный", GraceMultiplier: 3, PointsMultiplier: 1.0, MaxMissedIntervals: 3},
		{Value: DifficultyDetermined, Label: "Целеустремлённый", GraceMultiplier: 2, PointsMultiplier: 1.5, MaxMissedIntervals: 1},
		{Value: DifficultyHero, Label: "Герой", GraceMultiplier: 3, PointsMultiplier: 2.0, MaxMissedIntervals: 1, StrictMissedCap: true},
	}, DefaultDifficulty)
	return t
}

// NewProfileTable собирает таблицу и проверяет её.
// Профиль по умолчанию обязан присутствовать в списке.
func NewProfileTable(profiles []DifficultyProfile, def Difficulty) (*ProfileTable, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("таблица сложностей пуста")
	}
	t := &ProfileTable{profiles: make(map[Difficulty]DifficultyProfile, len(profiles)), def: def}
	for _, p := range profiles {
		p.Value = Difficulty(strings.ToLower(strings.TrimSpace(string(p.Value))))
		if p.Value == "" {
			return nil, fmt.Errorf("профиль без value")
		}
		if _, dup := t.profiles[p.Value]; dup {
			return nil, fmt.Errorf("профиль %q задан дважды", p.Value)
		}
		if p.GraceMultiplier < 1 {
			return nil, fmt.Errorf("профиль %q: grace_multiplier должен быть >= 1", p.Value)
		}
		if p.PointsMultiplier < 0 {
			return nil, fmt.Errorf("профиль %q: points_multiplier не может быть отрицательным", p.Value)
		}
		if p.MaxMissedIntervals < 0 {
			return nil, fmt.Errorf("профиль %q: max_missed_intervals не может быть отрицательным", p.Value)
		}
		if p.Label == "" {
			p.Label = string(p.Value)
		}
		t.profiles[p.Value] = p
		t.order = append(t.order, p.Value)
	}
	if _, ok := t.profiles[def]; !ok {
		return nil, fmt.Errorf("%w: профиль по умолчанию %q", common.ErrUnknownDifficulty, def)
	}
	return t, nil
}

// profilesFile — формат TOML-файла HABITS_PROFILES_FILE.
type profilesFile struct {
	Default  string              `toml:"default"`
	Profiles []DifficultyProfile `toml:"profiles"`
}

// LoadProfiles читает таблицу из TOML. Пустой путь — встроенная таблица.
// defaultOverride (HABITS_DEFAULT_DIFFICULTY) имеет приоритет над полем default в файле.
func LoadProfiles(path, defaultOverride string) (*ProfileTable, error) {
	def := Difficulty(strings.ToLower(strings.TrimSpace(defaultOverride)))

	if strings.TrimSpace(path) == "" {
		builtin := DefaultProfiles()
		if def == "" || def == builtin.def {
			return builtin, nil
		}
		return NewProfileTable(builtin.List(), def)
	}

	var f profilesFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("неизвестные ключи в %s: %v", path, undecoded)
	}
	if def == "" {
		def = Difficulty(strings.ToLower(strings.TrimSpace(f.Default)))
	}
	if def == "" {
		def = DefaultDifficulty
	}
	return NewProfileTable(f.Profiles, def)
}

// Resolve возвращает профиль по значению; неизвестное значение — профиль по умолчанию.
func (t *ProfileTable) Resolve(d Difficulty) DifficultyProfile {
	if p, ok := t.profiles[d]; ok {
		return p
	}
	return t.profiles[t.def]
}

// Lookup возвращает профиль, только если он есть в таблице.
func (t *ProfileTable) Lookup(d Difficulty) (DifficultyProfile, bool) {
	p, ok := t.profiles[d]
	return p, ok
}

// Default возвращает значение профиля по умолчанию.
func (t *ProfileTable) Default() Difficulty {
	return t.def
}

// List возвращает профили в порядке объявления.
func (t *ProfileTable) List() []DifficultyProfile {
	out := make([]DifficultyProfile, 0, len(t.order))
	for _, d := range t.order {
		out = append(out, t.profiles[d])
	}
	return out
}
