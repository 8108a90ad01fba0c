package habits

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"serotonyl.ru/habit-bot/internal/common"
)

func TestDefaultProfiles(t *testing.T) {
	table := DefaultProfiles()
	if table.Default() != DifficultyDetermined {
		t.Fatalf("Default() = %q", table.Default())
	}
	if got := table.Resolve("legendary"); got.Value != DifficultyDetermined {
		t.Fatalf("Resolve(unknown) = %q, want determined", got.Value)
	}
	hero := table.Resolve(DifficultyHero)
	if !hero.StrictMissedCap || hero.MaxMissedIntervals != 1 || hero.GraceMultiplier != 3 {
		t.Fatalf("hero profile = %+v", hero)
	}
	if table.Resolve(DifficultyCasual).StrictMissedCap {
		t.Fatal("casual must not use the strict cap")
	}

	list := table.List()
	if len(list) != 3 || list[0].Value != DifficultyCasual || list[2].Value != DifficultyHero {
		t.Fatalf("List() = %+v", list)
	}
}

func TestLoadProfilesBuiltin(t *testing.T) {
	table, err := LoadProfiles("", "")
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if table.Default() != DifficultyDetermined {
		t.Fatalf("Default() = %q", table.Default())
	}

	table, err = LoadProfiles("", "Hero")
	if err != nil {
		t.Fatalf("LoadProfiles(hero): %v", err)
	}
	if table.Default() != DifficultyHero {
		t.Fatalf("Default() = %q, want hero", table.Default())
	}

	_, err = LoadProfiles("", "legendary")
	if !errors.Is(err, common.ErrUnknownDifficulty) {
		t.Fatalf("LoadProfiles(legendary) err = %v, want ErrUnknownDifficulty", err)
	}
}

func writeProfiles(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write profiles: %v", err)
	}
	return path
}

func TestLoadProfilesFromTOML(t *testing.T) {
	path := writeProfiles(t, `
default = "steady"

[[profiles]]
value = "steady"
label = "Ровный"
grace_multiplier = 2.5
points_multiplier = 1.2
max_missed_intervals = 2

[[profiles]]
value = "spartan"
label = "Спартанец"
grace_multiplier = 1
points_multiplier = 3
max_missed_intervals = 0
strict_missed_cap = true
`)

	table, err := LoadProfiles(path, "")
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if table.Default() != "steady" {
		t.Fatalf("Default() = %q, want steady", table.Default())
	}
	sp, ok := table.Lookup("spartan")
	if !ok || !sp.StrictMissedCap || sp.PointsMultiplier != 3 || sp.Label != "Спартанец" {
		t.Fatalf("spartan = %+v, %v", sp, ok)
	}

	// Переменная окружения важнее поля default в файле
	table, err = LoadProfiles(path, "spartan")
	if err != nil {
		t.Fatalf("LoadProfiles override: %v", err)
	}
	if table.Default() != "spartan" {
		t.Fatalf("Default() = %q, want spartan", table.Default())
	}
}

func TestLoadProfilesRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", `
[[profiles]]
value = "a"
grace_multiplier = 2
grace = 3
`},
		{"duplicate", `
[[profiles]]
value = "a"
grace_multiplier = 2
[[profiles]]
value = "A"
grace_multiplier = 2
`},
		{"grace below one", `
[[profiles]]
value = "a"
grace_multiplier = 0.5
`},
		{"missing default", `
default = "b"
[[profiles]]
value = "a"
grace_multiplier = 2
`},
		{"empty", ``},
		{"syntax", `[[profiles]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadProfiles(writeProfiles(t, tt.body), ""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
