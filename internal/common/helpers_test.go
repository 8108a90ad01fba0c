package common

import (
	"testing"
	"time"
)

func TestPluralizePoints(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "очков"},
		{1, "очко"},
		{3, "очка"},
		{5, "очков"},
		{11, "очков"},
		{12, "очков"},
		{21, "очко"},
		{22, "очка"},
		{-1, "очко"},
	}
	for _, tt := range tests {
		if got := PluralizePoints(tt.n); got != tt.want {
			t.Errorf("PluralizePoints(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPluralizeDays(t *testing.T) {
	if got := PluralizeDays(1); got != "день" {
		t.Errorf("PluralizeDays(1) = %q", got)
	}
	if got := PluralizeDays(4); got != "дня" {
		t.Errorf("PluralizeDays(4) = %q", got)
	}
	if got := PluralizeDays(14); got != "дней" {
		t.Errorf("PluralizeDays(14) = %q", got)
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatBalance(150); got != "150 очков" {
		t.Errorf("FormatBalance(150) = %q", got)
	}
	if got := FormatPointsAmount(1); got != "+1 очко" {
		t.Errorf("FormatPointsAmount(1) = %q", got)
	}
	if got := FormatPointsAmount(-50); got != "-50 очков" {
		t.Errorf("FormatPointsAmount(-50) = %q", got)
	}
	if got := FormatNumber(2350); got != "2 350" {
		t.Errorf("FormatNumber(2350) = %q", got)
	}
	if got := FormatNumber(1000005); got != "1 000 005" {
		t.Errorf("FormatNumber(1000005) = %q", got)
	}
	if got := FormatValue(2.5); got != "2.5" {
		t.Errorf("FormatValue(2.5) = %q", got)
	}
}

func TestStartOfDayKeepsLocation(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	in := time.Date(2026, 3, 29, 23, 59, 0, 0, msk)
	got := StartOfDay(in)
	if got.Day() != 29 || got.Hour() != 0 || got.Location() != msk {
		t.Fatalf("StartOfDay(%v) = %v", in, got)
	}
}
