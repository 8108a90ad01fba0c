// Package habits — rewards.go содержит расчёт очков за выполнение и рубежи серии.
package habits

import (
	"fmt"
	"math"
	"sort"

	"serotonyl.ru/habit-bot/internal/common"
	"serotonyl.ru/habit-bot/internal/features/economy"
)

// Типы транзакций в журнале очков
const (
	TxTypeHabitCompletion = economy.TxTypeHabitCompletion
	TxTypeStreakMilestone = economy.TxTypeStreakMilestone
)

// Milestone — длина серии, за которую один раз начисляется бонус.
type Milestone struct {
	Days  int
	Bonus int64
}

// DefaultMilestones — рубежи по умолчанию.
var DefaultMilestones = []Milestone{
	{Days: 7, Bonus: 50},
	{Days: 30, Bonus: 200},
	{Days: 90, Bonus: 500},
	{Days: 180, Bonus: 1000},
	{Days: 365, Bonus: 2500},
}

// RewardRules — правила начисления очков.
type RewardRules struct {
	BasePoints      int64 // За любое выполнение
	StreakBonusBase int64 // За каждую полную неделю текущей серии
	Milestones      []Milestone
}

// DefaultRewardRules возвращает правила: 10 очков, +5 за неделю, стандартные рубежи.
func DefaultRewardRules() RewardRules {
	return RewardRules{BasePoints: 10, StreakBonusBase: 5, Milestones: DefaultMilestones}
}

// CompletionPoints считает очки за выполнение (без бонуса за рубеж).
//
//	floor((BasePoints + floor(Current/7) * StreakBonusBase) * PointsMultiplier)
//
// Пример: серия 15 дней, hero (x2) → (10 + 2*5) * 2 = 40
func (r RewardRules) CompletionPoints(result StreakResult) int64 {
	weeks := int64(result.Current / 7)
	raw := float64(r.BasePoints+weeks*r.StreakBonusBase) * result.PointsMultiplier
	return int64(math.Floor(raw))
}

// MilestoneFor ищет рубеж, точно совпадающий с длиной серии.
func (r RewardRules) MilestoneFor(current int) (Milestone, bool) {
	for _, m := range r.Milestones {
		if m.Days == current {
			return m, true
		}
	}
	return Milestone{}, false
}

// NextMilestone возвращает ближайший рубеж строго больше current.
func (r RewardRules) NextMilestone(current int) (Milestone, bool) {
	sorted := make([]Milestone, len(r.Milestones))
	copy(sorted, r.Milestones)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Days < sorted[j].Days })
	for _, m := range sorted {
		if m.Days > current {
			return m, true
		}
	}
	return Milestone{}, false
}

// FormatCompletionDescription создаёт описание транзакции за выполнение.
// Пример: "Привычка «Бег»: серия 5 дней"
func FormatCompletionDescription(habitName string, current int) string {
	return fmt.Sprintf("Привычка «%s»: серия %d %s", habitName, current, common.PluralizeDays(current))
}

// FormatMilestoneDescription создаёт описание транзакции за рубеж.
func FormatMilestoneDescription(habitName string, days int) string {
	return fmt.Sprintf("Рубеж %d %s: «%s»", days, common.PluralizeDays(days), habitName)
}
