// Package metrics содержит Prometheus-метрики бота.
// Метрики регистрируются в глобальном реестре и отдаются на /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Completions — засчитанные отметки по сложности привычки.
var Completions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitbot",
	Name:      "completions_total",
	Help:      "Засчитанные отметки привычек по сложности.",
}, []string{"difficulty"})

// PointsAwarded — начисленные очки: completion или milestone.
var PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitbot",
	Name:      "points_awarded_total",
	Help:      "Начисленные очки по виду начисления.",
}, []string{"kind"})

// Milestones — достигнутые рубежи серий.
var Milestones = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitbot",
	Name:      "milestones_total",
	Help:      "Достигнутые рубежи серий по длине в днях.",
}, []string{"days"})

// RemindersSent — отправленные уведомления: reminder или lapsed.
var RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitbot",
	Name:      "reminders_sent_total",
	Help:      "Отправленные напоминания и уведомления о потере серии.",
}, []string{"kind"})

// StreakCurrent — распределение текущей серии в момент отметки.
var StreakCurrent = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "habitbot",
	Name:      "streak_current",
	Help:      "Текущая серия после засчитанной отметки.",
	Buckets:   []float64{1, 3, 7, 14, 30, 60, 90, 180, 365},
})

// Виды начислений
const (
	KindCompletion = "completion"
	KindMilestone  = "milestone"

	KindReminder = "reminder"
	KindLapsed   = "lapsed"
)

// ObserveCompletion записывает засчитанную отметку.
func ObserveCompletion(difficulty string, current int) {
	Completions.WithLabelValues(difficulty).Inc()
	StreakCurrent.Observe(float64(current))
}

// ObservePoints записывает начисление очков. Нулевые суммы пропускаются.
func ObservePoints(kind string, amount int64) {
	if amount <= 0 {
		return
	}
	PointsAwarded.WithLabelValues(kind).Add(float64(amount))
}

// ObserveMilestone записывает достигнутый рубеж.
func ObserveMilestone(days int) {
	Milestones.WithLabelValues(strconv.Itoa(days)).Inc()
}
