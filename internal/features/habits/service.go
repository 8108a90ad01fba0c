// Package habits — service.go содержит бизнес-логику привычек:
// создание, отметки, начисление очков, напоминания.
package habits

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habit-bot/internal/common"
	"serotonyl.ru/habit-bot/internal/config"
	"serotonyl.ru/habit-bot/internal/metrics"
)

const (
	maxNameLength   = 64
	maxIntervalDays = 365
)

// Store — хранилище привычек. Реализуется Repository.
type Store interface {
	Create(ctx context.Context, h *Habit) (*Habit, error)
	CountActive(ctx context.Context, userID int64) (int, error)
	GetByID(ctx context.Context, userID, habitID int64) (*Habit, error)
	ListByUser(ctx context.Context, userID int64) ([]*Habit, error)
	ListActive(ctx context.Context) ([]*Habit, error)
	Archive(ctx context.Context, userID, habitID int64) error
	UpsertActivity(ctx context.Context, habitID int64, day time.Time, value float64, notes string) (*ActivityEntry, error)
	ClaimReward(ctx context.Context, entryID uuid.UUID) (bool, error)
	ReleaseReward(ctx context.Context, entryID uuid.UUID) error
	MarkReminded(ctx context.Context, habitID int64, day time.Time) error
}

// PointsAwarder — журнал очков. Реализуется economy.Service.
type PointsAwarder interface {
	AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error
}

// Service управляет привычками пользователей.
type Service struct {
	repo     Store
	awarder  PointsAwarder // nil — очки не начисляются
	profiles *ProfileTable
	rules    RewardRules
	cfg      *config.Config
	now      func() time.Time
}

// NewService создаёт новый сервис привычек.
func NewService(repo Store, awarder PointsAwarder, profiles *ProfileTable, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		awarder:  awarder,
		profiles: profiles,
		rules:    RulesFromConfig(cfg),
		cfg:      cfg,
		now:      common.LocalTime,
	}
}

// RulesFromConfig собирает правила начисления из REWARD_*.
func RulesFromConfig(cfg *config.Config) RewardRules {
	rules := RewardRules{
		BasePoints:      cfg.RewardBasePoints,
		StreakBonusBase: cfg.RewardStreakBonus,
	}
	for _, m := range cfg.RewardMilestones {
		rules.Milestones = append(rules.Milestones, Milestone{Days: m.Days, Bonus: m.Bonus})
	}
	return rules
}

// Profiles возвращает таблицу сложностей.
func (s *Service) Profiles() *ProfileTable {
	return s.profiles
}

// Rules возвращает правила начисления очков.
func (s *Service) Rules() RewardRules {
	return s.rules
}

// CreateHabit проверяет поля и создаёт привычку.
// Пустая сложность — профиль по умолчанию, пустой тип — numeric.
func (s *Service) CreateHabit(ctx context.Context, userID int64, in HabitInput) (*Habit, error) {
	name := strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxNameLength {
		return nil, common.ErrHabitNameInvalid
	}
	if in.IntervalDays < 0 || in.IntervalDays > maxIntervalDays {
		return nil, common.ErrInvalidInterval
	}

	difficulty := s.profiles.Default()
	if d := strings.ToLower(strings.TrimSpace(in.Difficulty)); d != "" {
		if _, ok := s.profiles.Lookup(Difficulty(d)); !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrUnknownDifficulty, d)
		}
		difficulty = Difficulty(d)
	}

	inputType, ok := ParseInputType(strings.ToLower(strings.TrimSpace(in.InputType)))
	if !ok {
		return nil, common.ErrUnknownInputType
	}

	count, err := s.repo.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= s.cfg.HabitsMaxPerUser {
		return nil, common.ErrTooManyHabits
	}

	h := &Habit{
		UserID:       userID,
		Name:         name,
		IntervalDays: in.IntervalDays,
		Difficulty:   difficulty,
		InputType:    inputType,
	}
	// 0 в БД не храним, интервал "ежедневно" — это 1
	h.IntervalDays = h.Interval()

	created, err := s.repo.Create(ctx, h)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"habit_id":   created.ID,
		"difficulty": created.Difficulty,
		"interval":   created.IntervalDays,
	}).Info("Привычка создана")

	return created, nil
}

// ListHabits возвращает привычки пользователя с посчитанными сериями.
func (s *Service) ListHabits(ctx context.Context, userID int64) ([]HabitWithStreak, error) {
	habits, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]HabitWithStreak, 0, len(habits))
	for _, h := range habits {
		out = append(out, HabitWithStreak{Habit: h, Streak: ComputeStreak(h, s.profiles, now)})
	}
	return out, nil
}

// GetHabitStreak возвращает одну привычку с серией.
func (s *Service) GetHabitStreak(ctx context.Context, userID, habitID int64) (*HabitWithStreak, error) {
	h, err := s.repo.GetByID(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}
	return &HabitWithStreak{Habit: h, Streak: ComputeStreak(h, s.profiles, s.now())}, nil
}

// ArchiveHabit прячет привычку пользователя.
func (s *Service) ArchiveHabit(ctx context.Context, userID, habitID int64) error {
	if err := s.repo.Archive(ctx, userID, habitID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": userID, "habit_id": habitID}).Info("Привычка архивирована")
	return nil
}

// LogActivity записывает отметку и, если она засчитана сегодня, начисляет очки.
//
// Алгоритм:
//  1. Дата из будущего отклоняется
//  2. Отметка пишется в БД (одна строка на день)
//  3. Серия пересчитывается по обновлённой истории
//  4. Очки начисляются один раз за день: только за валидную отметку сегодняшним числом.
//     Флаг rewarded захватывается до начисления, поэтому параллельные отметки не платят дважды.
//     Если журнал очков недоступен, флаг снимается и следующая отметка повторит попытку
func (s *Service) LogActivity(ctx context.Context, userID, habitID int64, in ActivityInput) (*LogResult, error) {
	now := s.now()
	day := now
	if in.Date != nil {
		day = *in.Date
	}
	if calendarDay(day).After(calendarDay(now)) {
		return nil, common.ErrFutureDate
	}
	if in.Value < 0 || math.IsNaN(in.Value) || math.IsInf(in.Value, 0) {
		return nil, common.ErrInvalidAmount
	}

	habit, err := s.repo.GetByID(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	entry, err := s.repo.UpsertActivity(ctx, habit.ID, day, in.Value, strings.TrimSpace(in.Notes))
	if err != nil {
		return nil, err
	}
	habit.Activity = mergeEntry(habit.Activity, *entry)

	streak := ComputeStreak(habit, s.profiles, now)
	result := &LogResult{
		Entry:   entry,
		Streak:  streak,
		Counted: IsValidEntry(habit.InputType, *entry),
	}
	if !result.Counted {
		return result, nil
	}
	metrics.ObserveCompletion(string(streak.Difficulty), streak.Current)

	if entry.Rewarded || daysBetween(entry.Date, now) != 0 || !s.cfg.FeatureRewardsEnabled {
		return result, nil
	}

	claimed, err := s.repo.ClaimReward(ctx, entry.ID)
	if err != nil {
		log.WithError(err).WithField("entry_id", entry.ID).Error("Ошибка захвата начисления")
		return result, nil
	}
	if !claimed {
		return result, nil
	}

	outcome, err := s.award(ctx, userID, habit, streak)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":  userID,
			"habit_id": habit.ID,
		}).Error("Ошибка начисления очков за привычку")
	}
	if err != nil || !outcome.awarded {
		if err := s.repo.ReleaseReward(ctx, entry.ID); err != nil {
			log.WithError(err).WithField("entry_id", entry.ID).Error("Ошибка снятия отметки начисления")
		}
		return result, nil
	}

	result.PointsAwarded = outcome.points
	result.MilestoneDays = outcome.milestone.Days
	result.MilestoneBonus = outcome.milestone.Bonus
	entry.Rewarded = true

	return result, nil
}

// AwardCompletionPoints начисляет очки за выполнение и бонус за рубеж.
// Возвращает только очки за выполнение: бонус за рубеж уходит отдельной транзакцией.
// Без журнала очков пишет предупреждение и возвращает 0.
func (s *Service) AwardCompletionPoints(ctx context.Context, userID int64, habit *Habit, result StreakResult) (int64, error) {
	outcome, err := s.award(ctx, userID, habit, result)
	if err != nil {
		return 0, err
	}
	return outcome.points, nil
}

type awardOutcome struct {
	awarded   bool
	points    int64
	milestone Milestone
}

func (s *Service) award(ctx context.Context, userID int64, habit *Habit, result StreakResult) (awardOutcome, error) {
	if s.awarder == nil {
		log.WithField("user_id", userID).Warn("Журнал очков не подключён, начисление пропущено")
		return awardOutcome{}, nil
	}

	points := s.rules.CompletionPoints(result)
	if points > 0 {
		desc := FormatCompletionDescription(habit.Name, result.Current)
		if err := s.awarder.AddBalance(ctx, userID, points, TxTypeHabitCompletion, desc); err != nil {
			return awardOutcome{}, fmt.Errorf("ошибка начисления за выполнение: %w", err)
		}
		metrics.ObservePoints(metrics.KindCompletion, points)
	}
	outcome := awardOutcome{awarded: true, points: points}

	m, ok := s.rules.MilestoneFor(result.Current)
	if !ok || m.Bonus <= 0 {
		return outcome, nil
	}
	desc := FormatMilestoneDescription(habit.Name, m.Days)
	if err := s.awarder.AddBalance(ctx, userID, m.Bonus, TxTypeStreakMilestone, desc); err != nil {
		// Очки за выполнение уже начислены, повторять их нельзя
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID,
			"days":    m.Days,
		}).Error("Ошибка начисления бонуса за рубеж")
		return outcome, nil
	}
	metrics.ObservePoints(metrics.KindMilestone, m.Bonus)
	metrics.ObserveMilestone(m.Days)
	outcome.milestone = m

	log.WithFields(log.Fields{
		"user_id":  userID,
		"habit_id": habit.ID,
		"days":     m.Days,
		"bonus":    m.Bonus,
	}).Info("Достигнут рубеж серии")

	return outcome, nil
}

// SendReminders напоминает об отметке тем, чья серия оборвётся, если завтра пройдёт без отметки.
// Запускается кроном каждый час, но шлёт не раньше REMINDER_AFTER_HOUR и не чаще раза в день.
func (s *Service) SendReminders(ctx context.Context, sendFunc func(userID int64, text string)) error {
	if !s.cfg.FeatureRemindersEnabled {
		return nil
	}
	now := s.now()
	if now.Hour() < s.cfg.ReminderAfterHour {
		return nil
	}

	habits, err := s.repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения привычек: %w", err)
	}

	tomorrow := now.AddDate(0, 0, 1)
	sent := 0
	for _, h := range habits {
		if h.LastReminderOn != nil && daysBetween(*h.LastReminderOn, now) == 0 {
			continue
		}
		streak := ComputeStreak(h, s.profiles, now)
		if streak.Current < s.cfg.ReminderMinStreak || streak.LastActivity == nil {
			continue
		}
		if daysBetween(*streak.LastActivity, now) == 0 {
			continue // Сегодня уже отмечено
		}
		// Если и завтра серия жива, напоминать рано
		if ComputeStreak(h, s.profiles, tomorrow).Current > 0 {
			continue
		}

		msg := fmt.Sprintf("⏰ Огонёк «%s» горит %d %s! Отметь привычку сегодня, иначе серия прервётся.",
			h.Name, streak.Current, common.PluralizeDays(streak.Current))
		sendFunc(h.UserID, msg)
		metrics.RemindersSent.WithLabelValues(metrics.KindReminder).Inc()
		sent++

		if err := s.repo.MarkReminded(ctx, h.ID, now); err != nil {
			log.WithError(err).WithField("habit_id", h.ID).Error("Ошибка сохранения даты напоминания")
		}
	}

	if sent > 0 {
		log.WithField("sent", sent).Info("Напоминания отправлены")
	}
	return nil
}

// NotifyLapsed сообщает о сериях, которые вчера ещё были живы, а сегодня обнулились.
// Запускается кроном раз в день сразу после полуночи.
func (s *Service) NotifyLapsed(ctx context.Context, sendFunc func(userID int64, text string)) error {
	if !s.cfg.FeatureRemindersEnabled {
		return nil
	}
	habits, err := s.repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения привычек: %w", err)
	}

	now := s.now()
	yesterday := now.AddDate(0, 0, -1)
	lapsed := 0
	for _, h := range habits {
		before := ComputeStreak(h, s.profiles, yesterday)
		if before.Current < s.cfg.ReminderMinStreak {
			continue
		}
		if ComputeStreak(h, s.profiles, now).Current > 0 {
			continue
		}
		msg := fmt.Sprintf("💨 Огонёк «%s» погас после %d %s. Рекорд сохранён, начни новую серию!",
			h.Name, before.Current, common.PluralizeDays(before.Current))
		sendFunc(h.UserID, msg)
		metrics.RemindersSent.WithLabelValues(metrics.KindLapsed).Inc()
		lapsed++
	}

	log.WithFields(log.Fields{
		"total":  len(habits),
		"lapsed": lapsed,
	}).Info("Проверка погасших серий завершена")

	return nil
}

// Recalculate пересчитывает серии пользователя и пишет итог в лог.
// Серии нигде не хранятся, поэтому пересчёт ничего не меняет в БД.
func (s *Service) Recalculate(ctx context.Context, userID int64) ([]HabitWithStreak, error) {
	list, err := s.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, hs := range list {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"habit_id": hs.Habit.ID,
			"current":  hs.Streak.Current,
			"longest":  hs.Streak.Longest,
			"total":    hs.Streak.Total,
			"missed":   hs.Streak.MissedIntervals,
		}).Info("Серия пересчитана")
	}
	return list, nil
}

// mergeEntry заменяет отметку за тот же день или добавляет новую.
func mergeEntry(entries []ActivityEntry, e ActivityEntry) []ActivityEntry {
	for i := range entries {
		if entries[i].ID == e.ID || daysBetween(entries[i].Date, e.Date) == 0 {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}
