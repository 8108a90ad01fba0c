// Package habits — handlers.go обрабатывает команды:
// !новая, !привычки, !отметить, !огонек, !удалить, !сложности, !пересчет.
package habits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habit-bot/internal/common"
	"serotonyl.ru/habit-bot/internal/config"
)

// Sender отправляет текст в чат.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Handler обрабатывает команды привычек.
type Handler struct {
	service *Service
	sender  Sender
	cfg     *config.Config
}

// NewHandler создаёт новый обработчик команд привычек.
func NewHandler(service *Service, sender Sender, cfg *config.Config) *Handler {
	return &Handler{service: service, sender: sender, cfg: cfg}
}

// HandleNew обрабатывает !новая <название> [интервал=N] [сложность=...] [тип=numeric|custom].
func (h *Handler) HandleNew(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(ctx, chatID, "❌ Формат: !новая <название> [интервал=N] [сложность=casual|determined|hero] [тип=numeric|custom]")
		return
	}
	in, err := parseHabitInput(args)
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
		return
	}

	habit, err := h.service.CreateHabit(ctx, userID, in)
	if err != nil {
		h.sendError(ctx, chatID, err, "Ошибка создания привычки")
		return
	}

	profile := h.service.Profiles().Resolve(habit.Difficulty)
	text := fmt.Sprintf("✅ Привычка #%d «%s» создана\nИнтервал: %s\nСложность: %s (x%s очков)\nОтметка: %s",
		habit.ID, habit.Name, formatInterval(habit.IntervalDays),
		profile.Label, common.FormatValue(profile.PointsMultiplier), formatInputType(habit.InputType))
	h.sendMessage(ctx, chatID, text)
}

// HandleList обрабатывает !привычки — список привычек с сериями.
func (h *Handler) HandleList(ctx context.Context, chatID, userID int64) {
	list, err := h.service.ListHabits(ctx, userID)
	if err != nil {
		h.sendError(ctx, chatID, err, "Ошибка получения привычек")
		return
	}
	if len(list) == 0 {
		h.sendMessage(ctx, chatID, "📋 У вас пока нет привычек. Создайте первую: !новая Бег")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Ваши привычки:\n\n")
	for _, hs := range list {
		sb.WriteString(fmt.Sprintf("#%d %s | 🔥 %d | рекорд %d | %s\n",
			hs.Habit.ID, hs.Habit.Name, hs.Streak.Current, hs.Streak.Longest,
			formatInterval(hs.Habit.IntervalDays)))
	}
	h.sendMessage(ctx, chatID, sb.String())
}

// HandleLog обрабатывает !отметить <id> [значение|заметка] [дата=ГГГГ-ММ-ДД].
func (h *Handler) HandleLog(ctx context.Context, chatID, userID int64, args []string) {
	ca := parseArgs(args)
	if len(ca.positional) == 0 {
		h.sendMessage(ctx, chatID, "❌ Формат: !отметить <id> [значение|заметка] [дата=ГГГГ-ММ-ДД]")
		return
	}
	habitID, err := parseHabitID(ca.positional[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
		return
	}

	var in ActivityInput
	if raw, ok := ca.named["date"]; ok {
		d, err := parseDate(raw, common.Location())
		if err != nil {
			h.sendMessage(ctx, chatID, "❌ "+err.Error())
			return
		}
		in.Date = &d
	}

	// Тип отметки зависит от привычки, поэтому сначала смотрим на неё
	hs, err := h.service.GetHabitStreak(ctx, userID, habitID)
	if err != nil {
		h.sendError(ctx, chatID, err, "Ошибка получения привычки")
		return
	}
	rest := ca.positional[1:]
	if hs.Habit.InputType == InputCustom {
		in.Notes = strings.Join(rest, " ")
		if strings.TrimSpace(in.Notes) == "" {
			h.sendMessage(ctx, chatID, "❌ Для этой привычки нужна заметка: !отметить "+ca.positional[0]+" <текст>")
			return
		}
	} else {
		in.Value = 1
		if len(rest) > 0 {
			v, err := parseValue(rest[0])
			if err != nil {
				h.sendMessage(ctx, chatID, "❌ "+err.Error())
				return
			}
			in.Value = v
		}
	}

	res, err := h.service.LogActivity(ctx, userID, habitID, in)
	if err != nil {
		h.sendError(ctx, chatID, err, "Ошибка отметки привычки")
		return
	}
	h.sendMessage(ctx, chatID, formatLogResult(hs.Habit, res))
}

// HandleStreak обрабатывает !огонек <id> — подробности серии.
func (h *Handler) HandleStreak(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(ctx, chatID, "❌ Формат: !огонек <id>")
		return
	}
	habitID, err := parseHabitID(args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
		return
	}
	hs, err := h.service.GetHabitStreak(ctx, userID, habitID)
	if err != nil {
		h.sendError(ctx, chatID, err, "Ошибка получения серии")
		return
	}
	h.sendMessage(ctx, chatID, formatStreak(hs, h.service.Rules(), h.service.Profiles()))
}

// HandleArchive обрабатывает !удалить <id>.
func (h *Handler) HandleArchive(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(ctx, chatID, "❌ Формат: !удалить <id>")
		return
	}
	habitID, err := parseHabitID(args[0])
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
		return
	}
	if err := h.service.ArchiveHabit(ctx, userID, habitID); err != nil {
		h.sendError(ctx, chatID, err, "Ошибка удаления привычки")
		return
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("🗑 Привычка #%d удалена", habitID))
}

// HandleDifficulties обрабатывает !сложности — таблица профилей.
func (h *Handler) HandleDifficulties(ctx context.Context, chatID int64) {
	profiles := h.service.Profiles()
	var sb strings.Builder
	sb.WriteString("🎚 Уровни сложности:\n\n")
	for _, p := range profiles.List() {
		def := ""
		if p.Value == profiles.Default() {
			def = " (по умолчанию)"
		}
		sb.WriteString(fmt.Sprintf("%s — %s%s\n  перерыв до x%s интервала, очки x%s, пропусков до %d\n",
			p.Value, p.Label, def,
			common.FormatValue(p.GraceMultiplier), common.FormatValue(p.PointsMultiplier), p.MaxMissedIntervals))
	}
	h.sendMessage(ctx, chatID, sb.String())
}

// HandleRecalculate обрабатывает !пересчет [user_id] — только для ADMIN_IDS.
func (h *Handler) HandleRecalculate(ctx context.Context, chatID, userID int64, args []string) {
	if !h.cfg.IsAdmin(userID) {
		h.sendMessage(ctx, chatID, "❌ "+common.ErrNotAdmin.Error())
		return
	}
	target := userID
	if len(args) > 0 {
		id, err := parseHabitID(args[0])
		if err != nil {
			h.sendMessage(ctx, chatID, "❌ Некорректный user_id")
			return
		}
		target = id
	}
	list, err := h.service.Recalculate(ctx, target)
	if err != nil {
		h.sendError(ctx, chatID, err, "Ошибка пересчёта")
		return
	}
	alive := 0
	for _, hs := range list {
		if hs.Streak.Current > 0 {
			alive++
		}
	}
	h.sendMessage(ctx, chatID, fmt.Sprintf("🔄 Пересчитано привычек: %d, активных серий: %d", len(list), alive))
}

// sendError переводит ошибку сервиса в понятный ответ.
func (h *Handler) sendError(ctx context.Context, chatID int64, err error, logMsg string) {
	switch {
	case errors.Is(err, common.ErrHabitNotFound),
		errors.Is(err, common.ErrHabitNameInvalid),
		errors.Is(err, common.ErrInvalidInterval),
		errors.Is(err, common.ErrUnknownInputType),
		errors.Is(err, common.ErrFutureDate),
		errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(ctx, chatID, "❌ "+userMessage(err))
	case errors.Is(err, common.ErrUnknownDifficulty):
		h.sendMessage(ctx, chatID, "❌ Неизвестная сложность. Доступные: !сложности")
	case errors.Is(err, common.ErrTooManyHabits):
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Можно вести не больше %d привычек", h.cfg.HabitsMaxPerUser))
	default:
		log.WithError(err).Error(logMsg)
		h.sendMessage(ctx, chatID, "❌ "+logMsg)
	}
}

// userMessage возвращает текст sentinel-ошибки без обёрток.
func userMessage(err error) string {
	for _, target := range []error{
		common.ErrHabitNotFound, common.ErrHabitNameInvalid, common.ErrInvalidInterval,
		common.ErrUnknownInputType, common.ErrFutureDate, common.ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return capitalize(target.Error())
		}
	}
	return err.Error()
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func formatInterval(days int) string {
	if days <= 1 {
		return "ежедневно"
	}
	return fmt.Sprintf("раз в %d %s", days, common.PluralizeDays(days))
}

func formatInputType(t InputType) string {
	if t == InputCustom {
		return "заметка"
	}
	return "число"
}

func formatLogResult(habit *Habit, res *LogResult) string {
	if !res.Counted {
		return fmt.Sprintf("📝 Отметка для «%s» сохранена, но не засчитана (нужно значение больше нуля)", habit.Name)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ «%s» отмечено! 🔥 Серия: %d %s",
		habit.Name, res.Streak.Current, common.PluralizeDays(res.Streak.Current)))
	if res.PointsAwarded > 0 {
		sb.WriteString("\n💰 " + common.FormatPointsAmount(res.PointsAwarded))
	}
	if res.MilestoneDays > 0 {
		sb.WriteString(fmt.Sprintf("\n🏆 Рубеж %d %s! Бонус %s",
			res.MilestoneDays, common.PluralizeDays(res.MilestoneDays), common.FormatPointsAmount(res.MilestoneBonus)))
	}
	return sb.String()
}

func formatStreak(hs *HabitWithStreak, rules RewardRules, profiles *ProfileTable) string {
	s := hs.Streak
	profile := profiles.Resolve(s.Difficulty)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔥 #%d «%s»\n", hs.Habit.ID, hs.Habit.Name))
	sb.WriteString(fmt.Sprintf("Текущая серия: %d %s\n", s.Current, common.PluralizeDays(s.Current)))
	sb.WriteString(fmt.Sprintf("Рекорд: %d %s\n", s.Longest, common.PluralizeDays(s.Longest)))
	sb.WriteString(fmt.Sprintf("Всего отметок: %d %s\n", s.Total, common.PluralizeTimes(s.Total)))
	if s.MissedIntervals > 0 {
		sb.WriteString(fmt.Sprintf("Пропусков в серии: %d\n", s.MissedIntervals))
	}
	if s.LastActivity != nil {
		sb.WriteString("Последняя отметка: " + common.FormatDate(*s.LastActivity) + "\n")
	}
	sb.WriteString(fmt.Sprintf("Сложность: %s (очки x%s)", profile.Label, common.FormatValue(s.PointsMultiplier)))
	if m, ok := rules.NextMilestone(s.Current); ok {
		left := m.Days - s.Current
		sb.WriteString(fmt.Sprintf("\nДо рубежа %d: %d %s", m.Days, left, common.PluralizeDays(left)))
	}
	return sb.String()
}
