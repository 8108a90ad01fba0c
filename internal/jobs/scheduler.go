// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежечасные напоминания о сериях
// и ежедневные уведомления о сброшенных сериях.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	// Каждый час: напомнить тем, у кого серия сгорит без отметки сегодня
	remindersSpec = "0 * * * *"
	// Сразу после полуночи: сообщить о сериях, которые только что сбросились
	lapsedSpec = "5 0 * * *"
)

// HabitNotifier — задачи сервиса привычек, которые запускает планировщик.
type HabitNotifier interface {
	SendReminders(ctx context.Context, sendFunc func(userID int64, text string)) error
	NotifyLapsed(ctx context.Context, sendFunc func(userID int64, text string)) error
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	loc      *time.Location
	habits   HabitNotifier
	sendFunc func(userID int64, text string)
}

// NewScheduler создаёт планировщик, который считает время в часовом поясе loc.
func NewScheduler(habits HabitNotifier, sendFunc func(userID int64, text string), loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		loc:      loc,
		habits:   habits,
		sendFunc: sendFunc,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(remindersSpec, func() { s.runReminders(ctx) }); err != nil {
		return fmt.Errorf("cron %q: %w", remindersSpec, err)
	}
	if _, err := s.cron.AddFunc(lapsedSpec, func() { s.runLapsed(ctx) }); err != nil {
		return fmt.Errorf("cron %q: %w", lapsedSpec, err)
	}

	s.cron.Start()
	log.WithField("location", s.loc.String()).Info("Планировщик задач запущен")
	return nil
}

func (s *Scheduler) runReminders(ctx context.Context) {
	log.Debug("[CRON] Проверка напоминаний")
	if err := s.habits.SendReminders(ctx, s.sendFunc); err != nil {
		log.WithError(err).Error("[CRON] Ошибка напоминаний")
	}
}

func (s *Scheduler) runLapsed(ctx context.Context) {
	log.Info("[CRON] Проверка сброшенных серий")
	if err := s.habits.NotifyLapsed(ctx, s.sendFunc); err != nil {
		log.WithError(err).Error("[CRON] Ошибка уведомлений о сбросе")
	}
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
