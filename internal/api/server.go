// Package api отдаёт данные о привычках и очках по HTTP (только чтение):
// для дашборда и проверки здоровья контейнера.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habit-bot/internal/common"
	"serotonyl.ru/habit-bot/internal/features/economy"
	"serotonyl.ru/habit-bot/internal/features/habits"
)

// HabitReader — чтение привычек с посчитанными сериями.
type HabitReader interface {
	ListHabits(ctx context.Context, userID int64) ([]habits.HabitWithStreak, error)
	GetHabitStreak(ctx context.Context, userID, habitID int64) (*habits.HabitWithStreak, error)
}

// PointsReader — чтение баланса.
type PointsReader interface {
	GetStats(ctx context.Context, userID int64) (*economy.Stats, error)
}

// Server — HTTP API бота.
type Server struct {
	habits         HabitReader
	points         PointsReader
	rules          habits.RewardRules
	metricsEnabled bool
	auth           *tokenAuth // nil — API открыт (только для 127.0.0.1)
}

// NewServer создаёт API поверх сервисов привычек и очков.
func NewServer(h HabitReader, p PointsReader, rules habits.RewardRules) *Server {
	return &Server{habits: h, points: p, rules: rules}
}

// EnableMetrics включает /metrics для Prometheus.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// RequireToken закрывает /api/* токеном, хеш которого задан в HTTP_TOKEN_HASH.
func (s *Server) RequireToken(encodedHash string) {
	if encodedHash == "" {
		return
	}
	s.auth = &tokenAuth{hash: encodedHash}
}

// Handler возвращает chi-роутер со всеми маршрутами.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/users/{userID}", func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth.middleware)
		}
		r.Get("/habits", s.handleListHabits)
		r.Get("/habits/{habitID}/streak", s.handleHabitStreak)
		r.Get("/points", s.handlePoints)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

type milestoneJSON struct {
	Days  int   `json:"days"`
	Bonus int64 `json:"bonus"`
}

type habitJSON struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	IntervalDays  int                 `json:"interval_days"`
	Difficulty    habits.Difficulty   `json:"difficulty"`
	InputType     habits.InputType    `json:"input_type"`
	CreatedAt     time.Time           `json:"created_at"`
	Streak        habits.StreakResult `json:"streak"`
	NextMilestone *milestoneJSON      `json:"next_milestone,omitempty"`
}

type entryJSON struct {
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	Notes    string  `json:"notes,omitempty"`
	Rewarded bool    `json:"rewarded"`
}

type habitDetailJSON struct {
	habitJSON
	Activity []entryJSON `json:"activity"`
}

func (s *Server) toHabitJSON(hs habits.HabitWithStreak) habitJSON {
	out := habitJSON{
		ID:           hs.Habit.ID,
		Name:         hs.Habit.Name,
		IntervalDays: hs.Habit.Interval(),
		Difficulty:   hs.Habit.Difficulty,
		InputType:    hs.Habit.InputType,
		CreatedAt:    hs.Habit.CreatedAt,
		Streak:       hs.Streak,
	}
	if m, ok := s.rules.NextMilestone(hs.Streak.Current); ok {
		out.NextMilestone = &milestoneJSON{Days: m.Days, Bonus: m.Bonus}
	}
	return out
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	list, err := s.habits.ListHabits(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]habitJSON, 0, len(list))
	for _, hs := range list {
		out = append(out, s.toHabitJSON(hs))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"habits": out})
}

func (s *Server) handleHabitStreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	habitID, ok := pathID(w, r, "habitID")
	if !ok {
		return
	}
	hs, err := s.habits.GetHabitStreak(r.Context(), userID, habitID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := habitDetailJSON{habitJSON: s.toHabitJSON(*hs), Activity: []entryJSON{}}
	for _, e := range hs.Habit.Activity {
		out.Activity = append(out.Activity, entryJSON{
			Date:     e.Date.Format("2006-01-02"),
			Value:    e.Value,
			Notes:    e.Notes,
			Rewarded: e.Rewarded,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	stats, err := s.points.GetStats(r.Context(), userID)
	if errors.Is(err, common.ErrUserNotFound) {
		// Пользователь ещё ничего не заработал
		stats, err = &economy.Stats{UserID: userID}, nil
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// pathID читает положительный int64 из параметра пути. На ошибке сам пишет 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrHabitNotFound), errors.Is(err, common.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.WithError(err).WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("Ошибка API")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON пишет JSON-ответ с заданным статусом.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Ошибка записи ответа")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"status":  status,
		},
	})
}
