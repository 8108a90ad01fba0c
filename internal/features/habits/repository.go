// Package habits — repository.go выполняет операции с таблицами habits и habit_activity.
package habits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/habit-bot/internal/common"
)

// Repository предоставляет методы для работы с привычками и отметками.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий привычек.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const habitColumns = `id, user_id, name, interval_days, difficulty, input_type,
		       is_archived, last_reminder_on, created_at, updated_at`

const activityColumns = `id, habit_id, logged_on, value, notes, rewarded, created_at, updated_at`

func scanHabit(row pgx.Row) (*Habit, error) {
	var h Habit
	err := row.Scan(
		&h.ID, &h.UserID, &h.Name, &h.IntervalDays, &h.Difficulty, &h.InputType,
		&h.IsArchived, &h.LastReminderOn, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanActivity(row pgx.Row) (*ActivityEntry, error) {
	var e ActivityEntry
	err := row.Scan(&e.ID, &e.HabitID, &e.Date, &e.Value, &e.Notes, &e.Rewarded, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create сохраняет новую привычку и возвращает её с id.
func (r *Repository) Create(ctx context.Context, h *Habit) (*Habit, error) {
	query := `
		INSERT INTO habits (user_id, name, interval_days, difficulty, input_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + habitColumns
	created, err := scanHabit(r.db.QueryRow(ctx, query, h.UserID, h.Name, h.IntervalDays, h.Difficulty, h.InputType))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания привычки: %w", err)
	}
	return created, nil
}

// CountActive возвращает число неархивных привычек пользователя.
func (r *Repository) CountActive(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM habits WHERE user_id = $1 AND NOT is_archived`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта привычек: %w", err)
	}
	return n, nil
}

// GetByID возвращает неархивную привычку пользователя вместе с отметками.
func (r *Repository) GetByID(ctx context.Context, userID, habitID int64) (*Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE id = $1 AND user_id = $2 AND NOT is_archived`
	h, err := scanHabit(r.db.QueryRow(ctx, query, habitID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrHabitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения привычки (id=%d): %w", habitID, err)
	}
	if err := r.loadActivity(ctx, []*Habit{h}); err != nil {
		return nil, err
	}
	return h, nil
}

// ListByUser возвращает неархивные привычки пользователя с отметками.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE user_id = $1 AND NOT is_archived
		ORDER BY id`
	return r.queryHabits(ctx, query, userID)
}

// ListActive возвращает все неархивные привычки. Используется кроном.
func (r *Repository) ListActive(ctx context.Context) ([]*Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE NOT is_archived
		ORDER BY user_id, id`
	return r.queryHabits(ctx, query)
}

// Archive прячет привычку. История отметок остаётся в БД.
func (r *Repository) Archive(ctx context.Context, userID, habitID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE habits SET is_archived = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND NOT is_archived
	`, habitID, userID)
	if err != nil {
		return fmt.Errorf("ошибка архивации привычки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrHabitNotFound
	}
	return nil
}

// UpsertActivity записывает отметку за день.
// Одна строка на привычку и день: числа складываются, непустая заметка заменяет старую.
func (r *Repository) UpsertActivity(ctx context.Context, habitID int64, day time.Time, value float64, notes string) (*ActivityEntry, error) {
	query := `
		INSERT INTO habit_activity (id, habit_id, logged_on, value, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (habit_id, logged_on) DO UPDATE
		SET value = habit_activity.value + EXCLUDED.value,
		    notes = CASE WHEN EXCLUDED.notes <> '' THEN EXCLUDED.notes ELSE habit_activity.notes END,
		    updated_at = NOW()
		RETURNING ` + activityColumns
	e, err := scanActivity(r.db.QueryRow(ctx, query, uuid.New(), habitID, calendarDay(day), value, notes))
	if err != nil {
		return nil, fmt.Errorf("ошибка записи отметки: %w", err)
	}
	return e, nil
}

// ClaimReward атомарно занимает начисление за отметку.
// Возвращает false, если очки за неё уже начислены (или начисляются) параллельным запросом.
func (r *Repository) ClaimReward(ctx context.Context, entryID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		UPDATE habit_activity SET rewarded = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT rewarded
		RETURNING id`, entryID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка захвата начисления: %w", err)
	}
	return true, nil
}

// ReleaseReward снимает флаг начисления, если журнал очков не принял операцию.
func (r *Repository) ReleaseReward(ctx context.Context, entryID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE habit_activity SET rewarded = FALSE, updated_at = NOW() WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("ошибка снятия отметки начисления: %w", err)
	}
	return nil
}

// MarkReminded запоминает день последнего напоминания.
func (r *Repository) MarkReminded(ctx context.Context, habitID int64, day time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE habits SET last_reminder_on = $2 WHERE id = $1`, habitID, calendarDay(day))
	return err
}

func (r *Repository) queryHabits(ctx context.Context, query string, args ...interface{}) ([]*Habit, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения привычек: %w", err)
	}
	defer rows.Close()

	var habits []*Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadActivity(ctx, habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// loadActivity подгружает отметки одним запросом на все привычки.
func (r *Repository) loadActivity(ctx context.Context, habits []*Habit) error {
	if len(habits) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(habits))
	byID := make(map[int64]*Habit, len(habits))
	for _, h := range habits {
		ids = append(ids, h.ID)
		byID[h.ID] = h
	}

	rows, err := r.db.Query(ctx, `SELECT `+activityColumns+`
		FROM habit_activity
		WHERE habit_id = ANY($1)
		ORDER BY logged_on`, ids)
	if err != nil {
		return fmt.Errorf("ошибка получения отметок: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return fmt.Errorf("ошибка сканирования отметки: %w", err)
		}
		if h, ok := byID[e.HabitID]; ok {
			h.Activity = append(h.Activity, *e)
		}
	}
	return rows.Err()
}
