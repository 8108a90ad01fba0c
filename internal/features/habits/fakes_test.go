package habits

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/habit-bot/internal/common"
	"serotonyl.ru/habit-bot/internal/config"
)

// memStore — Store в памяти. Ведёт себя как Repository: копирует данные на чтение,
// хранит даты как DATE (полночь UTC), одна отметка на день.
type memStore struct {
	mu     sync.Mutex
	habits map[int64]*Habit
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{habits: make(map[int64]*Habit)}
}

func (m *memStore) put(h *Habit) *Habit {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	h.ID = m.nextID
	for i := range h.Activity {
		if h.Activity[i].ID == uuid.Nil {
			h.Activity[i].ID = uuid.New()
		}
		h.Activity[i].HabitID = h.ID
	}
	m.habits[h.ID] = h
	return h
}

func cloneHabit(h *Habit) *Habit {
	c := *h
	c.Activity = append([]ActivityEntry(nil), h.Activity...)
	return &c
}

func (m *memStore) Create(_ context.Context, h *Habit) (*Habit, error) {
	c := cloneHabit(h)
	c.CreatedAt = testNow
	return cloneHabit(m.put(c)), nil
}

func (m *memStore) CountActive(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, h := range m.habits {
		if h.UserID == userID && !h.IsArchived {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetByID(_ context.Context, userID, habitID int64) (*Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[habitID]
	if !ok || h.UserID != userID || h.IsArchived {
		return nil, common.ErrHabitNotFound
	}
	return cloneHabit(h), nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]*Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Habit
	for id := int64(1); id <= m.nextID; id++ {
		if h, ok := m.habits[id]; ok && h.UserID == userID && !h.IsArchived {
			out = append(out, cloneHabit(h))
		}
	}
	return out, nil
}

func (m *memStore) ListActive(_ context.Context) ([]*Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Habit
	for id := int64(1); id <= m.nextID; id++ {
		if h, ok := m.habits[id]; ok && !h.IsArchived {
			out = append(out, cloneHabit(h))
		}
	}
	return out, nil
}

func (m *memStore) Archive(_ context.Context, userID, habitID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[habitID]
	if !ok || h.UserID != userID || h.IsArchived {
		return common.ErrHabitNotFound
	}
	h.IsArchived = true
	return nil
}

func (m *memStore) UpsertActivity(_ context.Context, habitID int64, day time.Time, value float64, notes string) (*ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[habitID]
	if !ok {
		return nil, errors.New("habit not found")
	}
	d := calendarDay(day)
	for i := range h.Activity {
		e := &h.Activity[i]
		if e.Date.Equal(d) {
			e.Value += value
			if notes != "" {
				e.Notes = notes
			}
			c := *e
			return &c, nil
		}
	}
	e := ActivityEntry{ID: uuid.New(), HabitID: habitID, Date: d, Value: value, Notes: notes}
	h.Activity = append(h.Activity, e)
	return &e, nil
}

func (m *memStore) ClaimReward(_ context.Context, entryID uuid.UUID) (bool, error) {
	return m.setRewarded(entryID, true)
}

func (m *memStore) ReleaseReward(_ context.Context, entryID uuid.UUID) error {
	_, err := m.setRewarded(entryID, false)
	return err
}

// setRewarded меняет флаг под мьютексом; true, если флаг действительно изменился.
func (m *memStore) setRewarded(entryID uuid.UUID, v bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.habits {
		for i := range h.Activity {
			if h.Activity[i].ID == entryID {
				changed := h.Activity[i].Rewarded != v
				h.Activity[i].Rewarded = v
				return changed, nil
			}
		}
	}
	return false, errors.New("entry not found")
}

func (m *memStore) MarkReminded(_ context.Context, habitID int64, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.habits[habitID]; ok {
		d := calendarDay(day)
		h.LastReminderOn = &d
	}
	return nil
}

func (m *memStore) entry(habitID int64, daysAgo int) (ActivityEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.habits[habitID].Activity {
		if e.Date.Equal(dbDay(daysAgo)) {
			return e, true
		}
	}
	return ActivityEntry{}, false
}

type awardCall struct {
	userID      int64
	amount      int64
	txType      string
	description string
}

// fakeLedger записывает начисления; err возвращается на каждый вызов.
type fakeLedger struct {
	mu    sync.Mutex
	calls []awardCall
	err   error
}

func (f *fakeLedger) AddBalance(_ context.Context, userID int64, amount int64, txType, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, awardCall{userID, amount, txType, description})
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID, text})
	return nil
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].text
}

func testConfig() *config.Config {
	return &config.Config{
		AdminIDs:          []int64{1},
		HabitsMaxPerUser:  3,
		RewardBasePoints:  10,
		RewardStreakBonus: 5,
		RewardMilestones: []config.MilestoneSetting{
			{Days: 7, Bonus: 50},
			{Days: 30, Bonus: 200},
		},
		ReminderMinStreak:       3,
		ReminderAfterHour:       18,
		FeatureRewardsEnabled:   true,
		FeatureRemindersEnabled: true,
	}
}

func newTestService(store Store, ledger PointsAwarder, cfg *config.Config) *Service {
	s := NewService(store, ledger, DefaultProfiles(), cfg)
	s.now = func() time.Time { return testNow }
	return s
}
