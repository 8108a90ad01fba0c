// Package members регистрирует пользователей бота.
// models.go описывает структуру строки таблицы members.
package members

import "time"

// Member — пользователь, который хотя бы раз писал боту.
type Member struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`  // Telegram user ID (уникальный)
	Username  string    `db:"username"` // @username (может быть пустым)
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	JoinedAt  time.Time `db:"joined_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UpdateInfo — данные профиля, которые могли поменяться в Telegram.
type UpdateInfo struct {
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает @username, а если его нет — имя и фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	return name
}

// Changed сообщает, отличаются ли сохранённые данные от info.
func (m *Member) Changed(info UpdateInfo) bool {
	return m.Username != info.Username || m.FirstName != info.FirstName || m.LastName != info.LastName
}
