package models

import "time"

// Participant — запись о допуске пользователя в турнир.
// Пара (tournament_id, user_id) уникальна; запись никогда не обновляется.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	JoinedAt     time.Time `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}
