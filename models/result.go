package models

import "time"

// TournamentResult — итоговое место участника и назначенный приз.
// Создаётся ровно один раз на турнир после его завершения.
type TournamentResult struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	Position     int       `json:"position" db:"position"`
	PrizeAmount  int64     `json:"prize_amount" db:"prize_amount"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
