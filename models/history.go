package models

import "time"

// TournamentHistoryEntry — строка истории участий пользователя: турнир,
// куда он был допущен, плюс итоговое место и приз, когда турнир завершён
// и призы распределены.
type TournamentHistoryEntry struct {
	TournamentID int              `json:"tournament_id" db:"tournament_id"`
	Title        string           `json:"title" db:"title"`
	GameType     string           `json:"game_type" db:"game_type"`
	Status       TournamentStatus `json:"status" db:"status"`
	PrizePool    int64            `json:"prize_pool" db:"prize_pool"`
	StartTime    time.Time        `json:"start_time" db:"start_time"`
	JoinedAt     time.Time        `json:"joined_at" db:"joined_at"`
	Position     *int             `json:"position,omitempty" db:"position"`
	PrizeAmount  *int64           `json:"prize_amount,omitempty" db:"prize_amount"`
}
