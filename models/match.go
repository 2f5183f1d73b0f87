package models

import "time"

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

// Match — узел сетки single elimination. Slot задаёт порядок матча внутри
// раунда и сохраняет порядок сетки при продвижении победителей.
// Player2ID == nil означает bye: такой матч создаётся сразу завершённым.
type Match struct {
	ID            int         `json:"id" db:"id"`
	TournamentID  int         `json:"tournament_id" db:"tournament_id"`
	Round         int         `json:"round" db:"round"`
	Slot          int         `json:"slot" db:"slot"`
	Player1ID     int         `json:"player1_id" db:"player1_id"`
	Player2ID     *int        `json:"player2_id,omitempty" db:"player2_id"`
	Status        MatchStatus `json:"status" db:"status"`
	WinnerID      *int        `json:"winner_id,omitempty" db:"winner_id"`
	Score         *string     `json:"score,omitempty" db:"score"`
	ProofKey      *string     `json:"proof_key,omitempty" db:"proof_key"`
	ScheduledTime time.Time   `json:"scheduled_time" db:"scheduled_time"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

func (m *Match) IsBye() bool {
	return m.Player2ID == nil
}

// HasPlayer проверяет, является ли пользователь одним из игроков матча.
func (m *Match) HasPlayer(userID int) bool {
	if m.Player1ID == userID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == userID
}

// LoserID возвращает проигравшего завершённого матча; nil для bye
// или незавершённого матча.
func (m *Match) LoserID() *int {
	if m.Status != MatchCompleted || m.WinnerID == nil || m.Player2ID == nil {
		return nil
	}
	if *m.WinnerID == m.Player1ID {
		return m.Player2ID
	}
	p1 := m.Player1ID
	return &p1
}
