package models

// RoundProgress — счётчик завершения раунда. Инкрементируется атомарно при
// каждом завершении матча; равенство completed_matches и total_matches
// наблюдает ровно один из конкурирующих завершителей последнего матча.
type RoundProgress struct {
	TournamentID     int `json:"tournament_id" db:"tournament_id"`
	Round            int `json:"round" db:"round"`
	TotalMatches     int `json:"total_matches" db:"total_matches"`
	CompletedMatches int `json:"completed_matches" db:"completed_matches"`
}

func (rp *RoundProgress) Complete() bool {
	return rp.CompletedMatches >= rp.TotalMatches
}
