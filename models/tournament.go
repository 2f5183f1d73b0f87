package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	TournamentUpcoming   TournamentStatus = "upcoming"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
	TournamentCancelled  TournamentStatus = "cancelled"
)

// SeedingPolicy определяет порядок рассадки участников в сетке первого раунда.
type SeedingPolicy string

const (
	SeedingDeterministic SeedingPolicy = "deterministic" // порядок регистрации
	SeedingRandom        SeedingPolicy = "random"        // перемешивание с записанным seed
)

// PrizeTier — одна строка таблицы распределения призов.
type PrizeTier struct {
	Position int   `json:"position"`
	Amount   int64 `json:"amount"`
}

// TournamentRules хранится в колонке rules (JSONB).
type TournamentRules struct {
	Rules             []string    `json:"rules"`
	PrizeDistribution []PrizeTier `json:"prize_distribution"`
}

func (r TournamentRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *TournamentRules) Scan(src interface{}) error {
	if src == nil {
		*r = TournamentRules{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported source type %T for TournamentRules", src)
	}
}

// PrizeTotal возвращает сумму всех сконфигурированных призов.
func (r TournamentRules) PrizeTotal() int64 {
	var total int64
	for _, tier := range r.PrizeDistribution {
		total += tier.Amount
	}
	return total
}

// AmountForPosition возвращает приз для позиции, 0 если позиции нет в таблице.
func (r TournamentRules) AmountForPosition(position int) int64 {
	for _, tier := range r.PrizeDistribution {
		if tier.Position == position {
			return tier.Amount
		}
	}
	return 0
}

// Tournament представляет турнир. Денежные поля — целые минорные единицы валюты.
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Title          string           `json:"title" db:"title"`
	GameType       string           `json:"game_type" db:"game_type"`
	Status         TournamentStatus `json:"status" db:"status"`
	EntryFee       int64            `json:"entry_fee" db:"entry_fee"`
	PrizePool      int64            `json:"prize_pool" db:"prize_pool"`
	MaxPlayers     int              `json:"max_players" db:"max_players"`
	CurrentPlayers int              `json:"current_players" db:"current_players"`
	StartTime      time.Time        `json:"start_time" db:"start_time"`
	Rules          TournamentRules  `json:"rules" db:"rules"`
	Seed           *int64           `json:"seed,omitempty" db:"seed"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}

// IsFull сообщает, исчерпан ли лимит участников.
func (t *Tournament) IsFull() bool {
	return t.CurrentPlayers >= t.MaxPlayers
}

func ParseSeedingPolicy(s string) (SeedingPolicy, error) {
	switch policy := SeedingPolicy(s); policy {
	case SeedingDeterministic, SeedingRandom:
		return policy, nil
	default:
		return "", errors.New("unknown seeding policy: " + s)
	}
}

var validTournamentStatuses = map[TournamentStatus]bool{
	TournamentUpcoming:   true,
	TournamentInProgress: true,
	TournamentCompleted:  true,
	TournamentCancelled:  true,
}

func ParseTournamentStatus(s string) (TournamentStatus, error) {
	status := TournamentStatus(s)
	if !validTournamentStatuses[status] {
		return "", errors.New("unknown tournament status: " + s)
	}
	return status, nil
}
