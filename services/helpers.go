package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/khelzone/arena-backend/models"
	"github.com/khelzone/arena-backend/repositories"
)

// runInTransaction выполняет fn внутри транзакции: rollback при ошибке или
// панике, commit при успехе.
func runInTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isValidStatusTransition описывает допустимые переходы статуса турнира.
// completed и cancelled терминальны.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	allowed := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentUpcoming:   {models.TournamentInProgress, models.TournamentCancelled},
		models.TournamentInProgress: {models.TournamentCompleted, models.TournamentCancelled},
		models.TournamentCompleted:  {},
		models.TournamentCancelled:  {},
	}
	for _, status := range allowed[current] {
		if next == status {
			return true
		}
	}
	return false
}

// mapTournamentRepoError переводит ошибки репозитория турниров в сервисные.
func mapTournamentRepoError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

func participantIDs(participants []*models.Participant) []int {
	ids := make([]int, len(participants))
	for i, p := range participants {
		ids[i] = p.UserID
	}
	return ids
}

func derefParticipants(slice []*models.Participant) []models.Participant {
	if slice == nil {
		return []models.Participant{}
	}
	result := make([]models.Participant, len(slice))
	for i, ptr := range slice {
		if ptr != nil {
			result[i] = *ptr
		}
	}
	return result
}

func derefMatches(slice []*models.Match) []models.Match {
	if slice == nil {
		return []models.Match{}
	}
	result := make([]models.Match, len(slice))
	for i, ptr := range slice {
		if ptr != nil {
			result[i] = *ptr
		}
	}
	return result
}

// validatePrizeTable проверяет конфигурацию призовой таблицы против пула.
// Превышение пула — ошибка конфигурации, а не повод молча урезать выплаты.
func validatePrizeTable(rules models.TournamentRules, prizePool int64) error {
	seen := make(map[int]bool, len(rules.PrizeDistribution))
	for _, tier := range rules.PrizeDistribution {
		if tier.Position < 1 {
			return fmt.Errorf("%w: position %d is below 1", ErrInvalidPrizeTable, tier.Position)
		}
		if tier.Amount < 0 {
			return fmt.Errorf("%w: negative amount for position %d", ErrInvalidPrizeTable, tier.Position)
		}
		if seen[tier.Position] {
			return fmt.Errorf("%w: duplicate position %d", ErrInvalidPrizeTable, tier.Position)
		}
		seen[tier.Position] = true
	}
	if total := rules.PrizeTotal(); total > prizePool {
		return fmt.Errorf("%w: configured %d, pool %d", ErrPrizeTableExceedsPool, total, prizePool)
	}
	return nil
}
