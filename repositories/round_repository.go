package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/khelzone/arena-backend/models"
)

var ErrRoundProgressNotFound = errors.New("round progress not found")

// RoundProgressRepository ведёт счётчик завершения раунда. Increment — ядро
// гарантии "ровно одно продвижение раунда": инкременты сериализуются на
// строке счётчика, и только один вызов увидит completed == total.
type RoundProgressRepository interface {
	Create(ctx context.Context, exec SQLExecutor, rp *models.RoundProgress) error
	Increment(ctx context.Context, exec SQLExecutor, tournamentID, round int) (*models.RoundProgress, error)
	Get(ctx context.Context, exec SQLExecutor, tournamentID, round int) (*models.RoundProgress, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresRoundProgressRepository struct {
	db *sql.DB
}

func NewPostgresRoundProgressRepository(db *sql.DB) RoundProgressRepository {
	return &postgresRoundProgressRepository{db: db}
}

func (r *postgresRoundProgressRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundProgressRepository) Create(ctx context.Context, exec SQLExecutor, rp *models.RoundProgress) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO round_progress (tournament_id, round, total_matches, completed_matches)
		VALUES ($1, $2, $3, $4)`

	_, err := executor.ExecContext(ctx, query,
		rp.TournamentID, rp.Round, rp.TotalMatches, rp.CompletedMatches)
	if err != nil {
		return fmt.Errorf("failed to create round progress (tournament %d, round %d): %w",
			rp.TournamentID, rp.Round, err)
	}
	return nil
}

func (r *postgresRoundProgressRepository) Increment(ctx context.Context, exec SQLExecutor, tournamentID, round int) (*models.RoundProgress, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE round_progress
		SET completed_matches = completed_matches + 1
		WHERE tournament_id = $1 AND round = $2
		RETURNING tournament_id, round, total_matches, completed_matches`

	rp := &models.RoundProgress{}
	err := executor.QueryRowContext(ctx, query, tournamentID, round).Scan(
		&rp.TournamentID, &rp.Round, &rp.TotalMatches, &rp.CompletedMatches,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundProgressNotFound
		}
		return nil, fmt.Errorf("failed to increment round progress (tournament %d, round %d): %w",
			tournamentID, round, err)
	}
	return rp, nil
}

func (r *postgresRoundProgressRepository) Get(ctx context.Context, exec SQLExecutor, tournamentID, round int) (*models.RoundProgress, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT tournament_id, round, total_matches, completed_matches
		FROM round_progress
		WHERE tournament_id = $1 AND round = $2`

	rp := &models.RoundProgress{}
	err := executor.QueryRowContext(ctx, query, tournamentID, round).Scan(
		&rp.TournamentID, &rp.Round, &rp.TotalMatches, &rp.CompletedMatches,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundProgressNotFound
		}
		return nil, fmt.Errorf("failed to get round progress (tournament %d, round %d): %w",
			tournamentID, round, err)
	}
	return rp, nil
}

func (r *postgresRoundProgressRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM round_progress WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete round progress for tournament %d: %w", tournamentID, err)
	}
	return nil
}
