package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/khelzone/arena-backend/models"
	"github.com/lib/pq"
)

var (
	ErrResultNotFound = errors.New("tournament result not found")
	ErrResultConflict = errors.New("tournament result already exists for this user")
)

type ResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentResult, error)
	ExistsByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresResultRepository) Create(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_results (tournament_id, user_id, position, prize_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		result.TournamentID, result.UserID, result.Position, result.PrizeAmount,
	).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// Уникальность (tournament_id, user_id) страхует "ровно один раз".
			return ErrResultConflict
		}
		return fmt.Errorf("failed to create tournament result: %w", err)
	}
	return nil
}

func (r *postgresResultRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentResult, error) {
	query := `
		SELECT tr.id, tr.tournament_id, tr.user_id, tr.position, tr.prize_amount, tr.created_at,
		       COALESCE(u.id, 0), COALESCE(u.username, '')
		FROM tournament_results tr
		LEFT JOIN users u ON tr.user_id = u.id
		WHERE tr.tournament_id = $1
		ORDER BY tr.position ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament results: %w", err)
	}
	defer rows.Close()

	results := make([]*models.TournamentResult, 0)
	for rows.Next() {
		var res models.TournamentResult
		var u models.User
		if scanErr := rows.Scan(
			&res.ID, &res.TournamentID, &res.UserID, &res.Position, &res.PrizeAmount, &res.CreatedAt,
			&u.ID, &u.Username,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament result row: %w", scanErr)
		}
		if u.ID > 0 {
			res.User = &u
		}
		results = append(results, &res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament result rows: %w", err)
	}
	return results, nil
}

func (r *postgresResultRepository) ExistsByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tournament_results WHERE tournament_id = $1)`, tournamentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tournament results existence: %w", err)
	}
	return exists, nil
}
