package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/khelzone/arena-backend/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchTournamentInvalid  = errors.New("match tournament reference invalid")
	ErrMatchParticipantInvalid = errors.New("match player reference invalid")
	ErrMatchSlotConflict       = errors.New("match slot conflict for this round")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetByIDForUpdate блокирует строку матча до конца транзакции exec,
	// сериализуя конкурирующие отправки результата одного матча.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	// ListByUser возвращает матчи, где пользователь один из игроков,
	// свежие первыми.
	ListByUser(ctx context.Context, userID int) ([]*models.Match, error)
	Complete(ctx context.Context, exec SQLExecutor, id int, winnerID int, score *string, proofKey *string, completedAt time.Time) error
	MarkInProgressDue(ctx context.Context, exec SQLExecutor, now time.Time) (int, error)
	MarkInProgress(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, round, slot, player1_id, player2_id, status,
	winner_id, score, proof_key, scheduled_time, completed_at, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (
			tournament_id, round, slot, player1_id, player2_id, status,
			winner_id, score, proof_key, scheduled_time, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID, match.Round, match.Slot,
		match.Player1ID, match.Player2ID, match.Status,
		match.WinnerID, match.Score, match.ProofKey,
		match.ScheduledTime, match.CompletedAt,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) scanMatch(row *sql.Row) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID, &match.TournamentID, &match.Round, &match.Slot,
		&match.Player1ID, &match.Player2ID, &match.Status,
		&match.WinnerID, &match.Score, &match.ProofKey,
		&match.ScheduledTime, &match.CompletedAt, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.scanMatch(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}

	// slot внутри раунда — порядок сетки
	queryBuilder.WriteString(" ORDER BY round ASC, slot ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := rows.Scan(
			&match.ID, &match.TournamentID, &match.Round, &match.Slot,
			&match.Player1ID, &match.Player2ID, &match.Status,
			&match.WinnerID, &match.Score, &match.ProofKey,
			&match.ScheduledTime, &match.CompletedAt, &match.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &match)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListByUser(ctx context.Context, userID int) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE player1_id = $1 OR player2_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for user %d: %w", userID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := rows.Scan(
			&match.ID, &match.TournamentID, &match.Round, &match.Slot,
			&match.Player1ID, &match.Player2ID, &match.Status,
			&match.WinnerID, &match.Score, &match.ProofKey,
			&match.ScheduledTime, &match.CompletedAt, &match.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &match)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

// Complete переводит матч в completed. Статусный guard в WHERE — вторая линия
// обороны после FOR UPDATE в сервисе: завершённый матч не перезаписывается.
func (r *postgresMatchRepository) Complete(ctx context.Context, exec SQLExecutor, id int, winnerID int, score *string, proofKey *string, completedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET status = $1, winner_id = $2, score = $3, proof_key = $4, completed_at = $5
		WHERE id = $6 AND status = $7`

	result, err := executor.ExecContext(ctx, query,
		models.MatchCompleted, winnerID, score, proofKey, completedAt,
		id, models.MatchInProgress,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MarkInProgressDue(ctx context.Context, exec SQLExecutor, now time.Time) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET status = $1
		WHERE status = $2 AND scheduled_time <= $3`

	result, err := executor.ExecContext(ctx, query, models.MatchInProgress, models.MatchPending, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark due matches in progress: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *postgresMatchRepository) MarkInProgress(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1 WHERE id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, models.MatchInProgress, id, models.MatchPending)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches for tournament %d: %w", tournamentID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "matches_tournament_id_round_slot_key" {
				return ErrMatchSlotConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "matches_tournament_id_fkey":
				return ErrMatchTournamentInvalid
			case "matches_player1_id_fkey", "matches_player2_id_fkey", "matches_winner_id_fkey":
				return ErrMatchParticipantInvalid
			}
		}
	}
	return err
}
