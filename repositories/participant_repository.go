package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/khelzone/arena-backend/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantConflict          = errors.New("participant conflict: user already registered for this tournament")
	ErrParticipantUserInvalid       = errors.New("participant user reference invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament reference invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, includeUser bool) ([]*models.Participant, error)
	// ListHistoryByUser возвращает историю участий пользователя: каждый допуск
	// вместе с турниром и, для завершённых турниров, итоговым местом и призом.
	ListHistoryByUser(ctx context.Context, userID int) ([]*models.TournamentHistoryEntry, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (tournament_id, user_id)
		VALUES ($1, $2)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query, p.TournamentID, p.UserID).Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "participants_tournament_id_user_id_key" {
					return ErrParticipantConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "participants_tournament_id_fkey":
					return ErrParticipantTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// ListHistoryByUser строит проекцию профиля: допуски пользователя вместе с
// турнирами и LEFT JOIN на итоговые результаты. Место и приз NULL, пока
// турнир не завершён. Свежие турниры первыми.
func (r *postgresParticipantRepository) ListHistoryByUser(ctx context.Context, userID int) ([]*models.TournamentHistoryEntry, error) {
	query := `
		SELECT t.id, t.title, t.game_type, t.status, t.prize_pool, t.start_time,
		       p.joined_at, res.position, res.prize_amount
		FROM participants p
		JOIN tournaments t ON t.id = p.tournament_id
		LEFT JOIN tournament_results res
		       ON res.tournament_id = p.tournament_id AND res.user_id = p.user_id
		WHERE p.user_id = $1
		ORDER BY t.start_time DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament history for user %d: %w", userID, err)
	}
	defer rows.Close()

	entries := make([]*models.TournamentHistoryEntry, 0)
	for rows.Next() {
		var e models.TournamentHistoryEntry
		if err := rows.Scan(
			&e.TournamentID, &e.Title, &e.GameType, &e.Status, &e.PrizePool,
			&e.StartTime, &e.JoinedAt, &e.Position, &e.PrizeAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament history row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament history rows: %w", err)
	}
	return entries, nil
}

// ListByTournament возвращает участников в порядке регистрации (joined_at ASC).
// Этот порядок является детерминированной рассадкой сетки.
func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, includeUser bool) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT p.id, p.tournament_id, p.user_id, p.joined_at`)
	if includeUser {
		queryBuilder.WriteString(`,
			COALESCE(u.id, 0) AS user_db_id, COALESCE(u.username, '') AS user_username`)
	}
	queryBuilder.WriteString(`
		FROM participants p`)
	if includeUser {
		queryBuilder.WriteString(`
		LEFT JOIN users u ON p.user_id = u.id`)
	}
	queryBuilder.WriteString(` WHERE p.tournament_id = $1 ORDER BY p.joined_at ASC, p.id ASC`)

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by tournament: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.User
		scanDest := []interface{}{&p.ID, &p.TournamentID, &p.UserID, &p.JoinedAt}
		if includeUser {
			scanDest = append(scanDest, &u.ID, &u.Username)
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		if includeUser && u.ID > 0 {
			p.User = &u
		}
		participants = append(participants, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

// DeleteByTournament удаляет всех участников турнира (каскад при отмене).
func (r *postgresParticipantRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM participants WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete participants for tournament %d: %w", tournamentID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(affected), nil
}
