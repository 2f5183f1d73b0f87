package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/khelzone/arena-backend/brackets"
	"github.com/khelzone/arena-backend/models"
	"github.com/khelzone/arena-backend/repositories"
)

// SubmitResultInput — данные отчёта о результате матча. Score и ProofKey
// опциональны; ProofKey ссылается на ранее загруженный в хранилище файл.
type SubmitResultInput struct {
	WinnerID int
	Score    *string
	ProofKey *string
}

// ResultService принимает отчёты о результатах матчей и отдаёт итоги турнира.
type ResultService interface {
	// SubmitResult фиксирует результат матча от имени reporterID. Первый
	// валидный отчёт закрывает матч; повторные отклоняются без мутаций.
	// Если отчёт закрывает последний матч раунда, продвижение сетки
	// происходит в той же транзакции.
	SubmitResult(ctx context.Context, matchID, reporterID int, input SubmitResultInput) (*models.Match, error)
	// StartMatch переводит матч из pending в in_progress вручную,
	// не дожидаясь планировщика.
	StartMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListTournamentResults(ctx context.Context, tournamentID int) ([]models.TournamentResult, error)
}

type resultService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	roundRepo      repositories.RoundProgressRepository
	resultRepo     repositories.ResultRepository
	bracketService BracketService
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewResultService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	roundRepo repositories.RoundProgressRepository,
	resultRepo repositories.ResultRepository,
	bracketService BracketService,
	hub *brackets.Hub,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		roundRepo:      roundRepo,
		resultRepo:     resultRepo,
		bracketService: bracketService,
		hub:            hub,
		logger:         logger,
	}
}

func (s *resultService) SubmitResult(ctx context.Context, matchID, reporterID int, input SubmitResultInput) (*models.Match, error) {
	var match *models.Match
	err := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		var txErr error
		match, txErr = s.submit(ctx, tx, matchID, reporterID, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match result recorded",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
		slog.Int("round", match.Round),
		slog.Int("winner_user_id", *match.WinnerID),
		slog.Int("reporter_user_id", reporterID),
	)
	s.hub.Publish(brackets.Event{
		Type:         brackets.EventMatchCompleted,
		TournamentID: match.TournamentID,
		Payload:      match,
	})
	return match, nil
}

// submit — тело транзакции отправки результата. Строка матча блокируется
// FOR UPDATE, так что из конкурирующих отчётов по одному матчу выигрывает
// ровно один; остальные увидят completed и получат отказ. Инкремент счётчика
// раунда возвращает обновлённое состояние, поэтому ровно один отчёт
// наблюдает закрытие раунда и запускает продвижение сетки.
func (s *resultService) submit(ctx context.Context, exec repositories.SQLExecutor, matchID, reporterID int, input SubmitResultInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, exec, match.TournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	switch tournament.Status {
	case models.TournamentInProgress:
		// отчёты принимаются
	case models.TournamentCancelled:
		return nil, ErrTournamentCancelled
	default:
		return nil, ErrTournamentNotInProgress
	}

	if err := adjudicate(match, reporterID, input.WinnerID); err != nil {
		return nil, err
	}

	completedAt := time.Now()
	if err := s.matchRepo.Complete(ctx, exec, matchID, input.WinnerID, input.Score, input.ProofKey, completedAt); err != nil {
		return nil, err
	}
	match.Status = models.MatchCompleted
	match.WinnerID = &input.WinnerID
	match.Score = input.Score
	match.ProofKey = input.ProofKey
	match.CompletedAt = &completedAt

	progress, err := s.roundRepo.Increment(ctx, exec, match.TournamentID, match.Round)
	if err != nil {
		return nil, err
	}
	if progress.Complete() {
		if err := s.bracketService.AdvanceRound(ctx, exec, match.TournamentID, match.Round); err != nil {
			return nil, fmt.Errorf("failed to advance round %d of tournament %d: %w", match.Round, match.TournamentID, err)
		}
	}

	return match, nil
}

// adjudicate проверяет отчёт против заблокированной строки матча.
func adjudicate(match *models.Match, reporterID, winnerID int) error {
	if match.Status == models.MatchCompleted {
		return ErrMatchAlreadyCompleted
	}
	if match.Status != models.MatchInProgress {
		return ErrMatchNotInProgress
	}
	if !match.HasPlayer(reporterID) {
		return ErrReporterNotParticipant
	}
	if !match.HasPlayer(winnerID) {
		return ErrWinnerNotParticipant
	}
	return nil
}

func (s *resultService) StartMatch(ctx context.Context, matchID int) (*models.Match, error) {
	var match *models.Match
	err := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		var txErr error
		match, txErr = s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
		if txErr != nil {
			if errors.Is(txErr, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return txErr
		}
		switch match.Status {
		case models.MatchInProgress:
			// уже запущен, повторный вызов безвреден
			return nil
		case models.MatchCompleted:
			return ErrMatchAlreadyCompleted
		}
		if txErr := s.matchRepo.MarkInProgress(ctx, tx, matchID); txErr != nil {
			return txErr
		}
		match.Status = models.MatchInProgress
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match started",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
	)
	return match, nil
}

func (s *resultService) ListTournamentResults(ctx context.Context, tournamentID int) ([]models.TournamentResult, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if tournament.Status != models.TournamentCompleted {
		return nil, ErrResultsNotFound
	}

	results, err := s.resultRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TournamentResult, len(results))
	for i, r := range results {
		out[i] = *r
	}
	return out, nil
}
