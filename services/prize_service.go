package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/khelzone/arena-backend/brackets"
	"github.com/khelzone/arena-backend/models"
	"github.com/khelzone/arena-backend/repositories"
)

// PrizeService фиксирует итоговые места и призы завершённого турнира.
// Distribute выполняется внутри транзакции, завершившей турнир, и ровно один
// раз: уникальный индекс (tournament_id, user_id) отсекает повторный запуск.
type PrizeService interface {
	Distribute(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error
}

type prizeService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	resultRepo      repositories.ResultRepository
	logger          *slog.Logger
}

func NewPrizeService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	logger *slog.Logger,
) PrizeService {
	return &prizeService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		resultRepo:      resultRepo,
		logger:          logger,
	}
}

func (s *prizeService) Distribute(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	exists, err := s.resultRepo.ExistsByTournament(ctx, exec, tournamentID)
	if err != nil {
		return err
	}
	if exists {
		return ErrResultsAlreadyDistributed
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if err := validatePrizeTable(tournament.Rules, tournament.PrizePool); err != nil {
		return err
	}

	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID, false)
	if err != nil {
		return fmt.Errorf("failed to list participants for prize distribution: %w", err)
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}

	var standings []int
	if len(participants) == 1 {
		standings = []int{participants[0].UserID}
	} else {
		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to list matches for prize distribution: %w", err)
		}
		standings, err = brackets.FinalStandings(matches)
		if err != nil {
			return err
		}
	}
	if len(standings) != len(participants) {
		return fmt.Errorf("standings cover %d users, tournament %d has %d participants",
			len(standings), tournamentID, len(participants))
	}

	results := allocatePrizes(tournamentID, standings, tournament.Rules)
	var paidOut int64
	for _, result := range results {
		if err := s.resultRepo.Create(ctx, exec, result); err != nil {
			return err
		}
		paidOut += result.PrizeAmount
	}

	s.logger.Info("prizes distributed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("positions", len(results)),
		slog.Int64("paid_out", paidOut),
		slog.Int64("prize_pool", tournament.PrizePool),
	)
	return nil
}

// allocatePrizes назначает места по порядку standings и суммы по призовой
// таблице; позиции вне таблицы получают 0.
func allocatePrizes(tournamentID int, standings []int, rules models.TournamentRules) []*models.TournamentResult {
	results := make([]*models.TournamentResult, 0, len(standings))
	for i, userID := range standings {
		position := i + 1
		results = append(results, &models.TournamentResult{
			TournamentID: tournamentID,
			UserID:       userID,
			Position:     position,
			PrizeAmount:  rules.AmountForPosition(position),
		})
	}
	return results
}
