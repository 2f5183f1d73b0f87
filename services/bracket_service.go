package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/khelzone/arena-backend/brackets"
	"github.com/khelzone/arena-backend/models"
	"github.com/khelzone/arena-backend/repositories"
)

// Матчи следующего раунда назначаются с небольшим отступом, чтобы игроки
// успели увидеть пару до перевода матча в in_progress планировщиком.
const nextRoundLeadTime = 15 * time.Minute

// BracketService — движок сетки single elimination: материализация первого
// раунда и продвижение победителей. Оба метода работают внутри транзакции
// вызывающего сервиса.
type BracketService interface {
	GenerateBracket(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) error
	AdvanceRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) error
}

type bracketService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	roundRepo       repositories.RoundProgressRepository
	prizeService    PrizeService
	generator       brackets.Generator
	seeding         models.SeedingPolicy
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	roundRepo repositories.RoundProgressRepository,
	prizeService PrizeService,
	generator brackets.Generator,
	seeding models.SeedingPolicy,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		roundRepo:       roundRepo,
		prizeService:    prizeService,
		generator:       generator,
		seeding:         seeding,
		hub:             hub,
		logger:          logger,
	}
}

// GenerateBracket вызывается ровно один раз, на переходе upcoming → in_progress.
// Читает участников в порядке регистрации, применяет политику рассадки и
// создаёт матчи первого раунда. Нечётный участник получает bye-матч,
// создаваемый сразу завершённым.
func (s *bracketService) GenerateBracket(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) error {
	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournament.ID, false)
	if err != nil {
		return fmt.Errorf("failed to list participants for tournament %d: %w", tournament.ID, err)
	}

	switch len(participants) {
	case 0:
		return ErrNoParticipants
	case 1:
		// Единственный участник побеждает без единого матча.
		return s.completeTournament(ctx, exec, tournament.ID, participants[0].UserID)
	}

	playerIDs := participantIDs(participants)

	seed := int64(0)
	if s.seeding == models.SeedingRandom {
		seed = time.Now().UnixNano()
		if err := s.tournamentRepo.SetSeed(ctx, exec, tournament.ID, seed); err != nil {
			return fmt.Errorf("failed to record bracket seed for tournament %d: %w", tournament.ID, err)
		}
	}
	seeded, err := brackets.SeedOrder(playerIDs, s.seeding, seed)
	if err != nil {
		return err
	}

	pairings := s.generator.FirstRound(seeded)
	scheduled := tournament.StartTime
	if now := time.Now(); now.After(scheduled) {
		scheduled = now
	}
	if err := s.createRoundMatches(ctx, exec, tournament.ID, pairings, scheduled); err != nil {
		return err
	}

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("participants", len(participants)),
		slog.Int("round1_matches", len(pairings)),
		slog.String("seeding", string(s.seeding)),
		slog.Int("rounds_expected", brackets.RoundsForPlayers(len(participants))),
	)
	return nil
}

// AdvanceRound вызывается после того, как счётчик завершения раунда достиг
// числа его матчей. Пары следующего раунда строятся из победителей в порядке
// slot, что сохраняет структуру сетки. Когда победитель остаётся один,
// турнир завершается и запускается распределение призов.
func (s *bracketService) AdvanceRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) error {
	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, &round, nil)
	if err != nil {
		return fmt.Errorf("failed to list round %d matches for tournament %d: %w", round, tournamentID, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no matches found for tournament %d round %d", tournamentID, round)
	}

	winners := make([]int, 0, len(matches))
	for _, m := range matches {
		if m.Status != models.MatchCompleted || m.WinnerID == nil {
			return fmt.Errorf("cannot advance tournament %d: match %d of round %d is not completed", tournamentID, m.ID, round)
		}
		winners = append(winners, *m.WinnerID)
	}

	if len(winners) == 1 {
		return s.completeTournament(ctx, exec, tournamentID, winners[0])
	}

	pairings := s.generator.NextRound(round, winners)
	scheduled := time.Now().Add(nextRoundLeadTime)
	if err := s.createRoundMatches(ctx, exec, tournamentID, pairings, scheduled); err != nil {
		return err
	}

	s.logger.Info("round advanced",
		slog.Int("tournament_id", tournamentID),
		slog.Int("completed_round", round),
		slog.Int("next_round_matches", len(pairings)),
	)
	s.hub.Publish(brackets.Event{
		Type:         brackets.EventRoundAdvanced,
		TournamentID: tournamentID,
		Payload:      map[string]int{"completed_round": round, "next_round": round + 1},
	})
	return nil
}

// createRoundMatches сохраняет пары раунда и заводит его счётчик завершения.
// Bye учитываются в счётчике сразу, поэтому раунд закрывается после
// завершения всех настоящих матчей.
func (s *bracketService) createRoundMatches(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, pairings []brackets.Pairing, scheduled time.Time) error {
	if len(pairings) == 0 {
		return fmt.Errorf("no pairings to create for tournament %d", tournamentID)
	}

	byes := 0
	round := pairings[0].Round
	now := time.Now()
	for _, pairing := range pairings {
		match := &models.Match{
			TournamentID:  tournamentID,
			Round:         pairing.Round,
			Slot:          pairing.Slot,
			Player1ID:     pairing.Player1,
			Player2ID:     pairing.Player2,
			Status:        models.MatchPending,
			ScheduledTime: scheduled,
		}
		if pairing.IsBye() {
			winner := pairing.Player1
			completedAt := now
			match.Status = models.MatchCompleted
			match.WinnerID = &winner
			match.CompletedAt = &completedAt
			byes++
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return fmt.Errorf("failed to create match (round %d, slot %d) for tournament %d: %w",
				pairing.Round, pairing.Slot, tournamentID, err)
		}
	}

	progress := &models.RoundProgress{
		TournamentID:     tournamentID,
		Round:            round,
		TotalMatches:     len(pairings),
		CompletedMatches: byes,
	}
	if err := s.roundRepo.Create(ctx, exec, progress); err != nil {
		return err
	}
	return nil
}

func (s *bracketService) completeTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID, winnerID int) error {
	if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.TournamentCompleted); err != nil {
		return mapTournamentRepoError(err)
	}
	if err := s.prizeService.Distribute(ctx, exec, tournamentID); err != nil {
		return err
	}

	s.logger.Info("tournament completed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("winner_user_id", winnerID),
	)
	s.hub.Publish(brackets.Event{
		Type:         brackets.EventTournamentCompleted,
		TournamentID: tournamentID,
		Payload:      map[string]int{"winner_user_id": winnerID},
	})
	return nil
}
