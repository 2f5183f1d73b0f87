package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/khelzone/arena-backend/brackets"
	"github.com/khelzone/arena-backend/models"
	"github.com/khelzone/arena-backend/repositories"
)

// CreateTournamentInput — параметры нового турнира. Денежные суммы в
// минимальных единицах валюты.
type CreateTournamentInput struct {
	Title      string
	GameType   string
	EntryFee   int64
	PrizePool  int64
	MaxPlayers int
	StartTime  time.Time
	Rules      models.TournamentRules
}

// TournamentService управляет жизненным циклом турнира: создание, просмотр,
// запуск, отмена и работа планировщика.
type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentDetails(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]models.Tournament, error)
	// StartTournament переводит турнир из upcoming в in_progress и строит
	// сетку первого раунда в той же транзакции.
	StartTournament(ctx context.Context, id int) error
	// CancelTournament отменяет турнир до его завершения; матчи и записи
	// участников удаляются, счётчик мест обнуляется.
	CancelTournament(ctx context.Context, id int) error
	// AutoUpdateStatuses — один тик планировщика: запускает турниры и матчи,
	// чьё стартовое время наступило.
	AutoUpdateStatuses(ctx context.Context) error
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	roundRepo       repositories.RoundProgressRepository
	bracketService  BracketService
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	roundRepo repositories.RoundProgressRepository,
	bracketService BracketService,
	hub *brackets.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		roundRepo:       roundRepo,
		bracketService:  bracketService,
		hub:             hub,
		logger:          logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.MaxPlayers < 1 {
		return nil, ErrInvalidCapacity
	}
	if !input.StartTime.After(time.Now()) {
		return nil, ErrInvalidStartTime
	}
	if input.EntryFee < 0 {
		return nil, ErrInvalidEntryFee
	}
	if input.PrizePool < 0 {
		return nil, ErrInvalidPrizePool
	}
	if err := validatePrizeTable(input.Rules, input.PrizePool); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Title:      strings.TrimSpace(input.Title),
		GameType:   input.GameType,
		Status:     models.TournamentUpcoming,
		EntryFee:   input.EntryFee,
		PrizePool:  input.PrizePool,
		MaxPlayers: input.MaxPlayers,
		StartTime:  input.StartTime.UTC(),
		Rules:      input.Rules,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("title", tournament.Title),
		slog.Int("max_players", tournament.MaxPlayers),
		slog.Time("start_time", tournament.StartTime),
	)
	return tournament, nil
}

// GetTournamentDetails собирает турнир вместе с участниками и матчами.
// Три запроса независимы и выполняются параллельно.
func (s *tournamentService) GetTournamentDetails(ctx context.Context, id int) (*models.Tournament, error) {
	var (
		tournament   *models.Tournament
		participants []*models.Participant
		matches      []*models.Match
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.tournamentRepo.GetByID(gctx, nil, id)
		return mapTournamentRepoError(err)
	})
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListByTournament(gctx, nil, id, true)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, nil, id, nil, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament.Participants = derefParticipants(participants)
	tournament.Matches = derefMatches(matches)
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]models.Tournament, error) {
	filter := repositories.ListTournamentsFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	}
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) StartTournament(ctx context.Context, id int) error {
	err := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		return s.start(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.hub.Publish(brackets.Event{
		Type:         brackets.EventTournamentStarted,
		TournamentID: id,
	})
	return nil
}

func (s *tournamentService) start(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, id)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if !isValidStatusTransition(tournament.Status, models.TournamentInProgress) {
		return ErrTournamentNotUpcoming
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, exec, id, models.TournamentInProgress); err != nil {
		return mapTournamentRepoError(err)
	}
	if err := s.bracketService.GenerateBracket(ctx, exec, tournament); err != nil {
		return err
	}

	s.logger.Info("tournament started", slog.Int("tournament_id", id))
	return nil
}

func (s *tournamentService) CancelTournament(ctx context.Context, id int) error {
	err := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		tournament, txErr := s.tournamentRepo.GetByIDForUpdate(ctx, tx, id)
		if txErr != nil {
			return mapTournamentRepoError(txErr)
		}
		switch tournament.Status {
		case models.TournamentCompleted:
			return ErrTournamentFinished
		case models.TournamentCancelled:
			return ErrTournamentCancelled
		}

		if txErr := s.tournamentRepo.UpdateStatus(ctx, tx, id, models.TournamentCancelled); txErr != nil {
			return mapTournamentRepoError(txErr)
		}
		if _, txErr := s.matchRepo.DeleteByTournament(ctx, tx, id); txErr != nil {
			return txErr
		}
		if txErr := s.roundRepo.DeleteByTournament(ctx, tx, id); txErr != nil {
			return txErr
		}
		removed, txErr := s.participantRepo.DeleteByTournament(ctx, tx, id)
		if txErr != nil {
			return txErr
		}
		if txErr := s.tournamentRepo.ResetCurrentPlayers(ctx, tx, id); txErr != nil {
			return txErr
		}

		s.logger.Info("tournament cancelled",
			slog.Int("tournament_id", id),
			slog.Int("participants_removed", removed),
		)
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Publish(brackets.Event{
		Type:         brackets.EventTournamentCancelled,
		TournamentID: id,
	})
	return nil
}

// AutoUpdateStatuses выполняется по тикеру. Сначала переводит в in_progress
// матчи, чьё расписание наступило, затем запускает созревшие турниры. Турнир
// без участников на момент старта отменяется.
func (s *tournamentService) AutoUpdateStatuses(ctx context.Context) error {
	started, err := s.matchRepo.MarkInProgressDue(ctx, nil, time.Now())
	if err != nil {
		return err
	}
	if started > 0 {
		s.logger.Info("matches moved to in_progress", slog.Int("count", started))
	}

	due, err := s.tournamentRepo.ListDueForStart(ctx, nil, time.Now())
	if err != nil {
		return err
	}
	for _, tournament := range due {
		if err := s.StartTournament(ctx, tournament.ID); err != nil {
			if errors.Is(err, ErrNoParticipants) {
				s.logger.Warn("cancelling tournament with no participants",
					slog.Int("tournament_id", tournament.ID))
				if cancelErr := s.CancelTournament(ctx, tournament.ID); cancelErr != nil {
					s.logger.Error("failed to cancel empty tournament",
						slog.Int("tournament_id", tournament.ID),
						slog.String("error", cancelErr.Error()))
				}
				continue
			}
			s.logger.Error("failed to auto-start tournament",
				slog.Int("tournament_id", tournament.ID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
