package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/khelzone/arena-backend/brackets"
	"github.com/khelzone/arena-backend/models"
	"github.com/khelzone/arena-backend/repositories"
)

// AdmissionService отвечает за допуск игроков в турнир с жёстким лимитом мест.
type AdmissionService interface {
	// JoinTournament атомарно занимает место в турнире и возвращает турнир
	// с обновлённым счётчиком, чтобы клиенту не требовался повторный запрос.
	JoinTournament(ctx context.Context, tournamentID, userID int) (*models.Tournament, error)
}

type admissionService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewAdmissionService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) AdmissionService {
	return &admissionService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *admissionService) JoinTournament(ctx context.Context, tournamentID, userID int) (*models.Tournament, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var tournament *models.Tournament
	var participant *models.Participant
	err := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		var txErr error
		tournament, participant, txErr = s.admit(ctx, tx, tournamentID, userID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("participant admitted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID),
		slog.Int("current_players", tournament.CurrentPlayers),
	)
	s.hub.Publish(brackets.Event{
		Type:         brackets.EventParticipantJoined,
		TournamentID: tournamentID,
		Payload:      participant,
	})
	return tournament, nil
}

// admit выполняет последовательность "проверить-вставить-инкрементировать" как
// единое целое. Строка турнира блокируется на время транзакции (FOR UPDATE),
// поэтому конкурирующие вызовы по одному турниру сериализуются: при k
// свободных местах и n > k претендентах место получат ровно k. Турниры между
// собой не конкурируют — блокировка построчная.
func (s *admissionService) admit(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID int) (*models.Tournament, *models.Participant, error) {
	tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
	if err != nil {
		return nil, nil, mapTournamentRepoError(err)
	}

	if err := evaluateAdmission(tournament); err != nil {
		return nil, nil, err
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
	}
	if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			// Уникальный индекс (tournament_id, user_id) делает повторный
			// вызов безопасным: мутаций нет, счётчик не трогается.
			return nil, nil, ErrAlreadyJoined
		}
		return nil, nil, err
	}

	if err := s.tournamentRepo.IncrementCurrentPlayers(ctx, exec, tournamentID); err != nil {
		return nil, nil, err
	}
	tournament.CurrentPlayers++

	return tournament, participant, nil
}

// evaluateAdmission проверяет предусловия допуска по заблокированной строке.
func evaluateAdmission(tournament *models.Tournament) error {
	switch tournament.Status {
	case models.TournamentUpcoming:
		// регистрация открыта
	case models.TournamentCancelled:
		return ErrTournamentCancelled
	default:
		return ErrRegistrationClosed
	}
	if tournament.IsFull() {
		return ErrTournamentFull
	}
	return nil
}
