package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/khelzone/arena-backend/models"
	"github.com/khelzone/arena-backend/repositories"
)

// HistoryService — проекции профиля пользователя: сыгранные турниры с
// итоговыми местами и личные матчи.
type HistoryService interface {
	UserTournaments(ctx context.Context, userID int) ([]models.TournamentHistoryEntry, error)
	UserMatches(ctx context.Context, userID int) ([]models.Match, error)
}

type historyService struct {
	userRepo        repositories.UserRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	logger          *slog.Logger
}

func NewHistoryService(
	userRepo repositories.UserRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) HistoryService {
	return &historyService{
		userRepo:        userRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		logger:          logger,
	}
}

func (s *historyService) UserTournaments(ctx context.Context, userID int) ([]models.TournamentHistoryEntry, error) {
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	entries, err := s.participantRepo.ListHistoryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.TournamentHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, *entry)
	}
	return out, nil
}

func (s *historyService) UserMatches(ctx context.Context, userID int) ([]models.Match, error) {
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return derefMatches(matches), nil
}

func (s *historyService) checkUserExists(ctx context.Context, userID int) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
