package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khelzone/arena-backend/brackets"
	"github.com/khelzone/arena-backend/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAdmissionFixture(t *testing.T, maxPlayers int) (*admissionService, *fakeTournamentRepo, *models.Tournament) {
	t.Helper()

	tournamentRepo := newFakeTournamentRepo()
	tournament := &models.Tournament{
		Title:      "Friday Cup",
		Status:     models.TournamentUpcoming,
		MaxPlayers: maxPlayers,
		StartTime:  time.Now().Add(time.Hour),
	}
	tournamentRepo.put(tournament)

	svc := &admissionService{
		tournamentRepo:  tournamentRepo,
		participantRepo: newFakeParticipantRepo(),
		userRepo:        newFakeUserRepo(),
		hub:             brackets.NewHub(),
		logger:          discardLogger(),
	}
	return svc, tournamentRepo, tournament
}

func TestEvaluateAdmission(t *testing.T) {
	tests := []struct {
		name       string
		tournament models.Tournament
		wantErr    error
	}{
		{
			name:       "upcoming with room admits",
			tournament: models.Tournament{Status: models.TournamentUpcoming, MaxPlayers: 4, CurrentPlayers: 3},
		},
		{
			name:       "full tournament rejects",
			tournament: models.Tournament{Status: models.TournamentUpcoming, MaxPlayers: 4, CurrentPlayers: 4},
			wantErr:    ErrTournamentFull,
		},
		{
			name:       "in progress rejects",
			tournament: models.Tournament{Status: models.TournamentInProgress, MaxPlayers: 4},
			wantErr:    ErrRegistrationClosed,
		},
		{
			name:       "completed rejects",
			tournament: models.Tournament{Status: models.TournamentCompleted, MaxPlayers: 4},
			wantErr:    ErrRegistrationClosed,
		},
		{
			name:       "cancelled rejects",
			tournament: models.Tournament{Status: models.TournamentCancelled, MaxPlayers: 4},
			wantErr:    ErrTournamentCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluateAdmission(&tt.tournament)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAdmitReturnsUpdatedTournament(t *testing.T) {
	svc, _, tournament := newAdmissionFixture(t, 4)

	updated, participant, err := svc.admit(context.Background(), nil, tournament.ID, 42)
	require.NoError(t, err)
	require.Equal(t, 1, updated.CurrentPlayers)
	require.Equal(t, 42, participant.UserID)
	require.Equal(t, tournament.ID, participant.TournamentID)
}

func TestAdmitRejectsDuplicateJoin(t *testing.T) {
	svc, repo, tournament := newAdmissionFixture(t, 4)

	_, _, err := svc.admit(context.Background(), nil, tournament.ID, 42)
	require.NoError(t, err)

	_, _, err = svc.admit(context.Background(), nil, tournament.ID, 42)
	require.ErrorIs(t, err, ErrAlreadyJoined)

	// Повторная попытка не трогает счётчик.
	stored, err := repo.GetByID(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.CurrentPlayers)
}

func TestAdmitUnknownTournament(t *testing.T) {
	svc, _, _ := newAdmissionFixture(t, 4)

	_, _, err := svc.admit(context.Background(), nil, 9999, 42)
	require.ErrorIs(t, err, ErrTournamentNotFound)
}

// При k свободных местах и n > k претендентах место получают ровно k.
// Блокировка строки турнира моделируется мьютексом: в Postgres конкурирующие
// admit-транзакции сериализуются FOR UPDATE точно так же.
func TestAdmitCapacityUnderContention(t *testing.T) {
	const capacity = 3
	const contenders = 10

	svc, repo, tournament := newAdmissionFixture(t, capacity)

	var rowLock sync.Mutex
	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			rowLock.Lock()
			defer rowLock.Unlock()
			_, _, errs[userID-1] = svc.admit(context.Background(), nil, tournament.ID, userID)
		}(i + 1)
	}
	wg.Wait()

	admitted, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			admitted++
		default:
			require.ErrorIs(t, err, ErrTournamentFull)
			rejected++
		}
	}
	require.Equal(t, capacity, admitted)
	require.Equal(t, contenders-capacity, rejected)

	stored, err := repo.GetByID(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
	require.Equal(t, capacity, stored.CurrentPlayers)
}
