package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khelzone/arena-backend/brackets"
	"github.com/khelzone/arena-backend/models"
)

func newTournamentFixture(t *testing.T) (*tournamentService, *fakeTournamentRepo) {
	t.Helper()
	repo := newFakeTournamentRepo()
	svc := &tournamentService{
		tournamentRepo: repo,
		logger:         discardLogger(),
	}
	return svc, repo
}

func validCreateInput() CreateTournamentInput {
	return CreateTournamentInput{
		Title:      "Autumn Open",
		GameType:   "chess",
		EntryFee:   100,
		PrizePool:  1000,
		MaxPlayers: 8,
		StartTime:  time.Now().Add(24 * time.Hour),
		Rules: rulesWithTiers(
			models.PrizeTier{Position: 1, Amount: 700},
			models.PrizeTier{Position: 2, Amount: 300},
		),
	}
}

func TestCreateTournamentValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *CreateTournamentInput)
		wantErr error
	}{
		{
			name:   "valid input",
			mutate: func(in *CreateTournamentInput) {},
		},
		{
			name:    "blank title",
			mutate:  func(in *CreateTournamentInput) { in.Title = "   " },
			wantErr: ErrTitleRequired,
		},
		{
			name:    "zero capacity",
			mutate:  func(in *CreateTournamentInput) { in.MaxPlayers = 0 },
			wantErr: ErrInvalidCapacity,
		},
		{
			name:    "start time in the past",
			mutate:  func(in *CreateTournamentInput) { in.StartTime = time.Now().Add(-time.Hour) },
			wantErr: ErrInvalidStartTime,
		},
		{
			name:    "negative entry fee",
			mutate:  func(in *CreateTournamentInput) { in.EntryFee = -1 },
			wantErr: ErrInvalidEntryFee,
		},
		{
			name:    "negative prize pool",
			mutate:  func(in *CreateTournamentInput) { in.PrizePool = -1 },
			wantErr: ErrInvalidPrizePool,
		},
		{
			name: "prize table exceeds pool",
			mutate: func(in *CreateTournamentInput) {
				in.Rules = rulesWithTiers(models.PrizeTier{Position: 1, Amount: 2000})
			},
			wantErr: ErrPrizeTableExceedsPool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTournamentFixture(t)
			input := validCreateInput()
			tt.mutate(&input)

			tournament, err := svc.CreateTournament(context.Background(), input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, models.TournamentUpcoming, tournament.Status)
			require.Equal(t, 0, tournament.CurrentPlayers)
			require.NotZero(t, tournament.ID)
		})
	}
}

func TestListTournamentsFiltersByStatus(t *testing.T) {
	svc, repo := newTournamentFixture(t)

	repo.put(&models.Tournament{Title: "a", Status: models.TournamentUpcoming, MaxPlayers: 4, StartTime: time.Now()})
	repo.put(&models.Tournament{Title: "b", Status: models.TournamentInProgress, MaxPlayers: 4, StartTime: time.Now()})
	repo.put(&models.Tournament{Title: "c", Status: models.TournamentUpcoming, MaxPlayers: 4, StartTime: time.Now()})

	all, err := svc.ListTournaments(context.Background(), nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	upcoming := models.TournamentUpcoming
	filtered, err := svc.ListTournaments(context.Background(), &upcoming, 20, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, tournament := range filtered {
		require.Equal(t, models.TournamentUpcoming, tournament.Status)
	}
}

// start работает на переданном экзекьюторе и пригоден для вызова как из
// HTTP-запроса, так и из планировщика.
func TestStartTournamentTransitionGuards(t *testing.T) {
	repo := newFakeTournamentRepo()
	participants := newFakeParticipantRepo()
	matches := newFakeMatchRepo()
	rounds := newFakeRoundRepo()
	results := newFakeResultRepo()
	logger := discardLogger()

	prize := &prizeService{
		tournamentRepo:  repo,
		participantRepo: participants,
		matchRepo:       matches,
		resultRepo:      results,
		logger:          logger,
	}
	svc := &tournamentService{
		tournamentRepo:  repo,
		participantRepo: participants,
		matchRepo:       matches,
		roundRepo:       rounds,
		logger:          logger,
	}
	svc.bracketService = &bracketService{
		tournamentRepo:  repo,
		participantRepo: participants,
		matchRepo:       matches,
		roundRepo:       rounds,
		prizeService:    prize,
		generator:       brackets.NewSingleEliminationGenerator(),
		seeding:         models.SeedingDeterministic,
		hub:             brackets.NewHub(),
		logger:          logger,
	}

	tournament := &models.Tournament{Title: "x", Status: models.TournamentCompleted, MaxPlayers: 4, StartTime: time.Now()}
	repo.put(tournament)

	err := svc.start(context.Background(), nil, tournament.ID)
	require.ErrorIs(t, err, ErrTournamentNotUpcoming)

	err = svc.start(context.Background(), nil, 9999)
	require.ErrorIs(t, err, ErrTournamentNotFound)
}
