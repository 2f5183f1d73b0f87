package services

// Потокобезопасные in-memory реализации репозиториев для тестов сервисного
// слоя. Аргумент exec игнорируется: транзакционность моделируется мьютексом
// на уровне хранилища, так же как FOR UPDATE сериализует конкурентов в базе.

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/khelzone/arena-backend/models"
	"github.com/khelzone/arena-backend/repositories"
)

type fakeTournamentRepo struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{nextID: 1, tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) put(t *models.Tournament) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	stored := *t
	r.tournaments[t.ID] = &stored
	return t
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	t.CreatedAt = time.Now()
	r.put(t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) IncrementCurrentPlayers(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentPlayers++
	return nil
}

func (r *fakeTournamentRepo) ResetCurrentPlayers(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentPlayers = 0
	return nil
}

func (r *fakeTournamentRepo) SetSeed(ctx context.Context, exec repositories.SQLExecutor, id int, seed int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Seed = &seed
	return nil
}

func (r *fakeTournamentRepo) ListDueForStart(ctx context.Context, exec repositories.SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if t.Status == models.TournamentUpcoming && !t.StartTime.After(now) {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	nextID       int
	participants []*models.Participant

	// Источники для ListHistoryByUser: join по данным соседних фейков.
	tournaments *fakeTournamentRepo
	results     *fakeResultRepo
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{nextID: 1}
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.TournamentID == p.TournamentID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.nextID
	r.nextID++
	p.JoinedAt = time.Now()
	stored := *p
	r.participants = append(r.participants, &stored)
	return nil
}

func (r *fakeParticipantRepo) ListHistoryByUser(ctx context.Context, userID int) ([]*models.TournamentHistoryEntry, error) {
	r.mu.Lock()
	var own []models.Participant
	for _, p := range r.participants {
		if p.UserID == userID {
			own = append(own, *p)
		}
	}
	r.mu.Unlock()

	out := make([]*models.TournamentHistoryEntry, 0, len(own))
	for _, p := range own {
		if r.tournaments == nil {
			break
		}
		t, err := r.tournaments.GetByID(ctx, nil, p.TournamentID)
		if err != nil {
			continue
		}
		entry := &models.TournamentHistoryEntry{
			TournamentID: t.ID,
			Title:        t.Title,
			GameType:     t.GameType,
			Status:       t.Status,
			PrizePool:    t.PrizePool,
			StartTime:    t.StartTime,
			JoinedAt:     p.JoinedAt,
		}
		if r.results != nil {
			results, _ := r.results.ListByTournament(ctx, p.TournamentID)
			for _, res := range results {
				if res.UserID == userID {
					position := res.Position
					amount := res.PrizeAmount
					entry.Position = &position
					entry.PrizeAmount = &amount
				}
			}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].TournamentID > out[j].TournamentID
	})
	return out, nil
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, includeUser bool) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Participant
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*models.Participant
	removed := 0
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	r.participants = kept
	return removed, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.matches {
		if existing.TournamentID == match.TournamentID && existing.Round == match.Round && existing.Slot == match.Slot {
			return repositories.ErrMatchSlotConflict
		}
	}
	match.ID = r.nextID
	r.nextID++
	match.CreatedAt = time.Now()
	stored := *match
	r.matches[match.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func (r *fakeMatchRepo) ListByUser(ctx context.Context, userID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.HasPlayer(userID) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id int, winnerID int, score *string, proofKey *string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok || m.Status != models.MatchInProgress {
		return repositories.ErrMatchNotFound
	}
	m.Status = models.MatchCompleted
	m.WinnerID = &winnerID
	m.Score = score
	m.ProofKey = proofKey
	m.CompletedAt = &completedAt
	return nil
}

func (r *fakeMatchRepo) MarkInProgressDue(ctx context.Context, exec repositories.SQLExecutor, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.Status == models.MatchPending && !m.ScheduledTime.After(now) {
			m.Status = models.MatchInProgress
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) MarkInProgress(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok || m.Status != models.MatchPending {
		return repositories.ErrMatchNotFound
	}
	m.Status = models.MatchInProgress
	return nil
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, m := range r.matches {
		if m.TournamentID == tournamentID {
			delete(r.matches, id)
			removed++
		}
	}
	return removed, nil
}

type roundKey struct {
	tournamentID int
	round        int
}

type fakeRoundRepo struct {
	mu       sync.Mutex
	progress map[roundKey]*models.RoundProgress
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{progress: make(map[roundKey]*models.RoundProgress)}
}

func (r *fakeRoundRepo) Create(ctx context.Context, exec repositories.SQLExecutor, rp *models.RoundProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *rp
	r.progress[roundKey{rp.TournamentID, rp.Round}] = &stored
	return nil
}

func (r *fakeRoundRepo) Increment(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) (*models.RoundProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rp, ok := r.progress[roundKey{tournamentID, round}]
	if !ok {
		return nil, repositories.ErrRoundProgressNotFound
	}
	rp.CompletedMatches++
	copied := *rp
	return &copied, nil
}

func (r *fakeRoundRepo) Get(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) (*models.RoundProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rp, ok := r.progress[roundKey{tournamentID, round}]
	if !ok {
		return nil, repositories.ErrRoundProgressNotFound
	}
	copied := *rp
	return &copied, nil
}

func (r *fakeRoundRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.progress {
		if key.tournamentID == tournamentID {
			delete(r.progress, key)
		}
	}
	return nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	nextID  int
	results []*models.TournamentResult
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{nextID: 1}
}

func (r *fakeResultRepo) Create(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.results {
		if existing.TournamentID == result.TournamentID && existing.UserID == result.UserID {
			return repositories.ErrResultConflict
		}
	}
	result.ID = r.nextID
	r.nextID++
	result.CreatedAt = time.Now()
	stored := *result
	r.results = append(r.results, &stored)
	return nil
}

func (r *fakeResultRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TournamentResult
	for _, res := range r.results {
		if res.TournamentID == tournamentID {
			copied := *res
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeResultRepo) ExistsByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.TournamentID == tournamentID {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int]*models.User
}

func newFakeUserRepo(ids ...int) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, id := range ids {
		repo.users[id] = &models.User{ID: id}
	}
	return repo
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}
