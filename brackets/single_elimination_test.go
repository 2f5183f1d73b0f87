package brackets

import (
	"testing"
)

func TestFirstRoundPairsAdjacentPlayers(t *testing.T) {
	g := NewSingleEliminationGenerator()

	pairings := g.FirstRound([]int{10, 20, 30, 40})
	if len(pairings) != 2 {
		t.Fatalf("expected 2 pairings, got %d", len(pairings))
	}

	first := pairings[0]
	if first.Round != 1 || first.Slot != 1 || first.Player1 != 10 || first.Player2 == nil || *first.Player2 != 20 {
		t.Errorf("unexpected first pairing: %+v", first)
	}
	second := pairings[1]
	if second.Slot != 2 || second.Player1 != 30 || second.Player2 == nil || *second.Player2 != 40 {
		t.Errorf("unexpected second pairing: %+v", second)
	}
}

func TestFirstRoundOddPlayerGetsBye(t *testing.T) {
	g := NewSingleEliminationGenerator()

	pairings := g.FirstRound([]int{1, 2, 3, 4, 5})
	if len(pairings) != 3 {
		t.Fatalf("expected 3 pairings for 5 players, got %d", len(pairings))
	}

	last := pairings[2]
	if !last.IsBye() {
		t.Fatalf("expected last pairing to be a bye: %+v", last)
	}
	if last.Player1 != 5 {
		t.Errorf("expected trailing player 5 to receive the bye, got %d", last.Player1)
	}

	byes := 0
	for _, p := range pairings {
		if p.IsBye() {
			byes++
		}
	}
	if byes != 1 {
		t.Errorf("expected exactly one bye, got %d", byes)
	}
}

func TestNextRoundNumbersFollowOn(t *testing.T) {
	g := NewSingleEliminationGenerator()

	pairings := g.NextRound(1, []int{7, 9})
	if len(pairings) != 1 {
		t.Fatalf("expected 1 pairing, got %d", len(pairings))
	}
	p := pairings[0]
	if p.Round != 2 {
		t.Errorf("expected round 2, got %d", p.Round)
	}
	if p.Player1 != 7 || p.Player2 == nil || *p.Player2 != 9 {
		t.Errorf("unexpected pairing: %+v", p)
	}
}

func TestRoundsForPlayers(t *testing.T) {
	tests := []struct {
		players int
		rounds  int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
		{16, 4},
	}
	for _, tt := range tests {
		if got := RoundsForPlayers(tt.players); got != tt.rounds {
			t.Errorf("RoundsForPlayers(%d) = %d, want %d", tt.players, got, tt.rounds)
		}
	}
}

// Полная прогонка: каждый раунд сокращает поле вдвое, пока не останется один.
func TestBracketConvergesToSingleWinner(t *testing.T) {
	g := NewSingleEliminationGenerator()

	players := []int{1, 2, 3, 4, 5, 6, 7}
	pairings := g.FirstRound(players)

	round := 1
	for len(pairings) > 0 {
		winners := make([]int, 0, len(pairings))
		for _, p := range pairings {
			// Побеждает всегда player1 — детали неважны для структуры сетки.
			winners = append(winners, p.Player1)
		}
		if len(winners) == 1 {
			return
		}
		if round > RoundsForPlayers(len(players)) {
			t.Fatalf("bracket did not converge after %d rounds", round)
		}
		pairings = g.NextRound(round, winners)
		round++
	}
	t.Fatal("bracket produced no pairings")
}
