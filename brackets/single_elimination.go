package brackets

import "math"

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) FirstRound(playerIDs []int) []Pairing {
	return g.pairRound(1, playerIDs)
}

func (g *SingleEliminationGenerator) NextRound(round int, winnerIDs []int) []Pairing {
	return g.pairRound(round+1, winnerIDs)
}

// pairRound соединяет соседей списка в пары. Нечётный хвост получает bye и
// проходит в следующий раунд без игры.
func (g *SingleEliminationGenerator) pairRound(round int, playerIDs []int) []Pairing {
	pairings := make([]Pairing, 0, (len(playerIDs)+1)/2)
	slot := 1
	for i := 0; i < len(playerIDs); i += 2 {
		p := Pairing{
			Round:   round,
			Slot:    slot,
			Player1: playerIDs[i],
		}
		if i+1 < len(playerIDs) {
			p2 := playerIDs[i+1]
			p.Player2 = &p2
		}
		pairings = append(pairings, p)
		slot++
	}
	return pairings
}

// RoundsForPlayers возвращает число раундов single elimination для n участников.
func RoundsForPlayers(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}
