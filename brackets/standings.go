package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/khelzone/arena-backend/models"
)

var ErrBracketIncomplete = errors.New("bracket is not complete")

type elimination struct {
	userID int
	round  int
	slot   int
}

// FinalStandings возвращает user id в порядке итоговых мест завершённой сетки:
// чемпион первым, затем выбывшие — по убыванию раунда выбывания, при
// равенстве по возрастанию slot матча, в котором участник проиграл.
// Bye никого не выбивает: каждый участник, кроме чемпиона, проигрывает
// ровно один раз.
func FinalStandings(matches []*models.Match) ([]int, error) {
	if len(matches) == 0 {
		return nil, ErrBracketIncomplete
	}

	finalRound := 0
	for _, m := range matches {
		if m.Round > finalRound {
			finalRound = m.Round
		}
	}

	var champion *int
	eliminations := make([]elimination, 0, len(matches))
	for _, m := range matches {
		if m.Status != models.MatchCompleted {
			return nil, fmt.Errorf("%w: match %d (round %d) not completed", ErrBracketIncomplete, m.ID, m.Round)
		}
		if loser := m.LoserID(); loser != nil {
			eliminations = append(eliminations, elimination{userID: *loser, round: m.Round, slot: m.Slot})
		}
		if m.Round == finalRound && m.WinnerID != nil {
			champion = m.WinnerID
		}
	}
	if champion == nil {
		return nil, fmt.Errorf("%w: final round has no winner", ErrBracketIncomplete)
	}

	sort.Slice(eliminations, func(i, j int) bool {
		if eliminations[i].round != eliminations[j].round {
			return eliminations[i].round > eliminations[j].round
		}
		return eliminations[i].slot < eliminations[j].slot
	})

	standings := make([]int, 0, len(eliminations)+1)
	standings = append(standings, *champion)
	for _, e := range eliminations {
		standings = append(standings, e.userID)
	}
	return standings, nil
}
