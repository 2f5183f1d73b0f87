package brackets

import (
	"fmt"
	"math/rand"

	"github.com/khelzone/arena-backend/models"
)

// SeedOrder возвращает порядок рассадки участников первого раунда.
// deterministic сохраняет порядок регистрации; random перемешивает список
// генератором, инициализированным переданным seed, поэтому рассадка
// воспроизводима по записанному у турнира seed.
func SeedOrder(playerIDs []int, policy models.SeedingPolicy, seed int64) ([]int, error) {
	seeded := make([]int, len(playerIDs))
	copy(seeded, playerIDs)

	switch policy {
	case models.SeedingDeterministic, "":
		return seeded, nil
	case models.SeedingRandom:
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(seeded), func(i, j int) {
			seeded[i], seeded[j] = seeded[j], seeded[i]
		})
		return seeded, nil
	default:
		return nil, fmt.Errorf("unsupported seeding policy %q", policy)
	}
}
