package brackets

import (
	"reflect"
	"testing"

	"github.com/khelzone/arena-backend/models"
)

func TestSeedOrderDeterministicKeepsRegistrationOrder(t *testing.T) {
	players := []int{4, 8, 15, 16, 23, 42}

	seeded, err := SeedOrder(players, models.SeedingDeterministic, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(seeded, players) {
		t.Errorf("expected registration order preserved, got %v", seeded)
	}
}

func TestSeedOrderDoesNotMutateInput(t *testing.T) {
	players := []int{1, 2, 3, 4}
	original := []int{1, 2, 3, 4}

	if _, err := SeedOrder(players, models.SeedingRandom, 99); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(players, original) {
		t.Errorf("input slice was mutated: %v", players)
	}
}

func TestSeedOrderRandomIsReproducibleBySeed(t *testing.T) {
	players := []int{1, 2, 3, 4, 5, 6, 7, 8}

	first, err := SeedOrder(players, models.SeedingRandom, 12345)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := SeedOrder(players, models.SeedingRandom, 12345)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed produced different orders: %v vs %v", first, second)
	}

	// Перестановка всегда содержит тех же участников.
	seen := make(map[int]bool, len(first))
	for _, id := range first {
		seen[id] = true
	}
	for _, id := range players {
		if !seen[id] {
			t.Errorf("player %d missing from shuffled order %v", id, first)
		}
	}
}

func TestSeedOrderRejectsUnknownPolicy(t *testing.T) {
	if _, err := SeedOrder([]int{1, 2}, models.SeedingPolicy("swiss"), 0); err == nil {
		t.Fatal("expected error for unknown seeding policy")
	}
}
