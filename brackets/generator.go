package brackets

// Pairing — пара игроков одного матча сетки до сохранения в БД.
// Player2 == nil означает bye: участник проходит раунд без игры.
type Pairing struct {
	Round   int
	Slot    int
	Player1 int
	Player2 *int
}

func (p Pairing) IsBye() bool {
	return p.Player2 == nil
}

// Generator порождает пары матчей раунда. Сетка строится по раунду за раз:
// следующий раунд материализуется только после завершения предыдущего.
type Generator interface {
	// FirstRound разбивает рассаженных участников на пары первого раунда.
	FirstRound(playerIDs []int) []Pairing

	// NextRound разбивает победителей раунда round на пары раунда round+1,
	// сохраняя порядок сетки.
	NextRound(round int, winnerIDs []int) []Pairing

	Name() string
}
