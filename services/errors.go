package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурсы не найдены
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrResultsNotFound    = errors.New("tournament results not found")

	// Ошибки допуска (admission)
	ErrTournamentFull     = errors.New("tournament is full")
	ErrAlreadyJoined      = errors.New("user already joined this tournament")
	ErrRegistrationClosed = errors.New("tournament registration is closed")

	// Ошибки состояния турнира
	ErrTournamentCancelled     = errors.New("tournament is cancelled")
	ErrTournamentNotUpcoming   = errors.New("tournament has already started or finished")
	ErrTournamentNotInProgress = errors.New("tournament is not in progress")
	ErrTournamentFinished      = errors.New("tournament is already finished")
	ErrNoParticipants          = errors.New("tournament has no participants")

	// Ошибки отправки результата матча
	ErrMatchNotInProgress     = errors.New("match is not in progress")
	ErrMatchAlreadyCompleted  = errors.New("match result has already been submitted")
	ErrReporterNotParticipant = errors.New("reporter is not a participant of this match")
	ErrWinnerNotParticipant   = errors.New("winner must be one of the match players")

	// Ошибки валидации при создании турнира
	ErrTitleRequired    = errors.New("tournament title is required")
	ErrInvalidCapacity  = errors.New("tournament max players must be positive")
	ErrInvalidStartTime = errors.New("tournament start time must be in the future")
	ErrInvalidEntryFee  = errors.New("tournament entry fee must not be negative")
	ErrInvalidPrizePool = errors.New("tournament prize pool must not be negative")
	ErrInvalidStatus    = errors.New("invalid tournament status provided")

	// Ошибки конфигурации призовой таблицы
	ErrInvalidPrizeTable     = errors.New("prize distribution table is invalid")
	ErrPrizeTableExceedsPool = errors.New("prize distribution total exceeds prize pool")

	// Распределение призов
	ErrResultsAlreadyDistributed = errors.New("tournament results have already been distributed")
)
