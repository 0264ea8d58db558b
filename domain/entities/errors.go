package entities

import "errors"

var (
	// ErrInvalidBetShape is returned when bet numbers are not 1-3 distinct values in range
	ErrInvalidBetShape = errors.New("invalid bet numbers")

	// ErrInsufficientBalance is returned when a player cannot afford a bet
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBetAlreadyPlaced is returned when the player re-submits their active bet unchanged
	ErrBetAlreadyPlaced = errors.New("bet already placed with these numbers")

	ErrPlayerNotFound = errors.New("player not found")

	// ErrActiveBetConflict is returned when the one-active-bet-per-player index rejects an insert
	ErrActiveBetConflict = errors.New("player already has an active bet")

	// ErrSettlementAnomaly marks a bet that was missing or already settled when settlement reached it
	ErrSettlementAnomaly = errors.New("settlement anomaly")

	// ErrSchedulerTimerFault is raised when a round cannot be started on time
	ErrSchedulerTimerFault = errors.New("scheduler timer fault")
)
