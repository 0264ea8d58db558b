package events

import (
	"time"

	"lotto/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeDraw             EventType = "draw"
	EventTypeSettlementResult EventType = "settlement_result"
	EventTypeBetPlaced        EventType = "bet_placed"
	EventTypeBetCancelled     EventType = "bet_cancelled"
	EventTypeBalanceChange    EventType = "balance_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// DrawEvent announces a freshly persisted draw. It is published before any
// settlement result of the same round. JSON names follow the legacy socket
// payload that existing clients read.
type DrawEvent struct {
	DrawID  int64     `json:"drawId"`
	Numbers []int64   `json:"draw"`
	Time    time.Time `json:"drawTime"`
}

func (e DrawEvent) Type() EventType {
	return EventTypeDraw
}

// SettlementResultEvent carries the outcome of one settled bet. Balance and
// CorrectCount keep their legacy wire names, points and correctNumbers.
type SettlementResultEvent struct {
	PlayerID     int64   `json:"playerId"`
	DrawID       int64   `json:"drawId"`
	BetID        int64   `json:"betId"`
	Balance      int64   `json:"points"`
	CorrectCount int     `json:"correctNumbers"`
	Numbers      []int64 `json:"numbers"`
	Payout       int64   `json:"payout"`
}

func (e SettlementResultEvent) Type() EventType {
	return EventTypeSettlementResult
}

// BetPlacedEvent is emitted when a bet becomes a player's active bet
type BetPlacedEvent struct {
	PlayerID int64   `json:"playerId"`
	BetID    int64   `json:"betId"`
	Numbers  []int64 `json:"numbers"`
	Cost     int64   `json:"cost"`
	Replaced bool    `json:"replaced"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetCancelledEvent is emitted when an active bet is withdrawn and refunded
type BetCancelledEvent struct {
	PlayerID int64 `json:"playerId"`
	BetID    int64 `json:"betId"`
	Refund   int64 `json:"refund"`
}

func (e BetCancelledEvent) Type() EventType {
	return EventTypeBetCancelled
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	PlayerID        int64                    `json:"playerId"`
	OldBalance      int64                    `json:"oldBalance"`
	NewBalance      int64                    `json:"newBalance"`
	TransactionType entities.TransactionType `json:"transactionType"`
	ChangeAmount    int64                    `json:"changeAmount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}
