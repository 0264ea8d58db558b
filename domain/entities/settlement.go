package entities

// SettlementResult is the outcome of settling one bet against a draw
type SettlementResult struct {
	BetID        int64
	PlayerID     int64
	DrawID       int64
	Numbers      []int64
	CorrectCount int
	Payout       int64
	Balance      int64
}

// IsWin returns true when the bet paid out anything
func (r *SettlementResult) IsWin() bool {
	return r.Payout > 0
}
