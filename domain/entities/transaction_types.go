package entities

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial   TransactionType = "initial"
	TransactionTypeBetPlaced TransactionType = "bet_placed"
	TransactionTypeBetRefund TransactionType = "bet_refund"
	TransactionTypeBetPayout TransactionType = "bet_payout"
)

// IsCredit returns true for transaction types that add points
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeInitial, TransactionTypeBetRefund, TransactionTypeBetPayout:
		return true
	default:
		return false
	}
}
