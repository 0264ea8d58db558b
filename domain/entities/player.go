package entities

import "time"

// Player is a lottery participant holding a points balance
type Player struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Points    int64     `db:"points"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CanAfford reports whether the player holds at least amount points
func (p *Player) CanAfford(amount int64) bool {
	return p.Points >= amount
}
