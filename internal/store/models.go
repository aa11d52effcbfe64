package store

import "time"

type Player struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type Account struct {
	PlayerID  string    `json:"player_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LedgerEntry struct {
	ID           string    `json:"id"`
	PlayerID     string    `json:"player_id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	RefType      string    `json:"ref_type"`
	RefID        string    `json:"ref_id"`
	CreatedAt    time.Time `json:"created_at"`
}
