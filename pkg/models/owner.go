package models

import "time"

// Reseller is a wholesale client managing many accounts. Its ResetPIN gates the
// device-alert filter for every account it owns.
type Reseller struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	ResetPIN  string    `db:"reset_pin" json:"reset_pin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Customer is an end client owning a single account; the PIN for the
// device-alert filter lives on the account itself.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
