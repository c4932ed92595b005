package models

import (
	"database/sql"
	"time"
)

// Account is a recipient address inside the shared mailbox, together with the
// subject filters its holder is allowed to query. Exactly one of ResellerID or
// CustomerID is set for a usable account.
type Account struct {
	ID                int64          `db:"id" json:"id"`
	Email             string         `db:"email" json:"email"` // case-insensitive identity
	IsActive          bool           `db:"is_active" json:"is_active"`
	FilterSessionCode bool           `db:"filter_session_code" json:"filter_session_code"`
	FilterDeviceAlert bool           `db:"filter_device_alert" json:"filter_device_alert"`
	FilterHomeUpdate  bool           `db:"filter_home_update" json:"filter_home_update"`
	FilterTempCode    bool           `db:"filter_temp_code" json:"filter_temp_code"`
	PIN               sql.NullString `db:"pin" json:"pin"` // end-client PIN for the device-alert filter
	PurchasedAt       time.Time      `db:"purchased_at" json:"purchased_at"`
	ExpiresAt         time.Time      `db:"expires_at" json:"expires_at"`
	ResellerID        sql.NullInt64  `db:"reseller_id" json:"reseller_id"`
	CustomerID        sql.NullInt64  `db:"customer_id" json:"customer_id"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the account's subscription has lapsed at the given time.
func (a *Account) Expired(now time.Time) bool {
	return a.ExpiresAt.Before(now)
}

// OwnerKind identifies which of the two owner kinds an account belongs to.
type OwnerKind int

const (
	OwnerNone OwnerKind = iota
	OwnerReseller
	OwnerCustomer
)

// Owner returns the kind of owner the account is associated with.
func (a *Account) Owner() OwnerKind {
	switch {
	case a.ResellerID.Valid:
		return OwnerReseller
	case a.CustomerID.Valid:
		return OwnerCustomer
	default:
		return OwnerNone
	}
}
