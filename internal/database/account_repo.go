package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luisvx/inboxcode/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when trying to insert a duplicate record
var ErrAlreadyExists = errors.New("record already exists")

// CreateAccount creates a new mailbox account. New accounts start with every
// filter enabled and a 30-day subscription unless the caller set dates.
func (db *DB) CreateAccount(ctx context.Context, account *models.Account) error {
	now := time.Now()
	if account.PurchasedAt.IsZero() {
		account.PurchasedAt = now
	}
	if account.ExpiresAt.IsZero() {
		account.ExpiresAt = account.PurchasedAt.AddDate(0, 0, 30)
	}

	query := `
		INSERT INTO accounts (email, is_active, filter_session_code, filter_device_alert, filter_home_update, filter_temp_code, pin, purchased_at, expires_at, reseller_id, customer_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := db.ExecContext(ctx, query,
		strings.TrimSpace(account.Email),
		account.IsActive,
		account.FilterSessionCode,
		account.FilterDeviceAlert,
		account.FilterHomeUpdate,
		account.FilterTempCode,
		account.PIN,
		account.PurchasedAt,
		account.ExpiresAt,
		account.ResellerID,
		account.CustomerID,
		now,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetAccountByID returns an account by ID
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	query := `SELECT * FROM accounts WHERE id = ?`
	err := db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetAccountByEmail returns an account by its recipient address. The match is
// case-insensitive (email column collates NOCASE).
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	query := `SELECT * FROM accounts WHERE email = ?`
	err := db.GetContext(ctx, &account, query, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListAccountsByReseller returns all accounts owned by a reseller
func (db *DB) ListAccountsByReseller(ctx context.Context, resellerID int64) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT * FROM accounts WHERE reseller_id = ? ORDER BY created_at DESC`
	err := db.SelectContext(ctx, &accounts, query, resellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListAccountsByCustomer returns all accounts owned by a customer
func (db *DB) ListAccountsByCustomer(ctx context.Context, customerID int64) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT * FROM accounts WHERE customer_id = ? ORDER BY created_at DESC`
	err := db.SelectContext(ctx, &accounts, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListExpiredAccountsByReseller returns a reseller's accounts whose
// subscription lapsed before the given time.
func (db *DB) ListExpiredAccountsByReseller(ctx context.Context, resellerID int64, before time.Time) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT * FROM accounts WHERE reseller_id = ? AND expires_at < ? ORDER BY expires_at`
	err := db.SelectContext(ctx, &accounts, query, resellerID, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccountFilters updates the four filter toggles and the account PIN
func (db *DB) UpdateAccountFilters(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET filter_session_code = ?, filter_device_alert = ?, filter_home_update = ?, filter_temp_code = ?, pin = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := db.ExecContext(ctx, query,
		account.FilterSessionCode,
		account.FilterDeviceAlert,
		account.FilterHomeUpdate,
		account.FilterTempCode,
		account.PIN,
		account.IsActive,
		time.Now(),
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account filters: %w", err)
	}
	return requireRow(result)
}

// RenewAccount pushes the expiration date forward by the given number of
// days. A renewal never moves the date backward: an account that already
// lapsed is renewed from today, not from the old date.
func (db *DB) RenewAccount(ctx context.Context, id int64, days int) (*models.Account, error) {
	account, err := db.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	base := account.ExpiresAt
	if now := time.Now(); base.Before(now) {
		base = now
	}
	account.ExpiresAt = base.AddDate(0, 0, days)

	query := `UPDATE accounts SET expires_at = ?, updated_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, account.ExpiresAt, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to renew account: %w", err)
	}
	return account, nil
}

// DeleteAccount deletes an account
func (db *DB) DeleteAccount(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
