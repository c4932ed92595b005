package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/luisvx/inboxcode/pkg/models"
)

// CreateReseller creates a new wholesale client
func (db *DB) CreateReseller(ctx context.Context, r *models.Reseller) error {
	now := time.Now()
	query := `INSERT INTO resellers (name, phone, reset_pin, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, r.Name, r.Phone, r.ResetPIN, now, now)
	if err != nil {
		return fmt.Errorf("failed to create reseller: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetResellerByID returns a reseller by ID
func (db *DB) GetResellerByID(ctx context.Context, id int64) (*models.Reseller, error) {
	var r models.Reseller
	err := db.GetContext(ctx, &r, `SELECT * FROM resellers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reseller: %w", err)
	}
	return &r, nil
}

// ListResellers returns all resellers
func (db *DB) ListResellers(ctx context.Context) ([]*models.Reseller, error) {
	var resellers []*models.Reseller
	err := db.SelectContext(ctx, &resellers, `SELECT * FROM resellers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resellers: %w", err)
	}
	return resellers, nil
}

// UpdateReseller updates a reseller's name, phone and reset PIN
func (db *DB) UpdateReseller(ctx context.Context, r *models.Reseller) error {
	query := `UPDATE resellers SET name = ?, phone = ?, reset_pin = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, r.Name, r.Phone, r.ResetPIN, time.Now(), r.ID)
	if err != nil {
		return fmt.Errorf("failed to update reseller: %w", err)
	}
	return requireRow(result)
}

// DeleteReseller deletes a reseller; its accounts go with it (FK cascade)
func (db *DB) DeleteReseller(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM resellers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reseller: %w", err)
	}
	return requireRow(result)
}

// CreateCustomer creates a new end client
func (db *DB) CreateCustomer(ctx context.Context, c *models.Customer) error {
	now := time.Now()
	query := `INSERT INTO customers (name, phone, created_at, updated_at) VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, c.Name, c.Phone, now, now)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetCustomerByID returns a customer by ID
func (db *DB) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := db.GetContext(ctx, &c, `SELECT * FROM customers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

// ListCustomers returns all customers
func (db *DB) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	var customers []*models.Customer
	err := db.SelectContext(ctx, &customers, `SELECT * FROM customers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// UpdateCustomer updates a customer's name and phone
func (db *DB) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	query := `UPDATE customers SET name = ?, phone = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, c.Name, c.Phone, time.Now(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return requireRow(result)
}

// DeleteCustomer deletes a customer; its accounts go with it (FK cascade)
func (db *DB) DeleteCustomer(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return requireRow(result)
}
