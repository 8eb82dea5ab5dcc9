package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/billpayhq/billpay-service/internal/models"
)

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO billpay.users (email, password_hash, role, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userColumns = `id, email, password_hash, role, plaid_access_token, plaid_item_id, created_at`

func (r *Repository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.AccessToken, &user.ItemID, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM billpay.users WHERE email = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, email))
}

// FindUserByID retrieves a user by primary key
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM billpay.users WHERE id = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, id))
}

// FindUserByItemID retrieves the user owning an aggregation item
func (r *Repository) FindUserByItemID(ctx context.Context, itemID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM billpay.users WHERE plaid_item_id = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, itemID))
}

// UpdateUserPassword replaces a user's password hash
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE billpay.users SET password_hash = $2 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPlaidCredentials stores (or clears, when nil) the encrypted access
// token and item id for a user
func (r *Repository) SetPlaidCredentials(ctx context.Context, userID int64, encryptedToken, itemID *string) error {
	query := `UPDATE billpay.users SET plaid_access_token = $2, plaid_item_id = $3 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, userID, encryptedToken, itemID)
	if err != nil {
		return fmt.Errorf("failed to set aggregation credentials: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
