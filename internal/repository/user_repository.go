package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/schedule-api/internal/models"
)

const userColumns = "id, username, password_hash, role, full_name, created_at, updated_at"

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by login.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = $1 LIMIT 1"
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1 LIMIT 1"
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Upsert inserts the user or refreshes the hash, role and name of an existing login.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	const query = `INSERT INTO users (username, password_hash, role, full_name)
        VALUES (:username, :password_hash, :role, :full_name)
        ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role,
            full_name = EXCLUDED.full_name, updated_at = now()
        RETURNING id, created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, query, user)
	if err != nil {
		return mapPQError("upsert user", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return mapPQError("upsert user", err)
		}
		return fmt.Errorf("upsert user: no row returned")
	}
	if err := rows.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// List returns users ordered by username.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, string(*filter.Role))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(username) LIKE $%d OR LOWER(full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY username", userColumns, strings.Join(conditions, " AND "))
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
