package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

const userAccountColumns = `id, email, full_name, role, active, created_at, updated_at`

// UserRepository reads login accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	return r.findOne(ctx, `SELECT `+userAccountColumns+` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, email)
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.UserAccount, error) {
	return r.findOne(ctx, `SELECT `+userAccountColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query, arg string) (*models.UserAccount, error) {
	var user models.UserAccount
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
