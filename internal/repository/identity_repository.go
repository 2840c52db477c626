package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"roomrent/marketplace/internal/models"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	Delete(ctx context.Context, id string) error
}

type identityRepository struct {
	db *sqlx.DB
}

func NewIdentityRepository(db *sqlx.DB) IdentityRepository {
	return &identityRepository{
		db: db,
	}
}

type identityRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r *identityRepository) Create(ctx context.Context, identity *models.Identity) error {
	query := `
	INSERT INTO auth_identities (id, email, password_hash)
	VALUES ($1, LOWER($2), $3)
	RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query, identity.ID, identity.Email, identity.PasswordHash).Scan(&identity.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", models.ErrAuth)
		}
		return backendError("create identity", err)
	}
	return nil
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `
	SELECT id, email, password_hash, created_at
	FROM auth_identities
	WHERE email = LOWER($1)
	`

	var row identityRow
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity %w", models.ErrNotFound)
		}
		return nil, backendError("get identity", err)
	}

	return &models.Identity{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (r *identityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auth_identities WHERE id = $1`, id)
	if err != nil {
		return backendError("delete identity", err)
	}
	return expectAffected(result, "identity")
}

func expectAffected(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return backendError("rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %w", what, models.ErrNotFound)
	}
	return nil
}
