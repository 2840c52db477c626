package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"roomrent/marketplace/internal/models"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetWithOwner(ctx context.Context, id string) (*models.Listing, error)
	GetOwned(ctx context.Context, id, ownerID string) (*models.Listing, error)
	SearchAvailable(ctx context.Context, term string) ([]*models.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	ToggleAvailability(ctx context.Context, id, ownerID string) (bool, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type listingRepository struct {
	db *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) ListingRepository {
	return &listingRepository{
		db: db,
	}
}

const listingColumns = `l.id, l.owner_id, l.title, l.rent, l.location, l.facilities, l.images, l.available, l.created_at`

const listingWithOwnerColumns = listingColumns + `, u.name AS owner_name, u.phone AS owner_phone, u.email AS owner_email`

type listingRow struct {
	ID         string         `db:"id"`
	OwnerID    string         `db:"owner_id"`
	Title      string         `db:"title"`
	Rent       float64        `db:"rent"`
	Location   string         `db:"location"`
	Facilities pq.StringArray `db:"facilities"`
	Images     pq.StringArray `db:"images"`
	Available  bool           `db:"available"`
	CreatedAt  time.Time      `db:"created_at"`

	OwnerName  sql.NullString `db:"owner_name"`
	OwnerPhone sql.NullString `db:"owner_phone"`
	OwnerEmail sql.NullString `db:"owner_email"`
}

func (l listingRow) toModel() *models.Listing {
	listing := &models.Listing{
		ID:         l.ID,
		OwnerID:    l.OwnerID,
		Title:      l.Title,
		Rent:       l.Rent,
		Location:   l.Location,
		Facilities: nonNil(l.Facilities),
		Images:     nonNil(l.Images),
		Available:  l.Available,
		CreatedAt:  l.CreatedAt,
	}
	if l.OwnerName.Valid || l.OwnerEmail.Valid {
		listing.Owner = &models.OwnerContact{
			Name:  l.OwnerName.String,
			Phone: l.OwnerPhone.String,
			Email: l.OwnerEmail.String,
		}
	}
	return listing
}

func nonNil(values pq.StringArray) []string {
	if values == nil {
		return []string{}
	}
	return []string(values)
}

func toModels(rows []listingRow) []*models.Listing {
	listings := make([]*models.Listing, len(rows))
	for i, row := range rows {
		listings[i] = row.toModel()
	}
	return listings
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	query := `
	INSERT INTO listings (id, owner_id, title, rent, location, facilities, images, available)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		listing.ID, listing.OwnerID, listing.Title, listing.Rent, listing.Location,
		pq.Array(listing.Facilities), pq.Array(listing.Images), listing.Available,
	).Scan(&listing.CreatedAt)
	if err != nil {
		return backendError("create listing", err)
	}
	return nil
}

func (r *listingRepository) GetWithOwner(ctx context.Context, id string) (*models.Listing, error) {
	if err := checkIDs("listing", id); err != nil {
		return nil, err
	}

	query := `
	SELECT ` + listingWithOwnerColumns + `
	FROM listings l
	JOIN users u ON u.id = l.owner_id
	WHERE l.id = $1
	`

	return r.getOne(ctx, query, id)
}

func (r *listingRepository) GetOwned(ctx context.Context, id, ownerID string) (*models.Listing, error) {
	if err := checkIDs("listing", id, ownerID); err != nil {
		return nil, err
	}

	query := `
	SELECT ` + listingColumns + `
	FROM listings l
	WHERE l.id = $1 AND l.owner_id = $2
	`

	return r.getOne(ctx, query, id, ownerID)
}

func (r *listingRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Listing, error) {
	var row listingRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listing %w", models.ErrNotFound)
		}
		return nil, backendError("get listing", err)
	}
	return row.toModel(), nil
}

func (r *listingRepository) SearchAvailable(ctx context.Context, term string) ([]*models.Listing, error) {
	var query string
	var args []interface{}

	if term != "" {
		query = `
		SELECT ` + listingWithOwnerColumns + `
		FROM listings l
		JOIN users u ON u.id = l.owner_id
		WHERE l.available = TRUE AND l.location ILIKE $1
		ORDER BY l.created_at DESC
		`
		args = []interface{}{likePattern(term)}
	} else {
		query = `
		SELECT ` + listingWithOwnerColumns + `
		FROM listings l
		JOIN users u ON u.id = l.owner_id
		WHERE l.available = TRUE
		ORDER BY l.created_at DESC
		`
	}

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, backendError("search listings", err)
	}
	return toModels(rows), nil
}

func (r *listingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error) {
	if checkIDs("owner", ownerID) != nil {
		return []*models.Listing{}, nil
	}

	query := `
	SELECT ` + listingColumns + `
	FROM listings l
	WHERE l.owner_id = $1
	ORDER BY l.created_at DESC
	`

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, backendError("list owner listings", err)
	}
	return toModels(rows), nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	if err := checkIDs("listing", listing.ID, listing.OwnerID); err != nil {
		return err
	}

	query := `
	UPDATE listings
	SET title = $3, rent = $4, location = $5, facilities = $6, images = $7, available = $8
	WHERE id = $1 AND owner_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.OwnerID, listing.Title, listing.Rent, listing.Location,
		pq.Array(listing.Facilities), pq.Array(listing.Images), listing.Available,
	)
	if err != nil {
		return backendError("update listing", err)
	}
	return expectAffected(result, "listing")
}

func (r *listingRepository) ToggleAvailability(ctx context.Context, id, ownerID string) (bool, error) {
	if err := checkIDs("listing", id, ownerID); err != nil {
		return false, err
	}

	query := `
	UPDATE listings
	SET available = NOT available
	WHERE id = $1 AND owner_id = $2
	RETURNING available
	`

	var available bool
	if err := r.db.QueryRowxContext(ctx, query, id, ownerID).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("listing %w", models.ErrNotFound)
		}
		return false, backendError("toggle availability", err)
	}
	return available, nil
}

func (r *listingRepository) Delete(ctx context.Context, id, ownerID string) error {
	if err := checkIDs("listing", id, ownerID); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return backendError("delete listing", err)
	}
	return expectAffected(result, "listing")
}
