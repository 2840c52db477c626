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

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Message, error)
	ListThread(ctx context.Context, listingID, userID, counterpartID string) ([]*models.Message, error)
	ExistsFromSender(ctx context.Context, listingID, senderID string) (bool, error)
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

const messageSelect = `
	SELECT m.id, m.listing_id, m.sender_id, m.receiver_id, m.message, m.created_at,
		s.name AS sender_name, s.email AS sender_email, s.phone AS sender_phone,
		s.role AS sender_role, s.created_at AS sender_created_at,
		r.name AS receiver_name, r.email AS receiver_email, r.phone AS receiver_phone,
		r.role AS receiver_role, r.created_at AS receiver_created_at
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.receiver_id
`

type messageRow struct {
	ID         string    `db:"id"`
	ListingID  string    `db:"listing_id"`
	SenderID   string    `db:"sender_id"`
	ReceiverID string    `db:"receiver_id"`
	Message    string    `db:"message"`
	CreatedAt  time.Time `db:"created_at"`

	SenderName      string    `db:"sender_name"`
	SenderEmail     string    `db:"sender_email"`
	SenderPhone     string    `db:"sender_phone"`
	SenderRole      string    `db:"sender_role"`
	SenderCreatedAt time.Time `db:"sender_created_at"`

	ReceiverName      string    `db:"receiver_name"`
	ReceiverEmail     string    `db:"receiver_email"`
	ReceiverPhone     string    `db:"receiver_phone"`
	ReceiverRole      string    `db:"receiver_role"`
	ReceiverCreatedAt time.Time `db:"receiver_created_at"`
}

func (m messageRow) toModel() *models.Message {
	return &models.Message{
		ID:         m.ID,
		ListingID:  m.ListingID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Message:    m.Message,
		CreatedAt:  m.CreatedAt,
		Sender: &models.User{
			ID:        m.SenderID,
			Name:      m.SenderName,
			Email:     m.SenderEmail,
			Phone:     m.SenderPhone,
			Role:      models.Role(m.SenderRole),
			CreatedAt: m.SenderCreatedAt,
		},
		Receiver: &models.User{
			ID:        m.ReceiverID,
			Name:      m.ReceiverName,
			Email:     m.ReceiverEmail,
			Phone:     m.ReceiverPhone,
			Role:      models.Role(m.ReceiverRole),
			CreatedAt: m.ReceiverCreatedAt,
		},
	}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := checkIDs("listing or user", msg.ListingID, msg.SenderID, msg.ReceiverID); err != nil {
		return err
	}

	query := `
	INSERT INTO messages (id, listing_id, sender_id, receiver_id, message)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		msg.ID, msg.ListingID, msg.SenderID, msg.ReceiverID, msg.Message,
	).Scan(&msg.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("listing or user %w", models.ErrNotFound)
		}
		return backendError("create message", err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	if err := checkIDs("message", id); err != nil {
		return nil, err
	}

	var row messageRow
	if err := r.db.GetContext(ctx, &row, messageSelect+`WHERE m.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %w", models.ErrNotFound)
		}
		return nil, backendError("get message", err)
	}
	return row.toModel(), nil
}

func (r *messageRepository) ListForUser(ctx context.Context, userID string) ([]*models.Message, error) {
	if checkIDs("user", userID) != nil {
		return []*models.Message{}, nil
	}

	query := messageSelect + `
	WHERE m.sender_id = $1 OR m.receiver_id = $1
	ORDER BY m.created_at DESC
	`

	return r.list(ctx, "list user messages", query, userID)
}

func (r *messageRepository) ListThread(ctx context.Context, listingID, userID, counterpartID string) ([]*models.Message, error) {
	if err := checkIDs("thread", listingID, userID, counterpartID); err != nil {
		return nil, err
	}

	query := messageSelect + `
	WHERE m.listing_id = $1
		AND ((m.sender_id = $2 AND m.receiver_id = $3) OR (m.sender_id = $3 AND m.receiver_id = $2))
	ORDER BY m.created_at ASC
	`

	return r.list(ctx, "list thread", query, listingID, userID, counterpartID)
}

func (r *messageRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*models.Message, error) {
	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, backendError(op, err)
	}

	messages := make([]*models.Message, len(rows))
	for i, row := range rows {
		messages[i] = row.toModel()
	}
	return messages, nil
}

func (r *messageRepository) ExistsFromSender(ctx context.Context, listingID, senderID string) (bool, error) {
	if checkIDs("listing", listingID, senderID) != nil {
		return false, nil
	}

	query := `
	SELECT EXISTS (
		SELECT 1 FROM messages WHERE listing_id = $1 AND sender_id = $2
	)
	`

	var exists bool
	if err := r.db.QueryRowxContext(ctx, query, listingID, senderID).Scan(&exists); err != nil {
		return false, backendError("check existing message", err)
	}
	return exists, nil
}
