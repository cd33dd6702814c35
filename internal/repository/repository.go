package repository

import (
	"context"
	"time"

	"bookorder/internal/model"

	"github.com/jackc/pgx/v5"
)

// OrderRepository defines the interface for confirmed order storage.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts order within tx and fills in its ID and CreatedAt.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.ConfirmedOrder) error

	// CreateOrderBooks inserts the book lines of an order within tx.
	CreateOrderBooks(ctx context.Context, tx pgx.Tx, orderID int64, books []model.BookLine) error

	// GetByID retrieves an order with its books. It returns nil, nil when
	// no such order exists.
	GetByID(ctx context.Context, id int64) (*model.ConfirmedOrder, error)

	// List retrieves orders newest first, filtered by phone number when
	// non-empty.
	List(ctx context.Context, phoneNumber string) ([]model.ConfirmedOrder, error)
}

// SessionStore holds pending verification sessions until they expire.
type SessionStore interface {
	// Save stores s under its token for ttl, replacing any previous value.
	Save(ctx context.Context, s *model.PendingSession, ttl time.Duration) error

	// Get returns the session for token, or nil, nil when it is missing or
	// expired.
	Get(ctx context.Context, token string) (*model.PendingSession, error)

	// Update overwrites a stored session without changing its expiry.
	Update(ctx context.Context, s *model.PendingSession) error

	// Delete removes the session for token.
	Delete(ctx context.Context, token string) error
}
