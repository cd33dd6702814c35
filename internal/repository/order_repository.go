package repository

import (
	"context"
	"errors"
	"fmt"

	"bookorder/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts order within tx and fills in its ID and CreatedAt.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.ConfirmedOrder) error {
	query := `
		INSERT INTO orders (phone_number, address, payment_method, payment_status,
			total_amount, order_status, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query,
		order.PhoneNumber,
		order.Address,
		string(order.PaymentMethod),
		order.PaymentStatus,
		order.TotalAmount,
		string(order.OrderStatus),
		order.Verified,
	).Scan(&order.ID, &order.CreatedAt.Time)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("phone_number", order.PhoneNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateOrderBooks inserts the book lines of an order within tx.
func (r *orderRepository) CreateOrderBooks(ctx context.Context, tx pgx.Tx, orderID int64, books []model.BookLine) error {
	if len(books) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_books (order_id, position, book_id, title, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for i, book := range books {
		batch.Queue(query, orderID, i, book.ID, book.Title, book.Price, book.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(books); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", orderID).
				Str("book_id", books[i].ID).
				Msg("failed to create order book")
			return fmt.Errorf("failed to create order book: %w", err)
		}
	}

	r.logger.Debug().
		Int64("order_id", orderID).
		Int("count", len(books)).
		Msg("order books created successfully")

	return nil
}

const selectOrders = `
	SELECT id, phone_number, address, payment_method, payment_status,
		total_amount, order_status, verified, created_at
	FROM orders
`

// GetByID retrieves an order with its books.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.ConfirmedOrder, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, selectOrders+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	books, err := r.booksFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	order.Books = books[id]
	if order.Books == nil {
		order.Books = []model.BookLine{}
	}

	return order, nil
}

// List retrieves orders newest first.
func (r *orderRepository) List(ctx context.Context, phoneNumber string) ([]model.ConfirmedOrder, error) {
	query := selectOrders
	var args []any
	if phoneNumber != "" {
		query += ` WHERE phone_number = $1`
		args = append(args, phoneNumber)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.ConfirmedOrder{}
	var ids []int64
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	books, err := r.booksFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Books = books[orders[i].ID]
		if orders[i].Books == nil {
			orders[i].Books = []model.BookLine{}
		}
	}

	r.logger.Debug().
		Int("count", len(orders)).
		Bool("filtered", phoneNumber != "").
		Msg("retrieved orders")

	return orders, nil
}

// booksFor loads the book lines of the given orders keyed by order id.
func (r *orderRepository) booksFor(ctx context.Context, orderIDs []int64) (map[int64][]model.BookLine, error) {
	query := `
		SELECT order_id, book_id, title, price, quantity
		FROM order_books
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("order_count", len(orderIDs)).Msg("failed to query order books")
		return nil, fmt.Errorf("failed to query order books: %w", err)
	}
	defer rows.Close()

	books := make(map[int64][]model.BookLine, len(orderIDs))
	for rows.Next() {
		var orderID int64
		var book model.BookLine
		if err := rows.Scan(&orderID, &book.ID, &book.Title, &book.Price, &book.Quantity); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order book row")
			return nil, fmt.Errorf("failed to scan order book: %w", err)
		}
		books[orderID] = append(books[orderID], book)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order book rows")
		return nil, fmt.Errorf("error iterating order books: %w", err)
	}

	return books, nil
}

func scanOrder(row pgx.Row) (*model.ConfirmedOrder, error) {
	var (
		order         model.ConfirmedOrder
		paymentMethod string
		orderStatus   string
	)
	err := row.Scan(
		&order.ID,
		&order.PhoneNumber,
		&order.Address,
		&paymentMethod,
		&order.PaymentStatus,
		&order.TotalAmount,
		&orderStatus,
		&order.Verified,
		&order.CreatedAt.Time,
	)
	if err != nil {
		return nil, err
	}
	order.PaymentMethod = model.PaymentMethod(paymentMethod)
	order.OrderStatus = model.OrderStatus(orderStatus)
	return &order, nil
}
