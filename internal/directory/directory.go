// Package directory is the read side: listing and looking up confirmed
// orders.
package directory

import (
	"context"
	"strings"
	"sync"

	"bookorder/internal/model"

	"github.com/rs/zerolog"
)

// Reader fetches confirmed orders from the backend.
type Reader interface {
	ListOrders(ctx context.Context, phoneNumber string) ([]model.ConfirmedOrder, error)
	GetOrder(ctx context.Context, orderID int64) (*model.ConfirmedOrder, error)
}

// Directory holds the most recent order listing. Every call fetches; each
// listing is tagged and a completion older than the last applied one is
// dropped, so the newest request always wins.
type Directory struct {
	reader Reader
	logger zerolog.Logger

	mu      sync.Mutex
	seq     uint64
	applied uint64
	orders  []model.ConfirmedOrder
	filter  string
	err     error
}

// New creates an empty directory.
func New(reader Reader, logger zerolog.Logger) *Directory {
	return &Directory{
		reader: reader,
		logger: logger.With().Str("component", "order-directory").Logger(),
	}
}

// List fetches orders, filtered by phone number when non-empty. A result
// overtaken by a newer List returns model.ErrSuperseded and is not applied.
func (d *Directory) List(ctx context.Context, phoneNumber string) ([]model.ConfirmedOrder, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)

	d.mu.Lock()
	d.seq++
	tag := d.seq
	d.mu.Unlock()

	orders, err := d.reader.ListOrders(ctx, phoneNumber)

	d.mu.Lock()
	defer d.mu.Unlock()

	if tag <= d.applied {
		d.logger.Debug().
			Uint64("tag", tag).
			Uint64("applied", d.applied).
			Msg("dropping stale order listing")
		return nil, model.ErrSuperseded
	}
	d.applied = tag

	if err != nil {
		d.err = err
		d.logger.Warn().Err(err).Str("phone_number", phoneNumber).Msg("failed to list orders")
		return nil, err
	}

	d.orders = cloneOrders(orders)
	d.filter = phoneNumber
	d.err = nil
	return cloneOrders(orders), nil
}

// Get fetches a single order. It does not touch the listing.
func (d *Directory) Get(ctx context.Context, orderID int64) (*model.ConfirmedOrder, error) {
	order, err := d.reader.GetOrder(ctx, orderID)
	if err != nil {
		d.logger.Debug().Err(err).Int64("order_id", orderID).Msg("failed to get order")
		return nil, err
	}
	return order, nil
}

// Orders returns the last applied listing.
func (d *Directory) Orders() []model.ConfirmedOrder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneOrders(d.orders)
}

// Filter returns the phone filter of the last applied listing.
func (d *Directory) Filter() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// Loading reports whether the newest listing request is still outstanding.
func (d *Directory) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applied < d.seq
}

// Err returns the error of the last applied listing, if it failed.
func (d *Directory) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func cloneOrders(orders []model.ConfirmedOrder) []model.ConfirmedOrder {
	out := make([]model.ConfirmedOrder, len(orders))
	for i, o := range orders {
		o.Books = append([]model.BookLine(nil), o.Books...)
		out[i] = o
	}
	return out
}
