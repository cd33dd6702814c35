package service

import (
	"context"

	"bookorder/internal/model"
)

// OrderService defines the order placement and lookup operations.
type OrderService interface {
	// Initiate validates an order against the catalogue, opens a pending
	// session and sends a verification code.
	Initiate(ctx context.Context, req *model.InitiateRequest) (*model.InitiateResponse, error)

	// Verify checks the code for a session and stores the confirmed order.
	Verify(ctx context.Context, req *model.VerifyRequest) (*model.ConfirmedOrder, error)

	// Resend issues a fresh code for a live session.
	Resend(ctx context.Context, req *model.ResendRequest) (*model.ResendResponse, error)

	// List retrieves confirmed orders newest first.
	List(ctx context.Context, phoneNumber string) ([]model.ConfirmedOrder, error)

	// GetByID retrieves a confirmed order. It returns nil, nil when absent.
	GetByID(ctx context.Context, id int64) (*model.ConfirmedOrder, error)
}
