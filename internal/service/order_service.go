package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookorder/internal/catalog"
	"bookorder/internal/config"
	"bookorder/internal/model"
	"bookorder/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	sessions  repository.SessionStore
	catalog   *catalog.Store
	sender    CodeSender
	cfg       config.VerificationConfig
	generate  CodeGenerator
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures the order service.
type Option func(*orderService)

// WithCodeGenerator replaces GenerateCode.
func WithCodeGenerator(generate CodeGenerator) Option {
	return func(s *orderService) {
		s.generate = generate
	}
}

// WithClock replaces time.Now for session expiry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *orderService) {
		s.now = now
	}
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	sessions repository.SessionStore,
	store *catalog.Store,
	sender CodeSender,
	cfg config.VerificationConfig,
	logger zerolog.Logger,
	opts ...Option,
) OrderService {
	s := &orderService{
		orderRepo: orderRepo,
		sessions:  sessions,
		catalog:   store,
		sender:    sender,
		cfg:       cfg,
		generate:  GenerateCode,
		now:       time.Now,
		logger:    logger.With().Str("service", "order").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate validates an order, opens a pending session and sends a code.
func (s *orderService) Initiate(ctx context.Context, req *model.InitiateRequest) (*model.InitiateResponse, error) {
	books, total, err := s.validateInitiateRequest(req)
	if err != nil {
		return nil, err
	}

	code, err := s.generate(s.cfg.CodeLength)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate verification code")
		return nil, fmt.Errorf("failed to initiate order: %w", err)
	}

	token := uuid.NewString()
	sess := &model.PendingSession{
		Token:         token,
		CodeHash:      hashCode(token, code),
		PhoneNumber:   strings.TrimSpace(req.PhoneNumber),
		Address:       strings.TrimSpace(req.Address),
		PaymentMethod: req.PaymentMethod,
		Books:         books,
		TotalAmount:   total,
		ExpiresAt:     s.now().Add(s.cfg.SessionTTL),
	}

	if err := s.sessions.Save(ctx, sess, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to initiate order: %w", err)
	}

	if err := s.sender.Send(ctx, sess.PhoneNumber, code); err != nil {
		s.logger.Error().Err(err).Msg("failed to send verification code")
		if delErr := s.sessions.Delete(ctx, token); delErr != nil {
			s.logger.Error().Err(delErr).Msg("failed to discard unsent session")
		}
		return nil, fmt.Errorf("failed to send verification code: %w", err)
	}

	s.logger.Info().
		Int("book_count", len(books)).
		Int64("total_amount", total).
		Msg("order initiated")

	return &model.InitiateResponse{
		Message:          "verification code sent to " + sess.PhoneNumber,
		SessionToken:     token,
		ExpiresInSeconds: s.ttlSeconds(),
		TotalAmount:      total,
	}, nil
}

// Verify checks the code for a session and stores the confirmed order.
func (s *orderService) Verify(ctx context.Context, req *model.VerifyRequest) (*model.ConfirmedOrder, error) {
	if req == nil || strings.TrimSpace(req.SessionToken) == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "session_token is required")
	}
	if strings.TrimSpace(req.PinCode) == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "pin_code is required")
	}

	sess, err := s.sessions.Get(ctx, req.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify order: %w", err)
	}
	if sess == nil {
		return nil, model.ErrSessionNotFound
	}

	if !codeMatches(sess.Token, strings.TrimSpace(req.PinCode), sess.CodeHash) {
		return nil, s.recordFailedAttempt(ctx, sess)
	}

	order := &model.ConfirmedOrder{
		PhoneNumber:   sess.PhoneNumber,
		Address:       sess.Address,
		PaymentMethod: sess.PaymentMethod,
		PaymentStatus: "pending",
		Books:         sess.Books,
		TotalAmount:   sess.TotalAmount,
		OrderStatus:   model.OrderStatusVerified,
		Verified:      true,
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderBooks(ctx, tx, order.ID, order.Books); err != nil {
		s.logger.Error().
			Err(err).
			Int64("order_id", order.ID).
			Int("book_count", len(order.Books)).
			Msg("failed to create order books")
		return nil, fmt.Errorf("failed to create order books: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if delErr := s.sessions.Delete(ctx, sess.Token); delErr != nil {
		s.logger.Warn().Err(delErr).Int64("order_id", order.ID).Msg("failed to delete verified session")
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("total_amount", order.TotalAmount).
		Msg("order verified")

	return order, nil
}

// recordFailedAttempt counts a wrong code and closes the session once the
// attempt limit is reached.
func (s *orderService) recordFailedAttempt(ctx context.Context, sess *model.PendingSession) error {
	sess.Attempts++

	if sess.Attempts >= s.cfg.MaxAttempts {
		s.logger.Warn().Int("attempts", sess.Attempts).Msg("too many failed verification attempts")
		if err := s.sessions.Delete(ctx, sess.Token); err != nil {
			return fmt.Errorf("failed to verify order: %w", err)
		}
		return model.ErrTooManyAttempts
	}

	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("failed to verify order: %w", err)
	}

	s.logger.Debug().Int("attempts", sess.Attempts).Msg("invalid verification code")
	return model.ErrInvalidCode
}

// Resend issues a fresh code, resets the attempt count and restarts the TTL.
func (s *orderService) Resend(ctx context.Context, req *model.ResendRequest) (*model.ResendResponse, error) {
	if req == nil || strings.TrimSpace(req.SessionToken) == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "session_token is required")
	}

	sess, err := s.sessions.Get(ctx, req.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("failed to resend code: %w", err)
	}
	if sess == nil {
		return nil, model.ErrSessionNotFound
	}

	code, err := s.generate(s.cfg.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to resend code: %w", err)
	}

	sess.CodeHash = hashCode(sess.Token, code)
	sess.Attempts = 0
	sess.ExpiresAt = s.now().Add(s.cfg.SessionTTL)

	if err := s.sessions.Save(ctx, sess, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to resend code: %w", err)
	}

	if err := s.sender.Send(ctx, sess.PhoneNumber, code); err != nil {
		s.logger.Error().Err(err).Msg("failed to send verification code")
		return nil, fmt.Errorf("failed to send verification code: %w", err)
	}

	s.logger.Info().Msg("verification code resent")

	return &model.ResendResponse{
		Message:          "a new verification code has been sent to " + sess.PhoneNumber,
		ExpiresInSeconds: s.ttlSeconds(),
	}, nil
}

// List retrieves confirmed orders newest first.
func (s *orderService) List(ctx context.Context, phoneNumber string) ([]model.ConfirmedOrder, error) {
	orders, err := s.orderRepo.List(ctx, strings.TrimSpace(phoneNumber))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a confirmed order.
func (s *orderService) GetByID(ctx context.Context, id int64) (*model.ConfirmedOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Int64("order_id", id).Msg("order not found")
		return nil, nil
	}

	return order, nil
}

// validateInitiateRequest checks the request against the catalogue and
// returns the authoritative book lines and total.
func (s *orderService) validateInitiateRequest(req *model.InitiateRequest) ([]model.BookLine, int64, error) {
	if req == nil {
		return nil, 0, model.NewDomainError(model.ErrCodeMissingField, "order request is required")
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, 0, model.NewDomainError(model.ErrCodeMissingField, "phone_number is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, 0, model.NewDomainError(model.ErrCodeMissingField, "address is required")
	}
	if !req.PaymentMethod.Valid() {
		return nil, 0, model.ErrInvalidPaymentMethod
	}
	if len(req.Books) == 0 {
		return nil, 0, model.NewDomainError(model.ErrCodeMissingField, "books must not be empty")
	}

	books := make([]model.BookLine, len(req.Books))
	var total int64
	for i, book := range req.Books {
		if book.Quantity <= 0 {
			s.logger.Warn().
				Int("book_index", i).
				Str("book_id", book.ID).
				Int("quantity", book.Quantity).
				Msg("invalid quantity")
			return nil, 0, model.ErrInvalidQuantity
		}

		item, ok := s.catalog.Lookup(book.ID)
		if !ok {
			s.logger.Warn().Str("book_id", book.ID).Msg("unknown book")
			return nil, 0, model.ErrUnknownBook
		}
		if item.Price != book.Price {
			s.logger.Warn().
				Str("book_id", book.ID).
				Int64("price", book.Price).
				Int64("catalogue_price", item.Price).
				Msg("price mismatch")
			return nil, 0, model.ErrPriceMismatch
		}

		books[i] = model.BookLine{
			ID:       item.ID,
			Title:    item.Name,
			Price:    item.Price,
			Quantity: book.Quantity,
		}
		total += item.Price * int64(book.Quantity)
	}

	return books, total, nil
}

func (s *orderService) ttlSeconds() int {
	return int(s.cfg.SessionTTL / time.Second)
}
