// Package session implements the write side of the order protocol: initiate,
// verify and resend, driven as an explicit state machine.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"bookorder/internal/model"

	"github.com/rs/zerolog"
)

// MinCodeLength is the shortest code accepted before contacting the backend.
const MinCodeLength = 4

// State is the protocol state of a Client.
type State int

const (
	Idle State = iota
	Initiating
	AwaitingCode
	Verifying
	Confirmed
	Expired
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initiating:
		return "initiating"
	case AwaitingCode:
		return "awaiting_code"
	case Verifying:
		return "verifying"
	case Confirmed:
		return "confirmed"
	case Expired:
		return "expired"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Backend is the transport the client drives.
type Backend interface {
	Initiate(ctx context.Context, req model.InitiateRequest) (*model.InitiateResponse, error)
	Verify(ctx context.Context, req model.VerifyRequest) (*model.ConfirmedOrder, error)
	ResendCode(ctx context.Context, sessionToken string) (*model.ResendResponse, error)
}

// Client owns one checkout's session token and its lifecycle. At most one
// write call is outstanding at a time; a second one gets model.ErrBusy.
type Client struct {
	backend Backend
	logger  zerolog.Logger
	now     func() time.Time

	mu         sync.Mutex
	state      State
	session    *model.OrderSession
	order      *model.ConfirmedOrder
	failure    error
	inFlight   bool
	generation uint64
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces time.Now for expiry computations.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates an idle client.
func New(backend Backend, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		logger:  logger.With().Str("component", "order-session").Logger(),
		now:     time.Now,
		state:   Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initiate freezes draft and asks the backend for a code. It is accepted
// from Idle, and from Failed or Expired as a user retry.
func (c *Client) Initiate(ctx context.Context, draft model.OrderDraft) (*model.InitiateResponse, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, model.ErrBusy
	}
	switch c.state {
	case Idle, Failed, Expired:
	default:
		c.mu.Unlock()
		return nil, model.ErrInvalidState
	}

	draft = draft.Clone()
	if err := draft.Validate(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.generation++
	gen := c.generation
	c.state = Initiating
	c.session = nil
	c.order = nil
	c.failure = nil
	c.inFlight = true
	c.mu.Unlock()

	c.logger.Debug().
		Int("items", len(draft.Items.Items)).
		Int64("total", draft.Items.Total).
		Msg("initiating order")

	resp, err := c.backend.Initiate(ctx, draft.Request())
	if err == nil && (resp == nil || resp.SessionToken == "" || resp.ExpiresInSeconds <= 0) {
		err = &model.TransportError{Op: "initiate", Err: errors.New("response missing session token or expiry")}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug().Msg("discarding initiate response for superseded session")
		return nil, model.ErrSuperseded
	}
	c.inFlight = false

	if err != nil {
		c.state = Failed
		c.failure = err
		c.logger.Warn().Err(err).Msg("order initiation failed")
		return nil, err
	}

	c.session = &model.OrderSession{
		Token:     resp.SessionToken,
		ExpiresAt: c.now().Add(time.Duration(resp.ExpiresInSeconds) * time.Second),
		Draft:     draft,
	}
	c.state = AwaitingCode

	c.logger.Info().
		Int("expires_in_seconds", resp.ExpiresInSeconds).
		Msg("verification code requested")

	return resp, nil
}

// Verify submits code for the live session. A rejection returns the client
// to AwaitingCode so the user may retry or resend. An Expired session keeps
// failing locally until Resend revives it.
func (c *Client) Verify(ctx context.Context, code string) (*model.ConfirmedOrder, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, model.ErrBusy
	}
	if c.state == Expired {
		c.mu.Unlock()
		return nil, model.ErrExpiredSession
	}
	if c.state != AwaitingCode {
		c.mu.Unlock()
		return nil, model.ErrInvalidState
	}
	if len(code) < MinCodeLength {
		c.mu.Unlock()
		return nil, model.NewValidationError("pin_code", "code must be at least 4 digits")
	}
	if c.now().After(c.session.ExpiresAt) {
		c.state = Expired
		c.mu.Unlock()
		c.logger.Info().Msg("verification attempted after local expiry")
		return nil, model.ErrExpiredSession
	}

	gen := c.generation
	token := c.session.Token
	c.state = Verifying
	c.inFlight = true
	c.mu.Unlock()

	order, err := c.backend.Verify(ctx, model.VerifyRequest{SessionToken: token, PinCode: code})
	if err == nil && order == nil {
		err = &model.TransportError{Op: "verify", Err: errors.New("empty order in response")}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug().Msg("discarding verify response for superseded session")
		return nil, model.ErrSuperseded
	}
	c.inFlight = false

	if err != nil {
		c.state = AwaitingCode
		c.logger.Info().Err(err).Msg("verification rejected")
		return nil, err
	}

	c.state = Confirmed
	c.session = nil
	c.order = order

	c.logger.Info().Int64("order_id", order.ID).Msg("order confirmed")

	result := cloneOrder(*order)
	return &result, nil
}

// Resend requests a fresh code for the live session. Success refreshes the
// expiry and revives an Expired session; failure changes nothing.
func (c *Client) Resend(ctx context.Context) (*model.ResendResponse, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, model.ErrBusy
	}
	if c.state != AwaitingCode && c.state != Expired {
		c.mu.Unlock()
		return nil, model.ErrInvalidState
	}

	gen := c.generation
	token := c.session.Token
	c.inFlight = true
	c.mu.Unlock()

	resp, err := c.backend.ResendCode(ctx, token)
	if err == nil && (resp == nil || resp.ExpiresInSeconds <= 0) {
		err = &model.TransportError{Op: "resend", Err: errors.New("response missing expiry")}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug().Msg("discarding resend response for superseded session")
		return nil, model.ErrSuperseded
	}
	c.inFlight = false

	if err != nil {
		c.logger.Warn().Err(err).Msg("resend failed")
		return nil, err
	}

	c.session.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresInSeconds) * time.Second)
	if c.state == Expired {
		c.state = AwaitingCode
	}

	c.logger.Info().Int("expires_in_seconds", resp.ExpiresInSeconds).Msg("verification code resent")

	return resp, nil
}

// Cancel discards the session and returns to Idle. Any outstanding response
// is discarded when it arrives.
func (c *Client) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Reset returns a Confirmed or Failed client to Idle.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Confirmed && c.state != Failed {
		return model.ErrInvalidState
	}
	c.resetLocked()
	return nil
}

func (c *Client) resetLocked() {
	c.generation++
	c.state = Idle
	c.session = nil
	c.order = nil
	c.failure = nil
	c.inFlight = false
}

// State returns the current state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the live session, if any.
func (c *Client) Session() (model.OrderSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return model.OrderSession{}, false
	}
	s := *c.session
	s.Draft = s.Draft.Clone()
	return s, true
}

// Order returns the confirmed order once the client reaches Confirmed.
func (c *Client) Order() (model.ConfirmedOrder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.order == nil {
		return model.ConfirmedOrder{}, false
	}
	return cloneOrder(*c.order), true
}

func cloneOrder(o model.ConfirmedOrder) model.ConfirmedOrder {
	o.Books = append([]model.BookLine(nil), o.Books...)
	return o
}

// Failure returns the error that moved the client to Failed.
func (c *Client) Failure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// ExpiresIn returns the time left on the live session. It is zero when no
// session is live or the local expiry has passed.
func (c *Client) ExpiresIn() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return 0
	}
	left := c.session.ExpiresAt.Sub(c.now())
	if left < 0 {
		return 0
	}
	return left
}
