// Package flow orchestrates the user-facing checkout steps on top of an order
// session and reports their outcome as events.
package flow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"bookorder/internal/model"

	"github.com/rs/zerolog"
)

// MaxCodeLength bounds the code input.
const MaxCodeLength = 8

const (
	defaultInitiatedMessage = "verification code sent"
	defaultResendMessage    = "a new verification code has been sent"
)

// Step is the user-visible checkout step.
type Step int

const (
	CollectingContact Step = iota
	CollectingCode
	Done
)

func (s Step) String() string {
	switch s {
	case CollectingContact:
		return "collecting_contact"
	case CollectingCode:
		return "collecting_code"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Listener receives checkout events. Calls are made without any controller
// lock held, so a listener may call back into the controller.
type Listener interface {
	OrderInitiated(message string, expiresInSeconds int)
	OrderConfirmed(order model.ConfirmedOrder)
	VerificationFailed(reason string)
	InitiationFailed(reason string)
}

// ListenerFuncs adapts optional functions to a Listener.
type ListenerFuncs struct {
	OnInitiated          func(message string, expiresInSeconds int)
	OnConfirmed          func(order model.ConfirmedOrder)
	OnVerificationFailed func(reason string)
	OnInitiationFailed   func(reason string)
}

func (l ListenerFuncs) OrderInitiated(message string, expiresInSeconds int) {
	if l.OnInitiated != nil {
		l.OnInitiated(message, expiresInSeconds)
	}
}

func (l ListenerFuncs) OrderConfirmed(order model.ConfirmedOrder) {
	if l.OnConfirmed != nil {
		l.OnConfirmed(order)
	}
}

func (l ListenerFuncs) VerificationFailed(reason string) {
	if l.OnVerificationFailed != nil {
		l.OnVerificationFailed(reason)
	}
}

func (l ListenerFuncs) InitiationFailed(reason string) {
	if l.OnInitiationFailed != nil {
		l.OnInitiationFailed(reason)
	}
}

// Session is the protocol engine the controller drives.
type Session interface {
	Initiate(ctx context.Context, draft model.OrderDraft) (*model.InitiateResponse, error)
	Verify(ctx context.Context, code string) (*model.ConfirmedOrder, error)
	Resend(ctx context.Context) (*model.ResendResponse, error)
	Cancel()
}

// Contact is what the buyer enters before a code is requested.
type Contact struct {
	Phone         string
	Address       string
	PaymentMethod model.PaymentMethod
}

// Controller walks one checkout through its steps.
type Controller struct {
	session  Session
	listener Listener
	logger   zerolog.Logger

	mu         sync.Mutex
	step       Step
	draft      *model.OrderDraft
	code       string
	generation uint64
}

// NewController creates a controller at CollectingContact.
func NewController(session Session, listener Listener, logger zerolog.Logger) *Controller {
	if listener == nil {
		listener = ListenerFuncs{}
	}
	return &Controller{
		session:  session,
		listener: listener,
		logger:   logger.With().Str("component", "checkout-flow").Logger(),
		step:     CollectingContact,
	}
}

// Submit builds a draft from contact and cart and requests a code.
func (c *Controller) Submit(ctx context.Context, contact Contact, cart model.Cart) error {
	draft := model.OrderDraft{
		Phone:         contact.Phone,
		Address:       contact.Address,
		PaymentMethod: contact.PaymentMethod,
		Items:         cart.Clone(),
	}

	c.mu.Lock()
	if c.step != CollectingContact {
		c.mu.Unlock()
		return model.ErrInvalidState
	}
	gen := c.generation
	prev := c.draft
	c.draft = &draft
	c.mu.Unlock()

	resp, err := c.session.Initiate(ctx, draft)
	if ignored(err) {
		// The session never took this draft; put back the one it holds.
		c.mu.Lock()
		if c.draft == &draft {
			c.draft = prev
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return model.ErrSuperseded
	}
	c.draft = &draft
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug().Err(err).Msg("initiation failed")
		c.listener.InitiationFailed(model.Reason(err))
		return err
	}
	c.step = CollectingCode
	c.code = ""
	c.mu.Unlock()

	c.listener.OrderInitiated(messageOr(resp.Message, defaultInitiatedMessage), resp.ExpiresInSeconds)
	return nil
}

// Verify submits code and records it as the current input. A call the
// session refuses leaves the input untouched.
func (c *Controller) Verify(ctx context.Context, code string) error {
	c.mu.Lock()
	if c.step != CollectingCode {
		c.mu.Unlock()
		return model.ErrInvalidState
	}
	code = filterCode(code)
	gen := c.generation
	c.mu.Unlock()

	order, err := c.session.Verify(ctx, code)
	if ignored(err) {
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return model.ErrSuperseded
	}
	if err != nil {
		c.code = code
		c.mu.Unlock()
		c.listener.VerificationFailed(model.Reason(err))
		return err
	}
	c.step = Done
	c.draft = nil
	c.code = ""
	c.mu.Unlock()

	c.logger.Info().Int64("order_id", order.ID).Msg("checkout complete")
	c.listener.OrderConfirmed(*order)
	return nil
}

// Resend requests a new code and returns the message to show. The code
// typed so far is kept.
func (c *Controller) Resend(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.step != CollectingCode {
		c.mu.Unlock()
		return "", model.ErrInvalidState
	}
	gen := c.generation
	c.mu.Unlock()

	resp, err := c.session.Resend(ctx)
	if ignored(err) {
		return "", err
	}

	c.mu.Lock()
	stale := gen != c.generation
	c.mu.Unlock()
	if stale {
		return "", model.ErrSuperseded
	}
	if err != nil {
		c.listener.VerificationFailed(model.Reason(err))
		return "", err
	}
	return messageOr(resp.Message, defaultResendMessage), nil
}

// Cancel abandons the checkout and returns to CollectingContact. It is also
// how a finished checkout is restarted.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.generation++
	c.step = CollectingContact
	c.draft = nil
	c.code = ""
	c.mu.Unlock()

	c.session.Cancel()
}

// Step returns the current step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Draft returns a copy of the draft being checked out, if any.
func (c *Controller) Draft() (model.OrderDraft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return model.OrderDraft{}, false
	}
	return c.draft.Clone(), true
}

// Code returns the code input.
func (c *Controller) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// SetCode replaces the code input, keeping digits only, and returns the
// stored value.
func (c *Controller) SetCode(code string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code = filterCode(code)
	return c.code
}

// ignored reports errors that are returned without an event: the call was
// rejected outright or its answer belongs to an abandoned session.
func ignored(err error) bool {
	return errors.Is(err, model.ErrBusy) || errors.Is(err, model.ErrSuperseded)
}

func filterCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			if b.Len() == MaxCodeLength {
				break
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func messageOr(message, fallback string) string {
	if strings.TrimSpace(message) == "" {
		return fallback
	}
	return message
}
