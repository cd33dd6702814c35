// Package shell is the line-oriented shop front end: browse the catalogue,
// build a cart, check out with a verification code and look up orders.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"bookorder/internal/catalog"
	"bookorder/internal/directory"
	"bookorder/internal/flow"
	"bookorder/internal/model"
	"bookorder/internal/selection"

	"github.com/rs/zerolog"
)

const helpText = `commands:
  books                 show the catalogue
  toggle <id> [id...]   select or deselect books
  cart                  show the selected books
  checkout              place an order for the cart
  orders [phone]        list orders, optionally for one phone number
  order <id>            show one order
  help                  show this help
  quit                  leave the shop
`

// expiryReporter is implemented by sessions that track their code expiry.
type expiryReporter interface {
	ExpiresIn() time.Duration
}

// Shell reads commands from in and writes everything it shows to out.
type Shell struct {
	in        *bufio.Scanner
	out       io.Writer
	store     *catalog.Store
	selection *selection.Aggregator
	session   flow.Session
	checkout  *flow.Controller
	orders    *directory.Directory
	logger    zerolog.Logger
}

// New wires a shell around an order session and an order reader.
func New(in io.Reader, out io.Writer, store *catalog.Store, session flow.Session, reader directory.Reader, logger zerolog.Logger) *Shell {
	s := &Shell{
		in:        bufio.NewScanner(in),
		out:       out,
		store:     store,
		selection: selection.New(store, logger),
		session:   session,
		orders:    directory.New(reader, logger),
		logger:    logger.With().Str("component", "shell").Logger(),
	}

	s.checkout = flow.NewController(session, flow.ListenerFuncs{
		OnInitiated: func(message string, expiresInSeconds int) {
			s.printf("%s (valid for %ds)\n", message, expiresInSeconds)
		},
		OnConfirmed: func(order model.ConfirmedOrder) {
			s.selection.Reset()
			s.printf("order #%d confirmed, total %s\n", order.ID, money(order.TotalAmount))
		},
		OnVerificationFailed: func(reason string) {
			s.printf("verification failed: %s\n", reason)
		},
		OnInitiationFailed: func(reason string) {
			s.printf("could not place order: %s\n", reason)
		},
	}, logger)

	return s
}

// Run processes commands until quit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("book shop - type 'help' for commands\n")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, ok := s.prompt("> ")
		if !ok {
			return s.in.Err()
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
		case "books", "list":
			s.showCatalogue()
		case "toggle":
			s.toggle(args)
		case "cart":
			s.showCart()
		case "checkout":
			if err := s.runCheckout(ctx); err != nil {
				return err
			}
		case "orders":
			s.listOrders(ctx, strings.Join(args, " "))
		case "order":
			s.showOrder(ctx, args)
		case "help":
			s.printf("%s", helpText)
		case "quit", "exit":
			return nil
		default:
			s.printf("unknown command %q, type 'help'\n", cmd)
		}
	}
}

func (s *Shell) showCatalogue() {
	for _, subject := range s.store.Subjects() {
		s.printf("%s\n", subject.Name)
		for _, item := range subject.Items {
			mark := " "
			if s.selection.Selected(item.ID) {
				mark = "x"
			}
			s.printf("  [%s] %-6s %-24s %s\n", mark, item.ID, item.Name, money(item.Price))
		}
	}
	s.showSummary()
}

func (s *Shell) toggle(ids []string) {
	if len(ids) == 0 {
		s.printf("usage: toggle <id> [id...]\n")
		return
	}
	for _, id := range ids {
		if !s.store.Contains(id) {
			s.printf("no book with id %q\n", id)
			continue
		}
		s.selection.Toggle(id)
	}
	s.showSummary()
}

func (s *Shell) showSummary() {
	cart := s.selection.Cart()
	s.printf("selected %d, total %s\n", len(cart.Items), money(cart.Total))
}

func (s *Shell) showCart() {
	cart := s.selection.Cart()
	if cart.IsEmpty() {
		s.printf("cart is empty\n")
		return
	}
	for _, item := range cart.Items {
		s.printf("  %-6s %-24s %s\n", item.ID, item.Name, money(item.Price))
	}
	s.printf("total %s\n", money(cart.Total))
}

// runCheckout collects contact details, requests a code and then reads codes
// until the order is confirmed or the buyer cancels. It only returns an
// error when ctx is done.
func (s *Shell) runCheckout(ctx context.Context) error {
	if s.checkout.Step() != flow.CollectingContact {
		s.checkout.Cancel()
	}

	cart := s.selection.Cart()
	if cart.IsEmpty() {
		s.printf("cart is empty, toggle some books first\n")
		return nil
	}
	s.showCart()

	contact, ok := s.readContact()
	if !ok {
		return nil
	}

	if err := s.checkout.Submit(ctx, contact, cart); err != nil {
		s.logger.Debug().Err(err).Msg("checkout not started")
		return ctx.Err()
	}

	for s.checkout.Step() == flow.CollectingCode {
		if err := ctx.Err(); err != nil {
			s.checkout.Cancel()
			return err
		}

		line, ok := s.prompt(s.codePrompt())
		if !ok {
			s.checkout.Cancel()
			return nil
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			continue
		case "cancel":
			s.checkout.Cancel()
			s.printf("checkout cancelled\n")
		case "resend":
			message, err := s.checkout.Resend(ctx)
			if err == nil {
				s.printf("%s\n", message)
			}
		default:
			if err := s.checkout.Verify(ctx, line); errors.Is(err, model.ErrBusy) {
				s.printf("still working on the previous request\n")
			}
		}
	}

	return nil
}

func (s *Shell) codePrompt() string {
	if r, ok := s.session.(expiryReporter); ok {
		if left := r.ExpiresIn(); left > 0 {
			return fmt.Sprintf("code (%ds left, 'resend' or 'cancel'): ", int(left.Round(time.Second)/time.Second))
		}
		return "code expired, type 'resend' or 'cancel': "
	}
	return "code ('resend' or 'cancel'): "
}

func (s *Shell) readContact() (flow.Contact, bool) {
	phone, ok := s.prompt("phone number: ")
	if !ok {
		return flow.Contact{}, false
	}
	address, ok := s.prompt("delivery address: ")
	if !ok {
		return flow.Contact{}, false
	}

	for i, method := range model.PaymentMethods {
		s.printf("  %d) %s\n", i+1, method)
	}
	for {
		choice, ok := s.prompt("payment method [1]: ")
		if !ok {
			return flow.Contact{}, false
		}
		if method, ok := parsePaymentMethod(choice); ok {
			return flow.Contact{Phone: phone, Address: address, PaymentMethod: method}, true
		}
		s.printf("choose 1-%d\n", len(model.PaymentMethods))
	}
}

func parsePaymentMethod(choice string) (model.PaymentMethod, bool) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return model.PaymentMethods[0], true
	}
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(model.PaymentMethods) {
			return model.PaymentMethods[n-1], true
		}
		return "", false
	}
	method := model.PaymentMethod(strings.ToLower(choice))
	return method, method.Valid()
}

func (s *Shell) listOrders(ctx context.Context, phone string) {
	orders, err := s.orders.List(ctx, phone)
	if errors.Is(err, model.ErrSuperseded) {
		return
	}
	if err != nil {
		s.printf("could not load orders: %s\n", model.Reason(err))
		return
	}
	if len(orders) == 0 {
		s.printf("no orders found\n")
		return
	}
	for _, order := range orders {
		s.printf("#%-5d %-10s %-16s %-14s %s\n",
			order.ID,
			statusLabel(order.OrderStatus),
			order.PhoneNumber,
			formatTime(order.CreatedAt),
			money(order.TotalAmount),
		)
	}
}

func (s *Shell) showOrder(ctx context.Context, args []string) {
	if len(args) != 1 {
		s.printf("usage: order <id>\n")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		s.printf("invalid order id %q\n", args[0])
		return
	}

	order, err := s.orders.Get(ctx, id)
	if err != nil {
		s.printf("could not load order: %s\n", model.Reason(err))
		return
	}

	s.printf("order #%d  %s  %s\n", order.ID, statusLabel(order.OrderStatus), formatTime(order.CreatedAt))
	s.printf("  phone:   %s\n", order.PhoneNumber)
	s.printf("  address: %s\n", order.Address)
	s.printf("  payment: %s (%s)\n", order.PaymentMethod, order.PaymentStatus)
	for _, book := range order.Books {
		s.printf("  %dx %-24s %s\n", book.Quantity, book.Title, money(book.Price))
	}
	s.printf("  total:   %s\n", money(order.TotalAmount))
}

// prompt writes label and reads one line. It reports false at end of input.
func (s *Shell) prompt(label string) (string, bool) {
	s.printf("%s", label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
