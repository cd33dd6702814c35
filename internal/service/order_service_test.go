package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookorder/internal/catalog"
	"bookorder/internal/config"
	"bookorder/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.ConfirmedOrder) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderBooks(ctx context.Context, tx pgx.Tx, orderID int64, books []model.BookLine) error {
	args := m.Called(ctx, tx, orderID, books)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*model.ConfirmedOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConfirmedOrder), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, phoneNumber string) ([]model.ConfirmedOrder, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ConfirmedOrder), args.Error(1)
}

// MockSessionStore is a mock implementation of SessionStore.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, s *model.PendingSession, ttl time.Duration) error {
	args := m.Called(ctx, s, ttl)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, token string) (*model.PendingSession, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PendingSession), args.Error(1)
}

func (m *MockSessionStore) Update(ctx context.Context, s *model.PendingSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionStore) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockCodeSender is a mock implementation of CodeSender.
type MockCodeSender struct {
	mock.Mock
}

func (m *MockCodeSender) Send(ctx context.Context, phoneNumber, code string) error {
	args := m.Called(ctx, phoneNumber, code)
	return args.Error(0)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

var (
	testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	testCfg = config.VerificationConfig{SessionTTL: 2 * time.Minute, CodeLength: 6, MaxAttempts: 5}
	physics = model.BookLine{ID: "p1a1", Title: "Dr. Shahjahan Tapan", Price: 450, Quantity: 1}
	biology = model.BookLine{ID: "b1a1", Title: "Dr. Gazi Azmal", Price: 400, Quantity: 2}
)

type fixture struct {
	orders   *MockOrderRepository
	sessions *MockSessionStore
	sender   *MockCodeSender
	service  OrderService
}

func newFixture(codes ...string) *fixture {
	f := &fixture{
		orders:   new(MockOrderRepository),
		sessions: new(MockSessionStore),
		sender:   new(MockCodeSender),
	}
	next := 0
	generate := func(length int) (string, error) {
		code := codes[next%len(codes)]
		next++
		return code, nil
	}
	f.service = NewOrderService(f.orders, f.sessions, catalog.Default(), f.sender, testCfg, zerolog.Nop(),
		WithCodeGenerator(generate),
		WithClock(func() time.Time { return testNow }),
	)
	return f
}

func initiateRequest(books ...model.BookLine) *model.InitiateRequest {
	return &model.InitiateRequest{
		PhoneNumber:   " 01711111111 ",
		Address:       "Dhaka",
		PaymentMethod: model.PaymentBkash,
		Books:         books,
	}
}

func pending(token, code string, attempts int) *model.PendingSession {
	return &model.PendingSession{
		Token:         token,
		CodeHash:      hashCode(token, code),
		Attempts:      attempts,
		PhoneNumber:   "01711111111",
		Address:       "Dhaka",
		PaymentMethod: model.PaymentBkash,
		Books:         []model.BookLine{physics},
		TotalAmount:   450,
		ExpiresAt:     testNow.Add(2 * time.Minute),
	}
}

func TestOrderService_Initiate_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture("123456")

	var saved *model.PendingSession
	f.sessions.On("Save", ctx, mock.AnythingOfType("*model.PendingSession"), 2*time.Minute).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.PendingSession) }).
		Return(nil)
	f.sender.On("Send", ctx, "01711111111", "123456").Return(nil)

	resp, err := f.service.Initiate(ctx, initiateRequest(physics, biology))

	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionToken)
	assert.Equal(t, 120, resp.ExpiresInSeconds)
	assert.Equal(t, int64(450+2*400), resp.TotalAmount)
	assert.Contains(t, resp.Message, "01711111111")

	require.NotNil(t, saved)
	assert.Equal(t, resp.SessionToken, saved.Token)
	assert.Equal(t, hashCode(resp.SessionToken, "123456"), saved.CodeHash)
	assert.NotContains(t, saved.CodeHash, "123456")
	assert.Equal(t, "01711111111", saved.PhoneNumber)
	assert.Equal(t, testNow.Add(2*time.Minute), saved.ExpiresAt)
	assert.Equal(t, 0, saved.Attempts)
	assert.Len(t, saved.Books, 2)

	f.sessions.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestOrderService_Initiate_UsesCatalogueTitles(t *testing.T) {
	ctx := context.Background()
	f := newFixture("123456")

	var saved *model.PendingSession
	f.sessions.On("Save", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.PendingSession) }).
		Return(nil)
	f.sender.On("Send", ctx, mock.Anything, mock.Anything).Return(nil)

	book := physics
	book.Title = "whatever the client said"
	_, err := f.service.Initiate(ctx, initiateRequest(book))

	require.NoError(t, err)
	item, _ := catalog.Default().Lookup("p1a1")
	assert.Equal(t, item.Name, saved.Books[0].Title)
}

func TestOrderService_Initiate_ValidationErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		req          *model.InitiateRequest
		expectedCode string
	}{
		{name: "Nil request", req: nil, expectedCode: model.ErrCodeMissingField},
		{
			name:         "Missing phone",
			req:          &model.InitiateRequest{Address: "Dhaka", PaymentMethod: model.PaymentBkash, Books: []model.BookLine{physics}},
			expectedCode: model.ErrCodeMissingField,
		},
		{
			name:         "Missing address",
			req:          &model.InitiateRequest{PhoneNumber: "0171", PaymentMethod: model.PaymentBkash, Books: []model.BookLine{physics}},
			expectedCode: model.ErrCodeMissingField,
		},
		{
			name:         "Invalid payment method",
			req:          &model.InitiateRequest{PhoneNumber: "0171", Address: "Dhaka", PaymentMethod: "card", Books: []model.BookLine{physics}},
			expectedCode: model.ErrCodeInvalidPaymentMethod,
		},
		{name: "No books", req: initiateRequest(), expectedCode: model.ErrCodeMissingField},
		{
			name:         "Zero quantity",
			req:          initiateRequest(model.BookLine{ID: "p1a1", Price: 450, Quantity: 0}),
			expectedCode: model.ErrCodeInvalidQuantity,
		},
		{
			name:         "Unknown book",
			req:          initiateRequest(model.BookLine{ID: "zz9", Price: 450, Quantity: 1}),
			expectedCode: model.ErrCodeUnknownBook,
		},
		{
			name:         "Price mismatch",
			req:          initiateRequest(model.BookLine{ID: "p1a1", Price: 1, Quantity: 1}),
			expectedCode: model.ErrCodePriceMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("123456")

			resp, err := f.service.Initiate(ctx, tt.req)

			require.Error(t, err)
			assert.Nil(t, resp)
			var domainErr *model.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.expectedCode, domainErr.Code)
			f.sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
			f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_Initiate_SendFailureDiscardsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture("123456")

	var token string
	f.sessions.On("Save", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { token = args.Get(1).(*model.PendingSession).Token }).
		Return(nil)
	f.sender.On("Send", ctx, mock.Anything, mock.Anything).Return(errors.New("sms gateway down"))
	f.sessions.On("Delete", ctx, mock.Anything).Return(nil)

	resp, err := f.service.Initiate(ctx, initiateRequest(physics))

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "failed to send verification code")
	f.sessions.AssertCalled(t, "Delete", ctx, token)
}

func TestOrderService_Initiate_StoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture("123456")
	f.sessions.On("Save", ctx, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	_, err := f.service.Initiate(ctx, initiateRequest(physics))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initiate order")
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_Verify_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture("123456")
	mockTx := new(MockTx)

	f.sessions.On("Get", ctx, "tok1").Return(pending("tok1", "123456", 0), nil)
	f.orders.On("BeginTx", ctx).Return(mockTx, nil)
	f.orders.On("CreateOrder", ctx, mockTx, mock.AnythingOfType("*model.ConfirmedOrder")).
		Run(func(args mock.Arguments) {
			order := args.Get(2).(*model.ConfirmedOrder)
			order.ID = 7
			order.CreatedAt = model.Timestamp{Time: testNow}
		}).
		Return(nil)
	f.orders.On("CreateOrderBooks", ctx, mockTx, int64(7), []model.BookLine{physics}).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)
	f.sessions.On("Delete", ctx, "tok1").Return(nil)

	order, err := f.service.Verify(ctx, &model.VerifyRequest{SessionToken: "tok1", PinCode: "123456"})

	require.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, model.OrderStatusVerified, order.OrderStatus)
	assert.Equal(t, "pending", order.PaymentStatus)
	assert.True(t, order.Verified)
	assert.Equal(t, int64(450), order.TotalAmount)
	assert.Equal(t, model.PaymentBkash, order.PaymentMethod)

	f.sessions.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	mockTx.AssertExpectations(t)
	mockTx.AssertNotCalled(t, "Rollback", mock.Anything)
}

func TestOrderService_Verify_WrongCode(t *testing.T) {
	tests := []struct {
		name          string
		attempts      int
		expectedErr   error
		expectDelete  bool
		expectUpdated int
	}{
		{name: "First failure", attempts: 0, expectedErr: model.ErrInvalidCode, expectUpdated: 1},
		{name: "Fourth failure", attempts: 3, expectedErr: model.ErrInvalidCode, expectUpdated: 4},
		{name: "Fifth failure closes session", attempts: 4, expectedErr: model.ErrTooManyAttempts, expectDelete: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture("123456")

			f.sessions.On("Get", ctx, "tok1").Return(pending("tok1", "123456", tt.attempts), nil)
			f.sessions.On("Update", ctx, mock.AnythingOfType("*model.PendingSession")).Return(nil)
			f.sessions.On("Delete", ctx, "tok1").Return(nil)

			order, err := f.service.Verify(ctx, &model.VerifyRequest{SessionToken: "tok1", PinCode: "000000"})

			assert.Nil(t, order)
			assert.Equal(t, tt.expectedErr, err)
			if tt.expectDelete {
				f.sessions.AssertCalled(t, "Delete", ctx, "tok1")
				f.sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			} else {
				f.sessions.AssertCalled(t, "Update", ctx, mock.MatchedBy(func(s *model.PendingSession) bool {
					return s.Attempts == tt.expectUpdated
				}))
				f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
			f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}

func TestOrderService_Verify_SessionErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		req         *model.VerifyRequest
		setup       func(f *fixture)
		expectedErr error
		errContains string
	}{
		{
			name:        "Missing token",
			req:         &model.VerifyRequest{PinCode: "123456"},
			setup:       func(f *fixture) {},
			errContains: "session_token is required",
		},
		{
			name:        "Missing code",
			req:         &model.VerifyRequest{SessionToken: "tok1"},
			setup:       func(f *fixture) {},
			errContains: "pin_code is required",
		},
		{
			name: "Expired or unknown session",
			req:  &model.VerifyRequest{SessionToken: "tok1", PinCode: "123456"},
			setup: func(f *fixture) {
				f.sessions.On("Get", ctx, "tok1").Return(nil, nil)
			},
			expectedErr: model.ErrSessionNotFound,
		},
		{
			name: "Store failure",
			req:  &model.VerifyRequest{SessionToken: "tok1", PinCode: "123456"},
			setup: func(f *fixture) {
				f.sessions.On("Get", ctx, "tok1").Return(nil, errors.New("redis down"))
			},
			errContains: "failed to verify order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("123456")
			tt.setup(f)

			order, err := f.service.Verify(ctx, tt.req)

			require.Error(t, err)
			assert.Nil(t, order)
			if tt.expectedErr != nil {
				assert.Equal(t, tt.expectedErr, err)
			}
			if tt.errContains != "" {
				assert.Contains(t, err.Error(), tt.errContains)
			}
			f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}

func TestOrderService_Verify_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	f := newFixture("123456")
	mockTx := new(MockTx)

	f.sessions.On("Get", ctx, "tok1").Return(pending("tok1", "123456", 0), nil)
	f.orders.On("BeginTx", ctx).Return(mockTx, nil)
	f.orders.On("CreateOrder", ctx, mockTx, mock.Anything).Return(nil)
	f.orders.On("CreateOrderBooks", ctx, mockTx, mock.Anything, mock.Anything).
		Return(errors.New("database error"))
	mockTx.On("Rollback", ctx).Return(nil)

	order, err := f.service.Verify(ctx, &model.VerifyRequest{SessionToken: "tok1", PinCode: "123456"})

	require.Error(t, err)
	assert.Nil(t, order)
	mockTx.AssertExpectations(t)
	mockTx.AssertNotCalled(t, "Commit", mock.Anything)
	f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestOrderService_Resend(t *testing.T) {
	ctx := context.Background()
	f := newFixture("654321")

	f.sessions.On("Get", ctx, "tok1").Return(pending("tok1", "123456", 3), nil)
	var saved *model.PendingSession
	f.sessions.On("Save", ctx, mock.Anything, 2*time.Minute).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.PendingSession) }).
		Return(nil)
	f.sender.On("Send", ctx, "01711111111", "654321").Return(nil)

	resp, err := f.service.Resend(ctx, &model.ResendRequest{SessionToken: "tok1"})

	require.NoError(t, err)
	assert.Equal(t, 120, resp.ExpiresInSeconds)
	assert.NotEmpty(t, resp.Message)

	require.NotNil(t, saved)
	assert.Equal(t, "tok1", saved.Token)
	assert.Equal(t, 0, saved.Attempts)
	assert.True(t, codeMatches("tok1", "654321", saved.CodeHash))
	assert.False(t, codeMatches("tok1", "123456", saved.CodeHash))
	f.sender.AssertExpectations(t)
}

func TestOrderService_Resend_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing token", func(t *testing.T) {
		f := newFixture("654321")
		_, err := f.service.Resend(ctx, &model.ResendRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session_token is required")
	})

	t.Run("Unknown session", func(t *testing.T) {
		f := newFixture("654321")
		f.sessions.On("Get", ctx, "gone").Return(nil, nil)

		_, err := f.service.Resend(ctx, &model.ResendRequest{SessionToken: "gone"})

		assert.Equal(t, model.ErrSessionNotFound, err)
		f.sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture("123456")
	orders := []model.ConfirmedOrder{{ID: 2}, {ID: 1}}
	f.orders.On("List", ctx, "01711111111").Return(orders, nil)
	f.orders.On("List", ctx, "").Return(nil, errors.New("database error"))

	got, err := f.service.List(ctx, " 01711111111 ")
	require.NoError(t, err)
	assert.Equal(t, orders, got)

	_, err = f.service.List(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list orders")
}

func TestOrderService_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		mockOrder   *model.ConfirmedOrder
		mockError   error
		expectNil   bool
		expectError bool
	}{
		{name: "Found", mockOrder: &model.ConfirmedOrder{ID: 7}},
		{name: "Not found", expectNil: true},
		{name: "Repository error", mockError: errors.New("database error"), expectNil: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("123456")
			f.orders.On("GetByID", ctx, int64(7)).Return(tt.mockOrder, tt.mockError)

			order, err := f.service.GetByID(ctx, 7)

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.expectNil {
				assert.Nil(t, order)
			} else {
				assert.Equal(t, int64(7), order.ID)
			}
		})
	}
}
