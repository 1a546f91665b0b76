package orders

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"
	"go_trial/foodapi/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errOrderMissing = apperr.NotFound("There's no order with this ID")

type memStore struct {
	mu           sync.Mutex
	carts        map[primitive.ObjectID][]models.CartItem
	orders       map[primitive.ObjectID]*models.Order
	links        map[primitive.ObjectID][]primitive.ObjectID
	transactions map[primitive.ObjectID]*models.Transaction
	usedCodes    map[string]bool
	// failNext makes the named method fail once.
	failNext map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		carts:        map[primitive.ObjectID][]models.CartItem{},
		orders:       map[primitive.ObjectID]*models.Order{},
		links:        map[primitive.ObjectID][]primitive.ObjectID{},
		transactions: map[primitive.ObjectID]*models.Transaction{},
		usedCodes:    map[string]bool{},
		failNext:     map[string]error{},
	}
}

// failOnce must be called with s.mu held.
func (s *memStore) failOnce(method string) error {
	err := s.failNext[method]
	delete(s.failNext, method)
	return err
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) CartOf(_ context.Context, customerID primitive.ObjectID) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.carts[customerID]...), nil
}

func (s *memStore) ClearCart(_ context.Context, customerID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce("ClearCart"); err != nil {
		return err
	}
	s.carts[customerID] = nil
	return nil
}

func (s *memStore) LinkOrder(_ context.Context, customerID, orderID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce("LinkOrder"); err != nil {
		return err
	}
	for _, id := range s.links[customerID] {
		if id == orderID {
			return nil
		}
	}
	s.links[customerID] = append(s.links[customerID], orderID)
	return nil
}

func (s *memStore) InsertOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce("InsertOrder"); err != nil {
		return err
	}
	o.ID = primitive.NewObjectID()
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *memStore) MarkOrderSettled(_ context.Context, orderID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce("MarkOrderSettled"); err != nil {
		return err
	}
	o, ok := s.orders[orderID]
	if !ok {
		return errOrderMissing
	}
	o.Pending = false
	return nil
}

func (s *memStore) FindOrderByIdempotencyKey(_ context.Context, customerID primitive.ObjectID, key string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.CustomerID == customerID && o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, errOrderMissing
}

func (s *memStore) OrderCodeInUse(_ context.Context, _ primitive.ObjectID, code string) (bool, error) {
	return s.usedCodes[code], nil
}

func (s *memStore) OrdersOfCustomer(_ context.Context, customerID primitive.ObjectID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, id := range s.links[customerID] {
		out = append(out, *s.orders[id])
	}
	return out, nil
}

func (s *memStore) FindOrderForCustomer(_ context.Context, customerID, orderID primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.CustomerID != customerID {
		return nil, errOrderMissing
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) OrdersOfVendor(_ context.Context, vendorID primitive.ObjectID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.VendorID == vendorID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) FindOrderForVendor(_ context.Context, vendorID, orderID primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.VendorID != vendorID {
		return nil, errOrderMissing
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) UpdateOrderProgress(_ context.Context, vendorID, orderID primitive.ObjectID, from models.OrderStatus, p models.OrderProgress) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce("UpdateOrderProgress"); err != nil {
		return nil, err
	}
	o, ok := s.orders[orderID]
	if !ok || o.VendorID != vendorID || o.OrderStatus != from {
		return nil, apperr.Conflict("Order was changed by another request")
	}
	o.OrderStatus = p.Status
	if p.Remarks != nil {
		o.Remarks = *p.Remarks
	}
	if p.ReadyTime != nil {
		o.ReadyTime = *p.ReadyTime
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) EnsureTransaction(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce("EnsureTransaction"); err != nil {
		return err
	}
	if existing, ok := s.transactions[t.OrderID]; ok {
		*t = *existing
		return nil
	}
	t.ID = primitive.NewObjectID()
	cp := *t
	s.transactions[t.OrderID] = &cp
	return nil
}

func (s *memStore) SetTransactionStatus(_ context.Context, orderID primitive.ObjectID, status models.TransactionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOnce("SetTransactionStatus"); err != nil {
		return err
	}
	t, ok := s.transactions[orderID]
	if !ok {
		return apperr.NotFound("There's no transaction with this ID")
	}
	t.Status = status
	return nil
}

type fixedPricer struct {
	vendor primitive.ObjectID
	offer  *models.Offer
	err    error
	got    []pricing.Line
}

func (p *fixedPricer) Quote(_ context.Context, lines []pricing.Line, offerID *primitive.ObjectID) (*pricing.Quote, error) {
	p.got = lines
	if p.err != nil {
		return nil, p.err
	}
	if len(lines) == 0 {
		return nil, pricing.ErrEmptyOrInvalidCart
	}
	q := &pricing.Quote{VendorID: p.vendor, Subtotal: decimal.Zero, Discount: decimal.Zero}
	for _, l := range lines {
		q.Items = append(q.Items, models.OrderItem{Food: l.FoodID, Quantity: l.Quantity})
		q.Subtotal = q.Subtotal.Add(decimal.NewFromInt(int64(10 * l.Quantity)))
	}
	if offerID != nil && p.offer != nil {
		q.Offer = p.offer
		q.Discount = pricing.Discount(q.Subtotal, p.offer.DiscountPercentage)
	}
	q.Total = q.Subtotal.Sub(q.Discount)
	return q, nil
}

type recordingPublisher struct {
	events []string
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, eventType string, _ *models.Order) error {
	p.events = append(p.events, eventType)
	return p.err
}

type seqCodes struct{ codes []string }

func (c *seqCodes) Next() (string, error) {
	if len(c.codes) == 0 {
		return "", errors.New("exhausted")
	}
	code := c.codes[0]
	c.codes = c.codes[1:]
	return code, nil
}

type clock struct{ now time.Time }

func (c clock) Now() time.Time { return c.now }

type fixture struct {
	store    *memStore
	pricer   *fixedPricer
	events   *recordingPublisher
	svc      *Service
	customer primitive.ObjectID
	vendor   primitive.ObjectID
	now      time.Time
}

func newFixture(policy StatusPolicy, opts ...Option) *fixture {
	fx := &fixture{
		store:    newMemStore(),
		events:   &recordingPublisher{},
		customer: primitive.NewObjectID(),
		vendor:   primitive.NewObjectID(),
		now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.pricer = &fixedPricer{vendor: fx.vendor}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	opts = append([]Option{WithClock(clock{fx.now})}, opts...)
	fx.svc = NewService(fx.store, fx.pricer, fx.events, Config{StatusPolicy: policy}, logger, opts...)
	return fx
}

func (fx *fixture) place(t *testing.T) *models.Order {
	t.Helper()
	o, err := fx.svc.Create(context.Background(), fx.customer, CreateInput{
		Lines: []pricing.Line{{FoodID: primitive.NewObjectID(), Quantity: 2}},
	})
	require.NoError(t, err)
	return o
}

func TestCreateFromPersistedCart(t *testing.T) {
	fx := newFixture(StrictStatus)
	food := primitive.NewObjectID()
	fx.store.carts[fx.customer] = []models.CartItem{{Food: food, Quantity: 3}}

	o, err := fx.svc.Create(context.Background(), fx.customer, CreateInput{})
	require.NoError(t, err)

	assert.Equal(t, []pricing.Line{{FoodID: food, Quantity: 3}}, fx.pricer.got)
	assert.Equal(t, models.StatusWaiting, o.OrderStatus)
	assert.Equal(t, "30.00", o.TotalAmount.String())
	assert.False(t, o.Pending)
	assert.Equal(t, DefaultReadyTime, o.ReadyTime)
	assert.Equal(t, DefaultPaymentMode, o.PaidThrough)
	assert.Equal(t, fx.now, o.OrderDate)
	assert.Len(t, o.OrderID, 4)
	assert.Empty(t, fx.store.carts[fx.customer])
	assert.Equal(t, []primitive.ObjectID{o.ID}, fx.store.links[fx.customer])
	assert.Equal(t, models.TransactionOpen, fx.store.transactions[o.ID].Status)
	assert.Equal(t, []string{EventCreated}, fx.events.events)
}

func TestCreateAppliesOffer(t *testing.T) {
	fx := newFixture(StrictStatus)
	offer := &models.Offer{ID: primitive.NewObjectID(), DiscountPercentage: 15}
	fx.pricer.offer = offer

	o, err := fx.svc.Create(context.Background(), fx.customer, CreateInput{
		Lines:   []pricing.Line{{FoodID: primitive.NewObjectID(), Quantity: 2}},
		OfferID: &offer.ID,
	})
	require.NoError(t, err)

	assert.True(t, o.AppliedOffers)
	require.NotNil(t, o.OfferID)
	assert.Equal(t, offer.ID, *o.OfferID)
	assert.Equal(t, "17.00", o.TotalAmount.String())
	assert.Equal(t, "17.00", fx.store.transactions[o.ID].OrderValue.String())
	assert.Equal(t, &offer.ID, fx.store.transactions[o.ID].OfferUsed)
}

func TestCreateEmptyCartKeepsStateUntouched(t *testing.T) {
	fx := newFixture(StrictStatus)

	_, err := fx.svc.Create(context.Background(), fx.customer, CreateInput{})

	assert.ErrorIs(t, err, pricing.ErrEmptyOrInvalidCart)
	assert.Empty(t, fx.store.orders)
	assert.Empty(t, fx.events.events)
}

func TestCreatePricingFailureLeavesCart(t *testing.T) {
	fx := newFixture(StrictStatus)
	fx.pricer.err = pricing.ErrInvalidOrExpiredOffer
	fx.store.carts[fx.customer] = []models.CartItem{{Food: primitive.NewObjectID(), Quantity: 1}}

	_, err := fx.svc.Create(context.Background(), fx.customer, CreateInput{})

	assert.ErrorIs(t, err, pricing.ErrInvalidOrExpiredOffer)
	assert.Len(t, fx.store.carts[fx.customer], 1)
}

func TestCreateIdempotencyKeyReturnsSameOrder(t *testing.T) {
	fx := newFixture(StrictStatus)
	in := CreateInput{
		Lines:          []pricing.Line{{FoodID: primitive.NewObjectID(), Quantity: 1}},
		IdempotencyKey: "checkout-1",
	}

	first, err := fx.svc.Create(context.Background(), fx.customer, in)
	require.NoError(t, err)
	second, err := fx.svc.Create(context.Background(), fx.customer, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, fx.store.orders, 1)
	assert.Equal(t, []string{EventCreated}, fx.events.events)
}

func TestCreateRejectsLongIdempotencyKey(t *testing.T) {
	fx := newFixture(StrictStatus)
	long := make([]byte, maxKeyLength+1)
	for i := range long {
		long[i] = 'k'
	}

	_, err := fx.svc.Create(context.Background(), fx.customer, CreateInput{IdempotencyKey: string(long)})

	assert.ErrorIs(t, err, ErrInvalidIdempotencyKey)
}

func TestCreateSkipsCodesInUse(t *testing.T) {
	fx := newFixture(StrictStatus, WithCodes(&seqCodes{codes: []string{"1234", "1234", "5678"}}))
	fx.store.usedCodes["1234"] = true

	o := fx.place(t)

	assert.Equal(t, "5678", o.OrderID)
}

func TestCreateGivesUpWhenCodesExhausted(t *testing.T) {
	codes := make([]string, maxCodeAttempts)
	for i := range codes {
		codes[i] = "4242"
	}
	fx := newFixture(StrictStatus, WithCodes(&seqCodes{codes: codes}))
	fx.store.usedCodes["4242"] = true

	_, err := fx.svc.Create(context.Background(), fx.customer, CreateInput{
		Lines: []pricing.Line{{FoodID: primitive.NewObjectID(), Quantity: 1}},
	})

	assert.ErrorIs(t, err, ErrNoFreeOrderCode)
}

func TestCreatePublishFailureStillSucceeds(t *testing.T) {
	fx := newFixture(StrictStatus)
	fx.events.err = errors.New("broker down")

	o := fx.place(t)

	assert.NotNil(t, fx.store.orders[o.ID])
}

func TestCreateStoreFailureIsInternal(t *testing.T) {
	fx := newFixture(StrictStatus)
	fx.store.failNext["InsertOrder"] = errors.New("socket closed")

	_, err := fx.svc.Create(context.Background(), fx.customer, CreateInput{
		Lines: []pricing.Line{{FoodID: primitive.NewObjectID(), Quantity: 1}},
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestListAndGetAreScopedToCustomer(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)

	list, err := fx.svc.List(context.Background(), fx.customer)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := fx.svc.Get(context.Background(), fx.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderID, got.OrderID)

	_, err = fx.svc.Get(context.Background(), primitive.NewObjectID(), o.ID)
	assert.ErrorIs(t, err, errOrderMissing)
}

func TestVendorOrdersAreScopedToVendor(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)

	list, err := fx.svc.VendorOrders(context.Background(), fx.vendor)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = fx.svc.VendorOrder(context.Background(), primitive.NewObjectID(), o.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProcessWalksTheHappyPath(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)
	ctx := context.Background()

	for _, next := range []models.OrderStatus{
		models.StatusAccepted, models.StatusPreparing, models.StatusReady,
		models.StatusOutForDelivery, models.StatusDelivered,
	} {
		updated, err := fx.svc.Process(ctx, fx.vendor, o.ID, ProcessInput{Status: next})
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, next, updated.OrderStatus)
	}

	assert.Equal(t, models.TransactionConfirmed, fx.store.transactions[o.ID].Status)
	assert.Len(t, fx.events.events, 6)
}

func TestProcessRejectCancelsTransaction(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)
	remarks := "out of stock"

	updated, err := fx.svc.Process(context.Background(), fx.vendor, o.ID, ProcessInput{
		Status:  models.StatusRejected,
		Remarks: &remarks,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, updated.OrderStatus)
	assert.Equal(t, remarks, updated.Remarks)
	assert.Equal(t, models.TransactionCancelled, fx.store.transactions[o.ID].Status)
}

func TestProcessStrictRejectsSkippedStates(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)

	_, err := fx.svc.Process(context.Background(), fx.vendor, o.ID, ProcessInput{Status: models.StatusDelivered})

	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, models.StatusWaiting, fx.store.orders[o.ID].OrderStatus)
}

func TestProcessOpenPolicyAllowsAnyKnownStatus(t *testing.T) {
	fx := newFixture(OpenStatus)
	o := fx.place(t)

	updated, err := fx.svc.Process(context.Background(), fx.vendor, o.ID, ProcessInput{Status: models.StatusDelivered})
	require.NoError(t, err)

	assert.Equal(t, models.StatusDelivered, updated.OrderStatus)
}

func TestProcessEditsRemarksWithoutStatus(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)
	ready := 40

	updated, err := fx.svc.Process(context.Background(), fx.vendor, o.ID, ProcessInput{ReadyTime: &ready})
	require.NoError(t, err)

	assert.Equal(t, models.StatusWaiting, updated.OrderStatus)
	assert.Equal(t, 40, updated.ReadyTime)
	assert.Equal(t, []string{EventCreated}, fx.events.events)
}

func TestProcessRejectsNegativeReadyTime(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)
	ready := -1

	_, err := fx.svc.Process(context.Background(), fx.vendor, o.ID, ProcessInput{ReadyTime: &ready})

	assert.ErrorIs(t, err, ErrInvalidReadyTime)
}

func TestProcessForeignVendorIsNotFound(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)

	_, err := fx.svc.Process(context.Background(), primitive.NewObjectID(), o.ID, ProcessInput{Status: models.StatusAccepted})

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func (fx *fixture) advance(t *testing.T, id primitive.ObjectID, statuses ...models.OrderStatus) {
	t.Helper()
	for _, next := range statuses {
		_, err := fx.svc.Process(context.Background(), fx.vendor, id, ProcessInput{Status: next})
		require.NoError(t, err, "to %s", next)
	}
}

func TestCreateRetryFinishesInterruptedCheckout(t *testing.T) {
	for _, step := range []string{"EnsureTransaction", "LinkOrder", "ClearCart", "MarkOrderSettled"} {
		t.Run(step, func(t *testing.T) {
			fx := newFixture(StrictStatus)
			ctx := context.Background()
			fx.store.carts[fx.customer] = []models.CartItem{{Food: primitive.NewObjectID(), Quantity: 2}}
			fx.store.failNext[step] = errors.New("connection reset by peer")
			in := CreateInput{IdempotencyKey: "checkout-7"}

			_, err := fx.svc.Create(ctx, fx.customer, in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
			assert.Empty(t, fx.events.events)

			o, err := fx.svc.Create(ctx, fx.customer, in)
			require.NoError(t, err)

			assert.Len(t, fx.store.orders, 1)
			assert.False(t, o.Pending)
			assert.False(t, fx.store.orders[o.ID].Pending)
			assert.Equal(t, []primitive.ObjectID{o.ID}, fx.store.links[fx.customer])
			assert.Empty(t, fx.store.carts[fx.customer])
			require.Contains(t, fx.store.transactions, o.ID)
			assert.Equal(t, models.TransactionOpen, fx.store.transactions[o.ID].Status)
			assert.Equal(t, "20.00", fx.store.transactions[o.ID].OrderValue.String())
			assert.Equal(t, []string{EventCreated}, fx.events.events)

			list, err := fx.svc.List(ctx, fx.customer)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestCreateInsertFailureKeepsCartForRetry(t *testing.T) {
	fx := newFixture(StrictStatus)
	ctx := context.Background()
	fx.store.carts[fx.customer] = []models.CartItem{{Food: primitive.NewObjectID(), Quantity: 1}}
	fx.store.failNext["InsertOrder"] = errors.New("no reachable servers")
	in := CreateInput{IdempotencyKey: "checkout-8"}

	_, err := fx.svc.Create(ctx, fx.customer, in)
	require.Error(t, err)
	assert.Empty(t, fx.store.orders)
	assert.Len(t, fx.store.carts[fx.customer], 1)

	o, err := fx.svc.Create(ctx, fx.customer, in)
	require.NoError(t, err)
	assert.Len(t, fx.store.orders, 1)
	assert.Equal(t, "10.00", o.TotalAmount.String())
	assert.Empty(t, fx.store.carts[fx.customer])
}

func TestCreateReplayOfSettledOrderLeavesNewCartAlone(t *testing.T) {
	fx := newFixture(StrictStatus)
	ctx := context.Background()
	fx.store.carts[fx.customer] = []models.CartItem{{Food: primitive.NewObjectID(), Quantity: 1}}
	in := CreateInput{IdempotencyKey: "checkout-9"}

	first, err := fx.svc.Create(ctx, fx.customer, in)
	require.NoError(t, err)
	next := []models.CartItem{{Food: primitive.NewObjectID(), Quantity: 4}}
	fx.store.carts[fx.customer] = next

	again, err := fx.svc.Create(ctx, fx.customer, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, next, fx.store.carts[fx.customer])
	assert.Len(t, fx.events.events, 1)
}

func TestProcessRetryAfterFailedWrite(t *testing.T) {
	tests := []struct {
		name   string
		step   string
		before []models.OrderStatus
		status models.OrderStatus
		want   models.TransactionStatus
	}{
		{"progress write on accept", "UpdateOrderProgress", nil, models.StatusAccepted, models.TransactionOpen},
		{"progress write on delivery", "UpdateOrderProgress",
			[]models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReady, models.StatusOutForDelivery},
			models.StatusDelivered, models.TransactionConfirmed},
		{"transaction write on delivery", "SetTransactionStatus",
			[]models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReady, models.StatusOutForDelivery},
			models.StatusDelivered, models.TransactionConfirmed},
		{"transaction write on reject", "SetTransactionStatus", nil, models.StatusRejected, models.TransactionCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(StrictStatus)
			ctx := context.Background()
			o := fx.place(t)
			fx.advance(t, o.ID, tt.before...)
			fx.store.failNext[tt.step] = errors.New("write concern timeout")

			_, err := fx.svc.Process(ctx, fx.vendor, o.ID, ProcessInput{Status: tt.status})
			require.Error(t, err)
			assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
			assert.Equal(t, models.TransactionOpen, fx.store.transactions[o.ID].Status)

			updated, err := fx.svc.Process(ctx, fx.vendor, o.ID, ProcessInput{Status: tt.status})
			require.NoError(t, err)

			assert.Equal(t, tt.status, updated.OrderStatus)
			assert.Equal(t, tt.want, fx.store.transactions[o.ID].Status)
		})
	}
}

func TestProcessRepeatedTerminalStatusIsQuiet(t *testing.T) {
	fx := newFixture(StrictStatus)
	o := fx.place(t)
	fx.advance(t, o.ID, models.StatusRejected)

	updated, err := fx.svc.Process(context.Background(), fx.vendor, o.ID, ProcessInput{Status: models.StatusRejected})
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, updated.OrderStatus)
	assert.Equal(t, models.TransactionCancelled, fx.store.transactions[o.ID].Status)
	assert.Equal(t, []string{EventCreated, EventStatusChanged}, fx.events.events)
}
