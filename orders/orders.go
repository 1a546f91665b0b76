// Package orders turns carts into orders and moves them through their
// fulfilment states on behalf of vendors.
package orders

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"
	"go_trial/foodapi/pricing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"

	DefaultReadyTime   = 25
	DefaultPaymentMode = "COD"

	maxCodeAttempts = 16
	maxKeyLength    = 255
)

var (
	ErrInvalidIdempotencyKey = apperr.Validation("Idempotency key must be at most 255 characters")
	ErrInvalidReadyTime      = apperr.Validation("Ready time must not be negative")
	ErrNoFreeOrderCode       = apperr.Conflict("Could not allocate an order code, please retry")
)

type Store interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	CartOf(ctx context.Context, customerID primitive.ObjectID) ([]models.CartItem, error)
	ClearCart(ctx context.Context, customerID primitive.ObjectID) error
	LinkOrder(ctx context.Context, customerID, orderID primitive.ObjectID) error

	InsertOrder(ctx context.Context, o *models.Order) error
	MarkOrderSettled(ctx context.Context, orderID primitive.ObjectID) error
	FindOrderByIdempotencyKey(ctx context.Context, customerID primitive.ObjectID, key string) (*models.Order, error)
	OrderCodeInUse(ctx context.Context, vendorID primitive.ObjectID, code string) (bool, error)
	OrdersOfCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Order, error)
	FindOrderForCustomer(ctx context.Context, customerID, orderID primitive.ObjectID) (*models.Order, error)
	OrdersOfVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Order, error)
	FindOrderForVendor(ctx context.Context, vendorID, orderID primitive.ObjectID) (*models.Order, error)
	UpdateOrderProgress(ctx context.Context, vendorID, orderID primitive.ObjectID, from models.OrderStatus, p models.OrderProgress) (*models.Order, error)

	EnsureTransaction(ctx context.Context, t *models.Transaction) error
	SetTransactionStatus(ctx context.Context, orderID primitive.ObjectID, status models.TransactionStatus) error
}

type Pricer interface {
	Quote(ctx context.Context, lines []pricing.Line, offerID *primitive.ObjectID) (*pricing.Quote, error)
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, eventType string, o *models.Order) error
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type Config struct {
	ReadyTime    int
	StatusPolicy StatusPolicy
}

type Service struct {
	store     Store
	pricer    Pricer
	publisher Publisher
	codes     CodeSource
	clock     Clock
	cfg       Config
	logger    *slog.Logger

	created metric.Int64Counter
	amount  metric.Float64Histogram
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithCodes(c CodeSource) Option { return func(s *Service) { s.codes = c } }

func NewService(store Store, pricer Pricer, publisher Publisher, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg.ReadyTime <= 0 {
		cfg.ReadyTime = DefaultReadyTime
	}
	if cfg.StatusPolicy != OpenStatus {
		cfg.StatusPolicy = StrictStatus
	}
	s := &Service{
		store:     store,
		pricer:    pricer,
		publisher: publisher,
		codes:     RandomCodes{},
		clock:     systemClock{},
		cfg:       cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter("foodapi/orders")
	s.created, _ = meter.Int64Counter("orders.created", metric.WithDescription("Orders placed"))
	s.amount, _ = meter.Float64Histogram("orders.amount", metric.WithDescription("Charged order amount"))
	return s
}

type CreateInput struct {
	// Lines is the cart sent with the request; when empty the persisted cart is used.
	Lines          []pricing.Line
	OfferID        *primitive.ObjectID
	PaymentMode    string
	IdempotencyKey string
}

// Create prices the cart, stores the order with its transaction record, links
// it to the customer and empties the cart. A repeated idempotency key returns
// the order created the first time, finishing its checkout if that attempt
// stopped part way.
func (s *Service) Create(ctx context.Context, customerID primitive.ObjectID, in CreateInput) (*models.Order, error) {
	ctx, span := otel.Tracer("foodapi/orders").Start(ctx, "Create")
	defer span.End()

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxKeyLength {
		return nil, ErrInvalidIdempotencyKey
	}
	if key != "" {
		existing, err := s.store.FindOrderByIdempotencyKey(ctx, customerID, key)
		if err == nil {
			return s.resume(ctx, existing)
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Wrap("orders.Create", err)
		}
	}

	lines := in.Lines
	if len(lines) == 0 {
		items, err := s.store.CartOf(ctx, customerID)
		if err != nil {
			return nil, apperr.Wrap("orders.Create", err)
		}
		for _, it := range items {
			lines = append(lines, pricing.Line{FoodID: it.Food, Quantity: it.Quantity})
		}
	}

	quote, err := s.pricer.Quote(ctx, lines, in.OfferID)
	if err != nil {
		return nil, err
	}
	code, err := s.nextCode(ctx, quote.VendorID)
	if err != nil {
		return nil, err
	}

	payment := strings.TrimSpace(in.PaymentMode)
	if payment == "" {
		payment = DefaultPaymentMode
	}
	order := &models.Order{
		OrderID:        code,
		CustomerID:     customerID,
		VendorID:       quote.VendorID,
		Items:          quote.Items,
		TotalAmount:    models.AmountOf(quote.Total),
		OrderDate:      s.clock.Now(),
		OrderStatus:    models.StatusWaiting,
		ReadyTime:      s.cfg.ReadyTime,
		PaidThrough:    payment,
		IdempotencyKey: key,
		Pending:        true,
	}
	if quote.Offer != nil {
		offerID := quote.Offer.ID
		order.OfferID = &offerID
		order.AppliedOffers = true
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.InsertOrder(ctx, order); err != nil {
			return err
		}
		return s.settle(ctx, order)
	})
	if err != nil {
		if key != "" && apperr.Is(err, apperr.KindConflict) {
			// lost the race against a concurrent request carrying the same key
			if existing, ferr := s.store.FindOrderByIdempotencyKey(ctx, customerID, key); ferr == nil {
				return s.resume(ctx, existing)
			}
		}
		return nil, apperr.Wrap("orders.Create", err)
	}

	s.placed(ctx, order)
	return order, nil
}

// settle writes everything that follows the order insert. Each step is
// idempotent, so a checkout interrupted part way can run it again.
func (s *Service) settle(ctx context.Context, order *models.Order) error {
	txn := &models.Transaction{
		CustomerID:  order.CustomerID,
		VendorID:    order.VendorID,
		OrderID:     order.ID,
		OrderValue:  order.TotalAmount,
		OfferUsed:   order.OfferID,
		Status:      models.TransactionOpen,
		PaymentMode: order.PaidThrough,
	}
	if err := s.store.EnsureTransaction(ctx, txn); err != nil {
		return err
	}
	if err := s.store.LinkOrder(ctx, order.CustomerID, order.ID); err != nil {
		return err
	}
	if err := s.store.ClearCart(ctx, order.CustomerID); err != nil {
		return err
	}
	if err := s.store.MarkOrderSettled(ctx, order.ID); err != nil {
		return err
	}
	order.Pending = false
	return nil
}

// resume answers a repeated idempotency key. An order left unsettled by an
// earlier failure is finished first and announced as if it were new.
func (s *Service) resume(ctx context.Context, order *models.Order) (*models.Order, error) {
	if !order.Pending {
		return order, nil
	}
	if err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		return s.settle(ctx, order)
	}); err != nil {
		return nil, apperr.Wrap("orders.Create", err)
	}
	s.logger.InfoContext(ctx, "unsettled order completed on retry", "order_id", order.ID.Hex())
	s.placed(ctx, order)
	return order, nil
}

func (s *Service) placed(ctx context.Context, order *models.Order) {
	attrs := metric.WithAttributes(attribute.String("vendor_id", order.VendorID.Hex()))
	s.created.Add(ctx, 1, attrs)
	s.amount.Record(ctx, order.TotalAmount.Float64(), attrs)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("order.id", order.ID.Hex()), attribute.String("order.code", order.OrderID))

	s.publish(ctx, EventCreated, order)
	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID.Hex(), "code", order.OrderID, "customer_id", order.CustomerID.Hex(),
		"vendor_id", order.VendorID.Hex(), "total", order.TotalAmount.String())
}

// nextCode picks a code not used by any open order of the vendor.
func (s *Service) nextCode(ctx context.Context, vendorID primitive.ObjectID) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.codes.Next()
		if err != nil {
			return "", apperr.Internal("orders.nextCode", err)
		}
		inUse, err := s.store.OrderCodeInUse(ctx, vendorID, code)
		if err != nil {
			return "", apperr.Wrap("orders.nextCode", err)
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrNoFreeOrderCode
}

func (s *Service) List(ctx context.Context, customerID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.store.OrdersOfCustomer(ctx, customerID)
	if err != nil {
		return nil, apperr.Wrap("orders.List", err)
	}
	return orders, nil
}

func (s *Service) Get(ctx context.Context, customerID, orderID primitive.ObjectID) (*models.Order, error) {
	o, err := s.store.FindOrderForCustomer(ctx, customerID, orderID)
	if err != nil {
		return nil, apperr.Wrap("orders.Get", err)
	}
	return o, nil
}

func (s *Service) VendorOrders(ctx context.Context, vendorID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.store.OrdersOfVendor(ctx, vendorID)
	if err != nil {
		return nil, apperr.Wrap("orders.VendorOrders", err)
	}
	return orders, nil
}

func (s *Service) VendorOrder(ctx context.Context, vendorID, orderID primitive.ObjectID) (*models.Order, error) {
	o, err := s.store.FindOrderForVendor(ctx, vendorID, orderID)
	if err != nil {
		return nil, apperr.Wrap("orders.VendorOrder", err)
	}
	return o, nil
}

type ProcessInput struct {
	// Status may be empty to only edit remarks or ready time.
	Status    models.OrderStatus
	Remarks   *string
	ReadyTime *int
}

// Process applies a vendor action to an order the vendor owns. Submitting
// the status an order already has is allowed and re-syncs its transaction.
func (s *Service) Process(ctx context.Context, vendorID, orderID primitive.ObjectID, in ProcessInput) (*models.Order, error) {
	ctx, span := otel.Tracer("foodapi/orders").Start(ctx, "Process")
	defer span.End()

	if in.ReadyTime != nil && *in.ReadyTime < 0 {
		return nil, ErrInvalidReadyTime
	}
	current, err := s.store.FindOrderForVendor(ctx, vendorID, orderID)
	if err != nil {
		return nil, apperr.Wrap("orders.Process", err)
	}
	next := in.Status
	if next == "" {
		next = current.OrderStatus
	}
	if err := s.cfg.StatusPolicy.check(current.OrderStatus, next); err != nil {
		return nil, err
	}

	var updated *models.Order
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.store.UpdateOrderProgress(ctx, vendorID, orderID, current.OrderStatus, models.OrderProgress{
			Status:    next,
			Remarks:   in.Remarks,
			ReadyTime: in.ReadyTime,
		})
		if err != nil {
			return err
		}
		updated = o
		// terminal statuses reach the transaction on every submission, repeats included
		var status models.TransactionStatus
		switch next {
		case models.StatusDelivered:
			status = models.TransactionConfirmed
		case models.StatusRejected:
			status = models.TransactionCancelled
		default:
			return nil
		}
		if err := s.store.SetTransactionStatus(ctx, orderID, status); err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap("orders.Process", err)
	}

	if next != current.OrderStatus {
		span.SetAttributes(attribute.String("order.status", string(next)))
		s.publish(ctx, EventStatusChanged, updated)
		s.logger.InfoContext(ctx, "order status changed",
			"order_id", orderID.Hex(), "from", current.OrderStatus, "to", next, "vendor_id", vendorID.Hex())
	}
	return updated, nil
}

// publish is best effort: the order is already stored when events go out.
func (s *Service) publish(ctx context.Context, eventType string, o *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, eventType, o); err != nil {
		s.logger.ErrorContext(ctx, "order event not published", "event", eventType, "order_id", o.ID.Hex(), "error", err)
	}
}
