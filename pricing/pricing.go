// Package pricing turns a cart into a chargeable amount: it resolves live food
// prices, checks and applies an optional offer and works out the owning vendor.
package pricing

import (
	"context"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrEmptyOrInvalidCart    = apperr.Validation("Cart is empty or contains invalid items")
	ErrInvalidQuantity       = apperr.Validation("Quantity must be a positive integer")
	ErrUnresolvedItems       = apperr.Validation("Cart contains foods that are no longer available")
	ErrMultiVendorCart       = apperr.Validation("All items in an order must come from the same vendor")
	ErrInvalidOrExpiredOffer = apperr.New(apperr.KindInvalidSecret, "Offer is not valid or has expired")
)

// UnresolvedPolicy decides what happens to cart lines whose food no longer exists.
type UnresolvedPolicy string

const (
	RejectUnresolved UnresolvedPolicy = "reject"
	DropUnresolved   UnresolvedPolicy = "drop"
)

type FoodFinder interface {
	FindFoodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Food, error)
}

type OfferFinder interface {
	FindOfferByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Line struct {
	FoodID   primitive.ObjectID
	Quantity int
}

type Quote struct {
	Items    []models.OrderItem
	VendorID primitive.ObjectID
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Offer    *models.Offer
}

type Engine struct {
	foods  FoodFinder
	offers OfferFinder
	clock  Clock
	policy UnresolvedPolicy
}

func NewEngine(foods FoodFinder, offers OfferFinder, policy UnresolvedPolicy, clock Clock) *Engine {
	if clock == nil {
		clock = systemClock{}
	}
	if policy != DropUnresolved {
		policy = RejectUnresolved
	}
	return &Engine{foods: foods, offers: offers, clock: clock, policy: policy}
}

// Quote prices lines. Repeated foods are merged in first-seen order.
func (e *Engine) Quote(ctx context.Context, lines []Line, offerID *primitive.ObjectID) (*Quote, error) {
	ctx, span := otel.Tracer("foodapi/pricing").Start(ctx, "Quote")
	defer span.End()

	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(merged))
	for _, l := range merged {
		ids = append(ids, l.FoodID)
	}
	found, err := e.foods.FindFoodsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap("pricing.Quote", err)
	}
	byID := make(map[primitive.ObjectID]models.Food, len(found))
	for _, f := range found {
		byID[f.ID] = f
	}

	q := &Quote{Subtotal: decimal.Zero, Discount: decimal.Zero}
	for _, l := range merged {
		food, ok := byID[l.FoodID]
		if !ok {
			if e.policy == RejectUnresolved {
				return nil, ErrUnresolvedItems
			}
			continue
		}
		if len(q.Items) == 0 {
			q.VendorID = food.Vendor
		} else if food.Vendor != q.VendorID {
			return nil, ErrMultiVendorCart
		}
		q.Items = append(q.Items, models.OrderItem{Food: food.ID, Quantity: l.Quantity})
		q.Subtotal = q.Subtotal.Add(decimal.NewFromFloat(food.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if len(q.Items) == 0 {
		return nil, ErrEmptyOrInvalidCart
	}

	if offerID != nil {
		offer, err := e.CheckOffer(ctx, *offerID, &q.VendorID)
		if err != nil {
			return nil, err
		}
		q.Offer = offer
		q.Discount = Discount(q.Subtotal, offer.DiscountPercentage)
	}
	q.Total = q.Subtotal.Sub(q.Discount)

	span.SetAttributes(
		attribute.Int("cart.lines", len(q.Items)),
		attribute.String("order.total", q.Total.StringFixed(2)),
	)
	return q, nil
}

// CheckOffer loads an offer and confirms it can be applied now. When vendorID
// is given, vendor scoped offers must also name that vendor. A missing offer is
// reported the same way as an expired one.
func (e *Engine) CheckOffer(ctx context.Context, offerID primitive.ObjectID, vendorID *primitive.ObjectID) (*models.Offer, error) {
	offer, err := e.offers.FindOfferByID(ctx, offerID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, ErrInvalidOrExpiredOffer
		}
		return nil, apperr.Wrap("pricing.CheckOffer", err)
	}
	if !offer.ValidAt(e.clock.Now()) {
		return nil, ErrInvalidOrExpiredOffer
	}
	if vendorID != nil && !offer.AppliesTo(*vendorID) {
		return nil, ErrInvalidOrExpiredOffer
	}
	return offer, nil
}

// Discount is subtotal * percentage / 100, rounded half away from zero to cents.
// The percentage is clamped to [0, 100] so the total never goes negative.
func Discount(subtotal decimal.Decimal, percentage float64) decimal.Decimal {
	pct := decimal.NewFromFloat(percentage)
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		pct = decimal.NewFromInt(100)
	}
	return subtotal.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}

func mergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrInvalidCart
	}
	index := make(map[primitive.ObjectID]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.FoodID.IsZero() {
			return nil, ErrEmptyOrInvalidCart
		}
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[l.FoodID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.FoodID] = len(out)
		out = append(out, l)
	}
	return out, nil
}
