package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type foodTable map[primitive.ObjectID]models.Food

func (f foodTable) FindFoodsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Food, error) {
	var out []models.Food
	for _, id := range ids {
		if food, ok := f[id]; ok {
			out = append(out, food)
		}
	}
	return out, nil
}

type offerTable map[primitive.ObjectID]*models.Offer

func (o offerTable) FindOfferByID(_ context.Context, id primitive.ObjectID) (*models.Offer, error) {
	if offer, ok := o[id]; ok {
		return offer, nil
	}
	return nil, apperr.NotFound("There's no offer with this ID")
}

type brokenFoods struct{}

func (brokenFoods) FindFoodsByIDs(context.Context, []primitive.ObjectID) ([]models.Food, error) {
	return nil, errors.New("connection reset")
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var now = time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)

type fixture struct {
	vendor  primitive.ObjectID
	other   primitive.ObjectID
	f1, f2  models.Food
	foreign models.Food
	foods   foodTable
	offers  offerTable
}

func newFixture() *fixture {
	fx := &fixture{vendor: primitive.NewObjectID(), other: primitive.NewObjectID()}
	fx.f1 = models.Food{ID: primitive.NewObjectID(), Vendor: fx.vendor, Name: "Paneer Tikka", Price: 10}
	fx.f2 = models.Food{ID: primitive.NewObjectID(), Vendor: fx.vendor, Name: "Garlic Naan", Price: 2.35}
	fx.foreign = models.Food{ID: primitive.NewObjectID(), Vendor: fx.other, Name: "Pad Thai", Price: 9}
	fx.foods = foodTable{fx.f1.ID: fx.f1, fx.f2.ID: fx.f2, fx.foreign.ID: fx.foreign}
	fx.offers = offerTable{}
	return fx
}

func (fx *fixture) offer(pct float64, active bool, expires time.Time, typ models.OfferType, vendors ...primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	fx.offers[id] = &models.Offer{
		ID: id, OfferType: typ, Vendors: vendors, DiscountPercentage: pct,
		IsActive: active, ExpirationDate: expires,
	}
	return id
}

func (fx *fixture) engine(policy UnresolvedPolicy) *Engine {
	return NewEngine(fx.foods, fx.offers, policy, fixedClock(now))
}

func TestQuoteWithoutOffer(t *testing.T) {
	fx := newFixture()

	q, err := fx.engine(RejectUnresolved).Quote(context.Background(), []Line{
		{FoodID: fx.f1.ID, Quantity: 2},
		{FoodID: fx.f2.ID, Quantity: 3},
	}, nil)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("27.05").Equal(q.Total), q.Total.String())
	assert.True(t, q.Discount.IsZero())
	assert.Equal(t, fx.vendor, q.VendorID)
	assert.Equal(t, []models.OrderItem{{Food: fx.f1.ID, Quantity: 2}, {Food: fx.f2.ID, Quantity: 3}}, q.Items)
	assert.Nil(t, q.Offer)
}

func TestQuoteAppliesActiveOffer(t *testing.T) {
	fx := newFixture()
	offerID := fx.offer(10, true, now.Add(time.Hour), models.OfferVendor, fx.vendor)

	q, err := fx.engine(RejectUnresolved).Quote(context.Background(), []Line{{FoodID: fx.f1.ID, Quantity: 2}}, &offerID)
	require.NoError(t, err)

	assert.Equal(t, "20.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "2.00", q.Discount.StringFixed(2))
	assert.Equal(t, "18.00", q.Total.StringFixed(2))
	assert.Equal(t, offerID, q.Offer.ID)
}

func TestQuoteGenericOfferAppliesToAnyVendor(t *testing.T) {
	fx := newFixture()
	offerID := fx.offer(50, true, now.Add(time.Hour), models.OfferGeneric)

	q, err := fx.engine(RejectUnresolved).Quote(context.Background(), []Line{{FoodID: fx.foreign.ID, Quantity: 1}}, &offerID)
	require.NoError(t, err)
	assert.Equal(t, "4.50", q.Total.StringFixed(2))
}

func TestQuoteRejectsUnusableOffers(t *testing.T) {
	fx := newFixture()
	cases := map[string]primitive.ObjectID{
		"inactive":       fx.offer(10, false, now.Add(time.Hour), models.OfferVendor, fx.vendor),
		"expired":        fx.offer(10, true, now.Add(-time.Second), models.OfferVendor, fx.vendor),
		"expires now":    fx.offer(10, true, now, models.OfferVendor, fx.vendor),
		"other vendor":   fx.offer(10, true, now.Add(time.Hour), models.OfferVendor, fx.other),
		"does not exist": primitive.NewObjectID(),
	}
	for name, id := range cases {
		t.Run(name, func(t *testing.T) {
			offerID := id
			_, err := fx.engine(RejectUnresolved).Quote(context.Background(), []Line{{FoodID: fx.f1.ID, Quantity: 1}}, &offerID)
			assert.ErrorIs(t, err, ErrInvalidOrExpiredOffer)
		})
	}
}

func TestQuoteMergesRepeatedFoods(t *testing.T) {
	fx := newFixture()

	q, err := fx.engine(RejectUnresolved).Quote(context.Background(), []Line{
		{FoodID: fx.f2.ID, Quantity: 1},
		{FoodID: fx.f1.ID, Quantity: 1},
		{FoodID: fx.f2.ID, Quantity: 4},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []models.OrderItem{{Food: fx.f2.ID, Quantity: 5}, {Food: fx.f1.ID, Quantity: 1}}, q.Items)
	assert.Equal(t, "21.75", q.Total.StringFixed(2))
}

func TestQuoteUnresolvedPolicies(t *testing.T) {
	fx := newFixture()
	missing := primitive.NewObjectID()
	lines := []Line{{FoodID: fx.f1.ID, Quantity: 1}, {FoodID: missing, Quantity: 2}}

	_, err := fx.engine(RejectUnresolved).Quote(context.Background(), lines, nil)
	assert.ErrorIs(t, err, ErrUnresolvedItems)

	q, err := fx.engine(DropUnresolved).Quote(context.Background(), lines, nil)
	require.NoError(t, err)
	assert.Len(t, q.Items, 1)
	assert.Equal(t, "10.00", q.Total.StringFixed(2))

	_, err = fx.engine(DropUnresolved).Quote(context.Background(), []Line{{FoodID: missing, Quantity: 1}}, nil)
	assert.ErrorIs(t, err, ErrEmptyOrInvalidCart)
}

func TestQuoteRejectsBadCarts(t *testing.T) {
	fx := newFixture()
	e := fx.engine(RejectUnresolved)

	_, err := e.Quote(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyOrInvalidCart)

	_, err = e.Quote(context.Background(), []Line{{FoodID: fx.f1.ID, Quantity: 0}}, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.Quote(context.Background(), []Line{{FoodID: fx.f1.ID, Quantity: -3}}, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.Quote(context.Background(), []Line{{FoodID: fx.f1.ID, Quantity: 1}, {FoodID: fx.foreign.ID, Quantity: 1}}, nil)
	assert.ErrorIs(t, err, ErrMultiVendorCart)
}

func TestQuoteStoreFailureIsInternal(t *testing.T) {
	e := NewEngine(brokenFoods{}, offerTable{}, RejectUnresolved, fixedClock(now))

	_, err := e.Quote(context.Background(), []Line{{FoodID: primitive.NewObjectID(), Quantity: 1}}, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestDiscountRounding(t *testing.T) {
	tests := []struct {
		subtotal string
		pct      float64
		want     string
	}{
		{"20", 10, "2.00"},
		{"9.99", 15, "1.50"},
		{"0.05", 50, "0.03"},
		{"33.33", 0, "0.00"},
		{"12.40", 100, "12.40"},
		{"12.40", 120, "12.40"},
		{"12.40", -5, "0.00"},
	}
	for _, tt := range tests {
		got := Discount(decimal.RequireFromString(tt.subtotal), tt.pct)
		assert.Equal(t, tt.want, got.StringFixed(2), "%s @ %v%%", tt.subtotal, tt.pct)
	}
}
