// Package cart manages a customer's pre-checkout basket.
package cart

import (
	"context"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
)

var ErrInvalidQuantity = apperr.Validation("Quantity must be a positive integer")

type Store interface {
	FindFoodByID(ctx context.Context, id primitive.ObjectID) (*models.Food, error)
	FindFoodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Food, error)
	AddCartItem(ctx context.Context, customerID, foodID primitive.ObjectID, quantity int) ([]models.CartItem, error)
	CartOf(ctx context.Context, customerID primitive.ObjectID) ([]models.CartItem, error)
	ClearCart(ctx context.Context, customerID primitive.ObjectID) error
}

type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// AddItem merges quantity into the cart entry for foodID, creating it if needed.
func (m *Manager) AddItem(ctx context.Context, customerID, foodID primitive.ObjectID, quantity int) ([]models.CartLine, error) {
	ctx, span := otel.Tracer("foodapi/cart").Start(ctx, "AddItem")
	defer span.End()

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := m.store.FindFoodByID(ctx, foodID); err != nil {
		return nil, apperr.Wrap("cart.AddItem", err)
	}
	items, err := m.store.AddCartItem(ctx, customerID, foodID, quantity)
	if err != nil {
		return nil, apperr.Wrap("cart.AddItem", err)
	}
	return m.resolve(ctx, items)
}

// GetCart returns the cart with foods resolved. Entries whose food has since
// been removed are left out.
func (m *Manager) GetCart(ctx context.Context, customerID primitive.ObjectID) ([]models.CartLine, error) {
	items, err := m.store.CartOf(ctx, customerID)
	if err != nil {
		return nil, apperr.Wrap("cart.GetCart", err)
	}
	return m.resolve(ctx, items)
}

// Items returns the raw cart entries.
func (m *Manager) Items(ctx context.Context, customerID primitive.ObjectID) ([]models.CartItem, error) {
	items, err := m.store.CartOf(ctx, customerID)
	if err != nil {
		return nil, apperr.Wrap("cart.Items", err)
	}
	return items, nil
}

func (m *Manager) ClearCart(ctx context.Context, customerID primitive.ObjectID) error {
	if err := m.store.ClearCart(ctx, customerID); err != nil {
		return apperr.Wrap("cart.ClearCart", err)
	}
	return nil
}

func (m *Manager) resolve(ctx context.Context, items []models.CartItem) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	if len(items) == 0 {
		return lines, nil
	}
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Food)
	}
	foods, err := m.store.FindFoodsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap("cart.resolve", err)
	}
	byID := make(map[primitive.ObjectID]models.Food, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}
	for _, it := range items {
		if f, ok := byID[it.Food]; ok {
			lines = append(lines, models.CartLine{Food: f, Quantity: it.Quantity})
		}
	}
	return lines, nil
}
