package store

import (
	"context"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureTransaction records t for its order unless one already exists, so a
// retried checkout never writes a second record. t.ID is set either way.
func (m *Mongo) EnsureTransaction(ctx context.Context, t *models.Transaction) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	var stored models.Transaction
	err := m.transactionC.FindOneAndUpdate(ctx, bson.M{"orderId": t.OrderID},
		bson.M{"$setOnInsert": t},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).Decode(&stored)
	if err != nil {
		return apperr.Internal("store.EnsureTransaction", err)
	}
	*t = stored
	return nil
}

func (m *Mongo) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	return findAll[models.Transaction](ctx, "store.ListTransactions", m.transactionC, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (m *Mongo) FindTransactionByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var t models.Transaction
	if err := m.transactionC.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, notFoundOr("store.FindTransactionByID", err, ErrTransactionNotFound)
	}
	return &t, nil
}

// SetTransactionStatus updates the transaction recorded for an order.
func (m *Mongo) SetTransactionStatus(ctx context.Context, orderID primitive.ObjectID, status models.TransactionStatus) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	res, err := m.transactionC.UpdateOne(ctx, bson.M{"orderId": orderID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return apperr.Internal("store.SetTransactionStatus", err)
	}
	if res.MatchedCount == 0 {
		return ErrTransactionNotFound
	}
	return nil
}
