package store

import (
	"context"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrOrderChanged = apperr.Conflict("Order was changed by another request, please retry")

var byOrderDate = options.Find().SetSort(bson.D{{Key: "orderDate", Value: 1}, {Key: "_id", Value: 1}})

func (m *Mongo) InsertOrder(ctx context.Context, o *models.Order) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	o.UpdatedAt = time.Now().UTC()
	res, err := m.orders.InsertOne(ctx, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrIdempotencyConflict
		}
		return apperr.Internal("store.InsertOrder", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = id
	}
	return nil
}

// MarkOrderSettled clears the pending flag once every checkout write after
// the order insert has been applied.
func (m *Mongo) MarkOrderSettled(ctx context.Context, orderID primitive.ObjectID) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	res, err := m.orders.UpdateOne(ctx, bson.M{"_id": orderID},
		bson.M{"$unset": bson.M{"pending": ""}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return apperr.Internal("store.MarkOrderSettled", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (m *Mongo) FindOrderByIdempotencyKey(ctx context.Context, customerID primitive.ObjectID, key string) (*models.Order, error) {
	return m.findOrder(ctx, "store.FindOrderByIdempotencyKey", bson.M{"customerId": customerID, "idempotencyKey": key})
}

// OrderCodeInUse reports whether a vendor already has an open order with code.
func (m *Mongo) OrderCodeInUse(ctx context.Context, vendorID primitive.ObjectID, code string) (bool, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	n, err := m.orders.CountDocuments(ctx, bson.M{
		"vendorId":    vendorID,
		"orderID":     code,
		"orderStatus": bson.M{"$nin": bson.A{models.StatusRejected, models.StatusDelivered}},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Internal("store.OrderCodeInUse", err)
	}
	return n > 0, nil
}

// OrdersOfCustomer returns the orders referenced by the customer, oldest first.
func (m *Mongo) OrdersOfCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Order, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var c models.Customer
	err := m.customers.FindOne(ctx, bson.M{"_id": customerID},
		options.FindOne().SetProjection(bson.M{"orders": 1})).Decode(&c)
	if err != nil {
		return nil, notFoundOr("store.OrdersOfCustomer", err, ErrCustomerNotFound)
	}
	if len(c.Orders) == 0 {
		return []models.Order{}, nil
	}
	return findAll[models.Order](ctx, "store.OrdersOfCustomer", m.orders,
		bson.M{"_id": bson.M{"$in": c.Orders}, "customerId": customerID}, byOrderDate)
}

func (m *Mongo) FindOrderForCustomer(ctx context.Context, customerID, orderID primitive.ObjectID) (*models.Order, error) {
	return m.findOrder(ctx, "store.FindOrderForCustomer", bson.M{"_id": orderID, "customerId": customerID})
}

func (m *Mongo) OrdersOfVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Order, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	return findAll[models.Order](ctx, "store.OrdersOfVendor", m.orders, bson.M{"vendorId": vendorID}, byOrderDate)
}

func (m *Mongo) FindOrderForVendor(ctx context.Context, vendorID, orderID primitive.ObjectID) (*models.Order, error) {
	return m.findOrder(ctx, "store.FindOrderForVendor", bson.M{"_id": orderID, "vendorId": vendorID})
}

func (m *Mongo) findOrder(ctx context.Context, op string, filter bson.M) (*models.Order, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var o models.Order
	if err := m.orders.FindOne(ctx, filter).Decode(&o); err != nil {
		return nil, notFoundOr(op, err, ErrOrderNotFound)
	}
	return &o, nil
}

// UpdateOrderProgress applies p only if the order still has status from, so
// two vendor actions can not both move the same order.
func (m *Mongo) UpdateOrderProgress(ctx context.Context, vendorID, orderID primitive.ObjectID, from models.OrderStatus, p models.OrderProgress) (*models.Order, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	set := bson.M{"orderStatus": p.Status, "updatedAt": time.Now().UTC()}
	if p.Remarks != nil {
		set["remarks"] = *p.Remarks
	}
	if p.ReadyTime != nil {
		set["readyTime"] = *p.ReadyTime
	}

	var o models.Order
	err := m.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": orderID, "vendorId": vendorID, "orderStatus": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if err != nil {
		return nil, notFoundOr("store.UpdateOrderProgress", err, ErrOrderChanged)
	}
	return &o, nil
}
