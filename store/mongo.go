// Package store is the MongoDB persistence layer. Every call runs under its
// own timeout and maps mongo.ErrNoDocuments to an apperr NotFound.
package store

import (
	"context"
	"errors"
	"time"

	"go_trial/foodapi/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrCustomerNotFound    = apperr.NotFound("There's no customer with this ID")
	ErrVendorNotFound      = apperr.NotFound("There's no vendor with this ID")
	ErrFoodNotFound        = apperr.NotFound("There's no food with this ID")
	ErrOfferNotFound       = apperr.NotFound("There's no offer with this ID")
	ErrOrderNotFound       = apperr.NotFound("There's no order with this ID")
	ErrTransactionNotFound = apperr.NotFound("There's no transaction with this ID")
	ErrEmailTaken          = apperr.Conflict("Email is already registered")
	ErrIdempotencyConflict = apperr.Conflict("An order with this idempotency key already exists")
)

type Mongo struct {
	client       *mongo.Client
	timeout      time.Duration
	transactions bool

	customers    *mongo.Collection
	vendors      *mongo.Collection
	foods        *mongo.Collection
	offers       *mongo.Collection
	orders       *mongo.Collection
	transactionC *mongo.Collection
}

type Option func(*Mongo)

func WithTimeout(d time.Duration) Option {
	return func(m *Mongo) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithTransactions runs multi-document writes inside a session transaction.
// It requires a replica set or sharded cluster.
func WithTransactions(enabled bool) Option {
	return func(m *Mongo) { m.transactions = enabled }
}

func New(client *mongo.Client, database string, opts ...Option) *Mongo {
	db := client.Database(database)
	m := &Mongo{
		client:       client,
		timeout:      5 * time.Second,
		customers:    db.Collection("customers"),
		vendors:      db.Collection("vendors"),
		foods:        db.Collection("foods"),
		offers:       db.Collection("offers"),
		orders:       db.Collection("orders"),
		transactionC: db.Collection("transactions"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mongo) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, m.timeout)
}

// EnsureIndexes creates the indexes the rest of the store relies on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	unique := options.Index().SetUnique(true)
	if _, err := m.customers.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}); err != nil {
		return apperr.Internal("store.EnsureIndexes", err)
	}
	if _, err := m.vendors.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}); err != nil {
		return apperr.Internal("store.EnsureIndexes", err)
	}
	if _, err := m.vendors.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "pincode", Value: 1}, {Key: "rating", Value: -1}}}); err != nil {
		return apperr.Internal("store.EnsureIndexes", err)
	}
	if _, err := m.foods.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "vendorId", Value: 1}}}); err != nil {
		return apperr.Internal("store.EnsureIndexes", err)
	}
	orderIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "vendorId", Value: 1}, {Key: "orderID", Value: 1}, {Key: "orderStatus", Value: 1}}},
		{
			Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$exists": true}}),
		},
	}
	if _, err := m.orders.Indexes().CreateMany(ctx, orderIndexes); err != nil {
		return apperr.Internal("store.EnsureIndexes", err)
	}
	if _, err := m.transactionC.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: unique}); err != nil {
		return apperr.Internal("store.EnsureIndexes", err)
	}
	return nil
}

// WithTransaction runs fn inside a session transaction when enabled, otherwise
// it simply calls fn.
func (m *Mongo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}
	sess, err := m.client.StartSession()
	if err != nil {
		return apperr.Internal("store.WithTransaction", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Ping is used by the health check.
func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func notFoundOr(op string, err error, notFound error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return apperr.Internal(op, err)
}

func findAll[T any](ctx context.Context, op string, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Internal(op, err)
	}
	return out, nil
}
