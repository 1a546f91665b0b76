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

// AddFood inserts the food and records it on its vendor.
func (m *Mongo) AddFood(ctx context.Context, f *models.Food) error {
	return m.WithTransaction(ctx, func(ctx context.Context) error {
		ctx, cancel := m.ctx(ctx)
		defer cancel()

		now := time.Now().UTC()
		f.CreatedAt, f.UpdatedAt = now, now
		if f.Images == nil {
			f.Images = []string{}
		}
		res, err := m.foods.InsertOne(ctx, f)
		if err != nil {
			return apperr.Internal("store.AddFood", err)
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			f.ID = id
		}
		upd, err := m.vendors.UpdateOne(ctx, bson.M{"_id": f.Vendor},
			bson.M{"$push": bson.M{"foods": f.ID}, "$set": bson.M{"updatedAt": now}})
		if err != nil {
			return apperr.Internal("store.AddFood", err)
		}
		if upd.MatchedCount == 0 {
			return ErrVendorNotFound
		}
		return nil
	})
}

func (m *Mongo) FindFoodByID(ctx context.Context, id primitive.ObjectID) (*models.Food, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var f models.Food
	if err := m.foods.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, notFoundOr("store.FindFoodByID", err, ErrFoodNotFound)
	}
	return &f, nil
}

// FindFoodsByIDs resolves ids in one query. Missing ids are simply absent from
// the result.
func (m *Mongo) FindFoodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Food, error) {
	if len(ids) == 0 {
		return []models.Food{}, nil
	}
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	return findAll[models.Food](ctx, "store.FindFoodsByIDs", m.foods, bson.M{"_id": bson.M{"$in": ids}})
}

func (m *Mongo) FoodsOfVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Food, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	return findAll[models.Food](ctx, "store.FoodsOfVendor", m.foods, bson.M{"vendorId": vendorID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}
