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

// VendorQuery narrows the vendor listings used by the shopping pages.
type VendorQuery struct {
	Pincode          string
	ServiceAvailable *bool
	Limit            int64
}

func (m *Mongo) CreateVendor(ctx context.Context, v *models.Vendor) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	if v.Foods == nil {
		v.Foods = []primitive.ObjectID{}
	}
	if v.CoverImages == nil {
		v.CoverImages = []string{}
	}
	res, err := m.vendors.InsertOne(ctx, v)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return apperr.Internal("store.CreateVendor", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		v.ID = id
	}
	return nil
}

func (m *Mongo) FindVendorByID(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error) {
	return m.findVendor(ctx, "store.FindVendorByID", bson.M{"_id": id})
}

func (m *Mongo) FindVendorByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	return m.findVendor(ctx, "store.FindVendorByEmail", bson.M{"email": email})
}

func (m *Mongo) findVendor(ctx context.Context, op string, filter bson.M) (*models.Vendor, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var v models.Vendor
	if err := m.vendors.FindOne(ctx, filter).Decode(&v); err != nil {
		return nil, notFoundOr(op, err, ErrVendorNotFound)
	}
	return &v, nil
}

func (m *Mongo) VendorExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	n, err := m.vendors.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Internal("store.VendorExists", err)
	}
	return n > 0, nil
}

func (m *Mongo) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()
	return findAll[models.Vendor](ctx, "store.ListVendors", m.vendors, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// DeleteVendor removes the vendor together with its menu.
func (m *Mongo) DeleteVendor(ctx context.Context, id primitive.ObjectID) error {
	return m.WithTransaction(ctx, func(ctx context.Context) error {
		ctx, cancel := m.ctx(ctx)
		defer cancel()

		res, err := m.vendors.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return apperr.Internal("store.DeleteVendor", err)
		}
		if res.DeletedCount == 0 {
			return ErrVendorNotFound
		}
		if _, err := m.foods.DeleteMany(ctx, bson.M{"vendorId": id}); err != nil {
			return apperr.Internal("store.DeleteVendor", err)
		}
		return nil
	})
}

func (m *Mongo) UpdateVendorProfile(ctx context.Context, id primitive.ObjectID, p models.VendorProfile) (*models.Vendor, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.FoodType != nil {
		set["foodType"] = p.FoodType
	}

	var v models.Vendor
	err := m.vendors.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&v)
	if err != nil {
		return nil, notFoundOr("store.UpdateVendorProfile", err, ErrVendorNotFound)
	}
	return &v, nil
}

// ToggleVendorService flips serviceAvailable in a single pipeline update.
func (m *Mongo) ToggleVendorService(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"serviceAvailable": bson.M{"$not": bson.A{"$serviceAvailable"}},
		"updatedAt":        time.Now().UTC(),
	}}}}
	var v models.Vendor
	err := m.vendors.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&v)
	if err != nil {
		return nil, notFoundOr("store.ToggleVendorService", err, ErrVendorNotFound)
	}
	return &v, nil
}

// VendorsWithFoods lists vendors best rated first, each joined with its menu.
func (m *Mongo) VendorsWithFoods(ctx context.Context, q VendorQuery) ([]models.VendorWithFoods, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	match := bson.M{}
	if q.Pincode != "" {
		match["pincode"] = q.Pincode
	}
	if q.ServiceAvailable != nil {
		match["serviceAvailable"] = *q.ServiceAvailable
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         m.foods.Name(),
		"localField":   "_id",
		"foreignField": "vendorId",
		"as":           "menu",
	}}})

	cursor, err := m.vendors.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Internal("store.VendorsWithFoods", err)
	}
	defer cursor.Close(ctx)

	out := []models.VendorWithFoods{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Internal("store.VendorsWithFoods", err)
	}
	return out, nil
}

func (m *Mongo) FindVendorWithFoods(ctx context.Context, id primitive.ObjectID) (*models.VendorWithFoods, error) {
	v, err := m.FindVendorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	foods, err := m.FoodsOfVendor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.VendorWithFoods{Vendor: *v, Menu: foods}, nil
}
