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

// OfferUpdate carries the fields a vendor may change. Nil fields are kept.
type OfferUpdate struct {
	Title              *string
	Description        *string
	DiscountPercentage *float64
	Pincode            *string
	IsActive           *bool
	ExpirationDate     time.Time
}

func (m *Mongo) CreateOffer(ctx context.Context, o *models.Offer) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	if o.Vendors == nil {
		o.Vendors = []primitive.ObjectID{}
	}
	res, err := m.offers.InsertOne(ctx, o)
	if err != nil {
		return apperr.Internal("store.CreateOffer", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = id
	}
	return nil
}

func (m *Mongo) FindOfferByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var o models.Offer
	if err := m.offers.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFoundOr("store.FindOfferByID", err, ErrOfferNotFound)
	}
	return &o, nil
}

// OffersForVendor returns the offers naming the vendor plus every generic offer.
func (m *Mongo) OffersForVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Offer, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"vendors": vendorID},
		bson.M{"offerType": models.OfferGeneric},
	}}
	return findAll[models.Offer](ctx, "store.OffersForVendor", m.offers, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// UpdateOffer changes an offer owned by vendorID.
func (m *Mongo) UpdateOffer(ctx context.Context, vendorID, offerID primitive.ObjectID, u OfferUpdate) (*models.Offer, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	set := bson.M{"expirationDate": u.ExpirationDate, "updatedAt": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.DiscountPercentage != nil {
		set["discountPercentage"] = *u.DiscountPercentage
	}
	if u.Pincode != nil {
		set["pincode"] = *u.Pincode
	}
	if u.IsActive != nil {
		set["isActive"] = *u.IsActive
	}

	var o models.Offer
	err := m.offers.FindOneAndUpdate(ctx, bson.M{"_id": offerID, "vendors": vendorID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if err != nil {
		return nil, notFoundOr("store.UpdateOffer", err, ErrOfferNotFound)
	}
	return &o, nil
}

// ActiveOffersAt lists offers for a pincode that are active and unexpired at now.
func (m *Mongo) ActiveOffersAt(ctx context.Context, pincode string, now time.Time) ([]models.Offer, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	filter := bson.M{"pincode": pincode, "isActive": true, "expirationDate": bson.M{"$gt": now}}
	return findAll[models.Offer](ctx, "store.ActiveOffersAt", m.offers, filter,
		options.Find().SetSort(bson.D{{Key: "discountPercentage", Value: -1}}))
}
