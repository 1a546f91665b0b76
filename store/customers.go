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

func (m *Mongo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Cart == nil {
		c.Cart = []models.CartItem{}
	}
	if c.Orders == nil {
		c.Orders = []primitive.ObjectID{}
	}
	res, err := m.customers.InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return apperr.Internal("store.CreateCustomer", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = id
	}
	return nil
}

func (m *Mongo) FindCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	return m.findCustomer(ctx, "store.FindCustomerByID", bson.M{"_id": id})
}

func (m *Mongo) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return m.findCustomer(ctx, "store.FindCustomerByEmail", bson.M{"email": email})
}

func (m *Mongo) findCustomer(ctx context.Context, op string, filter bson.M) (*models.Customer, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var c models.Customer
	if err := m.customers.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, notFoundOr(op, err, ErrCustomerNotFound)
	}
	return &c, nil
}

func (m *Mongo) CustomerExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	n, err := m.customers.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Internal("store.CustomerExists", err)
	}
	return n > 0, nil
}

func (m *Mongo) UpdateCustomerProfile(ctx context.Context, id primitive.ObjectID, p models.CustomerProfile) (*models.Customer, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.FirstName != nil {
		set["firstName"] = *p.FirstName
	}
	if p.LastName != nil {
		set["lastName"] = *p.LastName
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}

	var c models.Customer
	err := m.customers.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		return nil, notFoundOr("store.UpdateCustomerProfile", err, ErrCustomerNotFound)
	}
	return &c, nil
}

// SetCustomerOTP stores a digest, its expiry and what it may be used for, and
// resets the wrong-code counter. These fields are always written together.
func (m *Mongo) SetCustomerOTP(ctx context.Context, id primitive.ObjectID, purpose models.OTPPurpose, digest string, expiry time.Time) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	res, err := m.customers.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"otp":         digest,
		"otpExpiry":   expiry,
		"otpPurpose":  purpose,
		"otpAttempts": 0,
		"updatedAt":   time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Internal("store.SetCustomerOTP", err)
	}
	if res.MatchedCount == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// MarkCustomerVerified flips the verified flag and consumes the secret, but
// only while the stored digest is still the one that was checked.
func (m *Mongo) MarkCustomerVerified(ctx context.Context, id primitive.ObjectID, digest string) (*models.Customer, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	filter := bson.M{"_id": id, "otp": digest, "otpPurpose": models.OTPVerify}
	update := bson.M{
		"$set":   bson.M{"verified": true, "updatedAt": time.Now().UTC()},
		"$unset": clearedSecret,
	}
	var c models.Customer
	err := m.customers.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		return nil, notFoundOr("store.MarkCustomerVerified", err, ErrCustomerNotFound)
	}
	return &c, nil
}

var clearedSecret = bson.M{"otp": "", "otpExpiry": "", "otpPurpose": "", "otpAttempts": ""}

// UseOTPAttempt spends one of the limit checks allowed against the secret
// with digest. It reports false once they are spent or the secret has been
// replaced or consumed. Documents without a counter start at zero.
func (m *Mongo) UseOTPAttempt(ctx context.Context, id primitive.ObjectID, digest string, limit int) (bool, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	filter := bson.M{"_id": id, "otp": digest, "otpAttempts": bson.M{"$not": bson.M{"$gte": limit}}}
	res, err := m.customers.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"otpAttempts": 1}})
	if err != nil {
		return false, apperr.Internal("store.UseOTPAttempt", err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteCustomerWithSecret removes the customer if the deletion digest still matches.
func (m *Mongo) DeleteCustomerWithSecret(ctx context.Context, id primitive.ObjectID, digest string) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	res, err := m.customers.DeleteOne(ctx, bson.M{"_id": id, "otp": digest, "otpPurpose": models.OTPDelete})
	if err != nil {
		return apperr.Internal("store.DeleteCustomerWithSecret", err)
	}
	if res.DeletedCount == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// AddCartItem merges quantity into the cart entry for foodID, or appends a new
// entry. Both paths are single atomic updates so concurrent adds never lose a
// quantity.
func (m *Mongo) AddCartItem(ctx context.Context, customerID, foodID primitive.ObjectID, quantity int) ([]models.CartItem, error) {
	const op = "store.AddCartItem"
	cctx, cancel := m.ctx(ctx)
	defer cancel()

	inc := func() (int64, error) {
		res, err := m.customers.UpdateOne(cctx,
			bson.M{"_id": customerID, "cart.food": foodID},
			bson.M{"$inc": bson.M{"cart.$.quantity": quantity}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
		if err != nil {
			return 0, err
		}
		return res.MatchedCount, nil
	}

	matched, err := inc()
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if matched == 0 {
		res, err := m.customers.UpdateOne(cctx,
			bson.M{"_id": customerID, "cart.food": bson.M{"$ne": foodID}},
			bson.M{
				"$push": bson.M{"cart": models.CartItem{Food: foodID, Quantity: quantity}},
				"$set":  bson.M{"updatedAt": time.Now().UTC()},
			})
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		if res.MatchedCount == 0 {
			// another request pushed the same food in between
			if matched, err = inc(); err != nil {
				return nil, apperr.Internal(op, err)
			}
			if matched == 0 {
				return nil, ErrCustomerNotFound
			}
		}
	}
	return m.CartOf(ctx, customerID)
}

func (m *Mongo) CartOf(ctx context.Context, customerID primitive.ObjectID) ([]models.CartItem, error) {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	var c models.Customer
	err := m.customers.FindOne(ctx, bson.M{"_id": customerID},
		options.FindOne().SetProjection(bson.M{"cart": 1})).Decode(&c)
	if err != nil {
		return nil, notFoundOr("store.CartOf", err, ErrCustomerNotFound)
	}
	if c.Cart == nil {
		return []models.CartItem{}, nil
	}
	return c.Cart, nil
}

func (m *Mongo) ClearCart(ctx context.Context, customerID primitive.ObjectID) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	res, err := m.customers.UpdateOne(ctx, bson.M{"_id": customerID},
		bson.M{"$set": bson.M{"cart": []models.CartItem{}, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return apperr.Internal("store.ClearCart", err)
	}
	if res.MatchedCount == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// LinkOrder appends orderID to the customer's order references.
func (m *Mongo) LinkOrder(ctx context.Context, customerID, orderID primitive.ObjectID) error {
	ctx, cancel := m.ctx(ctx)
	defer cancel()

	res, err := m.customers.UpdateOne(ctx, bson.M{"_id": customerID},
		bson.M{"$addToSet": bson.M{"orders": orderID}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return apperr.Internal("store.LinkOrder", err)
	}
	if res.MatchedCount == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
