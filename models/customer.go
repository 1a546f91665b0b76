package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line of a customer's basket. A food appears at most once.
type CartItem struct {
	Food     primitive.ObjectID `json:"food" bson:"food"`
	Quantity int                `json:"quantity" bson:"quantity"`
}

// CartLine is a cart item with its food resolved.
type CartLine struct {
	Food     Food `json:"food"`
	Quantity int  `json:"quantity"`
}

type OTPPurpose string

const (
	OTPVerify OTPPurpose = "verify"
	OTPDelete OTPPurpose = "delete"
)

// Customer holds at most one one-time secret at a time. OTPAttempts counts
// the codes checked against it.
type Customer struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	FirstName   string               `json:"firstName" bson:"firstName"`
	LastName    string               `json:"lastName" bson:"lastName"`
	Email       string               `json:"email" bson:"email"`
	Password    string               `json:"-" bson:"password"`
	Phone       string               `json:"phone" bson:"phone"`
	Address     string               `json:"address" bson:"address"`
	Verified    bool                 `json:"verified" bson:"verified"`
	OTP         string               `json:"-" bson:"otp,omitempty"`
	OTPExpiry   time.Time            `json:"-" bson:"otpExpiry,omitempty"`
	OTPPurpose  OTPPurpose           `json:"-" bson:"otpPurpose,omitempty"`
	OTPAttempts int                  `json:"-" bson:"otpAttempts,omitempty"`
	Latitude    float64              `json:"lat" bson:"lat"`
	Longitude   float64              `json:"lng" bson:"lng"`
	Cart        []CartItem           `json:"cart" bson:"cart"`
	Orders      []primitive.ObjectID `json:"orders" bson:"orders"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// HasSecret reports whether an OTP for purpose is currently stored.
func (c *Customer) HasSecret(purpose OTPPurpose) bool {
	return c.OTP != "" && !c.OTPExpiry.IsZero() && c.OTPPurpose == purpose
}

// CustomerProfile holds the self-service editable fields. Nil fields are left untouched.
type CustomerProfile struct {
	FirstName *string
	LastName  *string
	Address   *string
	Phone     *string
}
