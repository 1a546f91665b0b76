package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionStatus string

const (
	TransactionOpen      TransactionStatus = "OPEN"
	TransactionConfirmed TransactionStatus = "CONFIRMED"
	TransactionCancelled TransactionStatus = "CANCELLED"
)

// Transaction records how an order is meant to be paid. No payment gateway is
// involved; paymentMode is stored as given (COD by default).
type Transaction struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	CustomerID      primitive.ObjectID  `json:"customerId" bson:"customerId"`
	VendorID        primitive.ObjectID  `json:"vendorId" bson:"vendorId"`
	OrderID         primitive.ObjectID  `json:"orderId" bson:"orderId"`
	OrderValue      Amount              `json:"orderValue" bson:"orderValue"`
	OfferUsed       *primitive.ObjectID `json:"offerUsed,omitempty" bson:"offerUsed,omitempty"`
	Status          TransactionStatus   `json:"status" bson:"status"`
	PaymentMode     string              `json:"paymentMode" bson:"paymentMode"`
	PaymentResponse string              `json:"paymentResponse" bson:"paymentResponse"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}
