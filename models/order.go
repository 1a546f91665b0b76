package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusWaiting        OrderStatus = "Waiting"
	StatusAccepted       OrderStatus = "Accepted"
	StatusRejected       OrderStatus = "Rejected"
	StatusPreparing      OrderStatus = "Preparing"
	StatusReady          OrderStatus = "Ready"
	StatusOutForDelivery OrderStatus = "OutForDelivery"
	StatusDelivered      OrderStatus = "Delivered"
)

// Terminal reports whether no further transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == StatusRejected || s == StatusDelivered
}

// OrderItem is captured at checkout and never changes afterwards.
type OrderItem struct {
	Food     primitive.ObjectID `json:"food" bson:"food"`
	Quantity int                `json:"quantity" bson:"quantity"`
}

// Order is placed by a customer with one vendor. Pending stays set from the
// insert until every other checkout write has gone through.
type Order struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OrderID         string              `json:"orderID" bson:"orderID"`
	CustomerID      primitive.ObjectID  `json:"customerId" bson:"customerId"`
	VendorID        primitive.ObjectID  `json:"vendorId" bson:"vendorId"`
	Items           []OrderItem         `json:"items" bson:"items"`
	TotalAmount     Amount              `json:"totalAmount" bson:"totalAmount"`
	OrderDate       time.Time           `json:"orderDate" bson:"orderDate"`
	OrderStatus     OrderStatus         `json:"orderStatus" bson:"orderStatus"`
	ReadyTime       int                 `json:"readyTime" bson:"readyTime"`
	Remarks         string              `json:"remarks" bson:"remarks"`
	OfferID         *primitive.ObjectID `json:"offerId,omitempty" bson:"offerId,omitempty"`
	AppliedOffers   bool                `json:"appliedOffers" bson:"appliedOffers"`
	PaidThrough     string              `json:"paidThrough" bson:"paidThrough"`
	PaymentResponse string              `json:"paymentResponse" bson:"paymentResponse"`
	IdempotencyKey  string              `json:"-" bson:"idempotencyKey,omitempty"`
	Pending         bool                `json:"-" bson:"pending,omitempty"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// OrderProgress is a vendor driven change to an order. Nil fields are kept.
type OrderProgress struct {
	Status    OrderStatus
	Remarks   *string
	ReadyTime *int
}
