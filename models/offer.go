package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferType string

const (
	OfferGeneric OfferType = "GENERIC"
	OfferVendor  OfferType = "VENDOR"
)

type Offer struct {
	ID                 primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	OfferType          OfferType            `json:"offerType" bson:"offerType"`
	Vendors            []primitive.ObjectID `json:"vendors" bson:"vendors"`
	Title              string               `json:"title" bson:"title"`
	Description        string               `json:"description" bson:"description"`
	DiscountPercentage float64              `json:"discountPercentage" bson:"discountPercentage"`
	ExpirationDate     time.Time            `json:"expirationDate" bson:"expirationDate"`
	Pincode            string               `json:"pincode" bson:"pincode"`
	IsActive           bool                 `json:"isActive" bson:"isActive"`
	CreatedAt          time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// ValidAt reports whether the offer can be applied at now: it must be active
// and not yet expired.
func (o *Offer) ValidAt(now time.Time) bool {
	return o.IsActive && now.Before(o.ExpirationDate)
}

// Names reports whether vendorID is listed on the offer.
func (o *Offer) Names(vendorID primitive.ObjectID) bool {
	for _, v := range o.Vendors {
		if v == vendorID {
			return true
		}
	}
	return false
}

// AppliesTo reports whether an order from vendorID may use the offer.
// Generic offers apply to every vendor.
func (o *Offer) AppliesTo(vendorID primitive.ObjectID) bool {
	return o.OfferType == OfferGeneric || o.Names(vendorID)
}
