package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Vendor struct {
	ID               primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name             string               `json:"name" bson:"name"`
	OwnerName        string               `json:"ownerName" bson:"ownerName"`
	FoodType         []string             `json:"foodType" bson:"foodType"`
	Pincode          string               `json:"pincode" bson:"pincode"`
	Address          string               `json:"address" bson:"address"`
	Phone            string               `json:"phone" bson:"phone"`
	Email            string               `json:"email" bson:"email"`
	Password         string               `json:"-" bson:"password"`
	ServiceAvailable bool                 `json:"serviceAvailable" bson:"serviceAvailable"`
	CoverImages      []string             `json:"coverImages" bson:"coverImages"`
	Rating           float64              `json:"rating" bson:"rating"`
	Foods            []primitive.ObjectID `json:"-" bson:"foods"`
	CreatedAt        time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// VendorWithFoods is the result of joining a vendor with its menu.
type VendorWithFoods struct {
	Vendor `bson:",inline"`
	Menu   []Food `json:"foods" bson:"menu"`
}

type VendorProfile struct {
	Name     *string
	Address  *string
	Phone    *string
	FoodType []string
}
