package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Food struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Vendor      primitive.ObjectID `json:"vendorId" bson:"vendorId"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	FoodType    string             `json:"foodType" bson:"foodType"`
	ReadyTime   int                `json:"readyTime" bson:"readyTime"`
	Price       float64            `json:"price" bson:"price"`
	Rating      float64            `json:"rating" bson:"rating"`
	Images      []string           `json:"images" bson:"images"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
