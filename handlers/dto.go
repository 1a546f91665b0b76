package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"go_trial/foodapi/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errInvalidID = apperr.Validation("Invalid ID")

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. An empty body decodes
// to the zero value and is then validated as such.
func (a *API) decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("Error in user input: " + err.Error())
	}
	if err := a.validate.Struct(dst); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return apperr.Validation("Error in user input: " + ves[0].Field() + " " + ves[0].Tag())
		}
		return apperr.Validation("Error in user input")
	}
	return nil
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	return objectID(mux.Vars(r)[name])
}

func objectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errInvalidID
	}
	return id, nil
}

type signupRequest struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=20"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=20"`
}

type otpRequest struct {
	OTP string `json:"otp" validate:"required,numeric,len=6"`
}

type customerProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=50"`
	Address   *string `json:"address" validate:"omitempty,min=1"`
	Phone     *string `json:"phone" validate:"omitempty,min=1"`
}

type cartItemRequest struct {
	ID       string `json:"id" validate:"required,mongodb"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Cart        []cartItemRequest `json:"cart" validate:"omitempty,dive"`
	OfferID     string            `json:"offerId" validate:"omitempty,mongodb"`
	PaymentMode string            `json:"paymentMode" validate:"omitempty,max=20"`
}

type processOrderRequest struct {
	Status  string  `json:"status" validate:"omitempty,max=30"`
	Remarks *string `json:"remarks" validate:"omitempty,max=500"`
	Time    *int    `json:"time" validate:"omitempty,gte=0"`
}

type offerRequest struct {
	Title              string  `json:"title" validate:"required,max=100"`
	Description        string  `json:"description" validate:"max=500"`
	DiscountPercentage float64 `json:"discountPercentage" validate:"gte=0,lte=100"`
	OfferType          string  `json:"offerType" validate:"omitempty,oneof=GENERIC VENDOR"`
	Pincode            string  `json:"pincode" validate:"required"`
	IsActive           bool    `json:"isActive"`
}

type offerPatchRequest struct {
	Title              *string  `json:"title" validate:"omitempty,min=1,max=100"`
	Description        *string  `json:"description" validate:"omitempty,max=500"`
	DiscountPercentage *float64 `json:"discountPercentage" validate:"omitempty,gte=0,lte=100"`
	Pincode            *string  `json:"pincode" validate:"omitempty,min=1"`
	IsActive           *bool    `json:"isActive"`
}

type vendorProfileRequest struct {
	Name     *string  `json:"name" validate:"omitempty,min=3,max=25"`
	Address  *string  `json:"address" validate:"omitempty,min=1"`
	Phone    *string  `json:"phone" validate:"omitempty,min=1"`
	FoodType []string `json:"foodType" validate:"omitempty,dive,required"`
}

type foodRequest struct {
	Name        string  `json:"name" validate:"required,min=5,max=50"`
	Description string  `json:"description" validate:"required,min=10"`
	Category    string  `json:"category" validate:"required"`
	FoodType    string  `json:"foodType" validate:"required"`
	ReadyTime   int     `json:"readyTime" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gt=0"`
}

type createVendorRequest struct {
	Name      string   `json:"name" validate:"required,min=3,max=25"`
	OwnerName string   `json:"ownerName" validate:"required"`
	FoodType  []string `json:"foodType" validate:"required,min=1,dive,required"`
	Pincode   string   `json:"pincode" validate:"required"`
	Address   string   `json:"address" validate:"required"`
	Phone     string   `json:"phone" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6,max=20"`
}
