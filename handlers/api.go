// Package handlers is the HTTP surface of the API: request decoding and
// validation, the response and error envelopes and the route table.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"go_trial/foodapi/customers"
	"go_trial/foodapi/models"
	"go_trial/foodapi/offers"
	"go_trial/foodapi/orders"
	"go_trial/foodapi/session"
	"go_trial/foodapi/vendors"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerService interface {
	Signup(ctx context.Context, in customers.SignupInput) (*models.Customer, error)
	ResendVerification(ctx context.Context, customerID primitive.ObjectID) error
	Login(ctx context.Context, email, password string) (*models.Customer, session.Token, error)
	Profile(ctx context.Context, p session.Principal) (*models.Customer, error)
	UpdateProfile(ctx context.Context, p session.Principal, in models.CustomerProfile) (*models.Customer, error)
}

type VerificationGate interface {
	ConfirmVerification(ctx context.Context, customerID primitive.ObjectID, code string) (*models.Customer, session.Token, error)
	RequestDeletion(ctx context.Context, p session.Principal) error
	ConfirmDeletion(ctx context.Context, p session.Principal, code string) error
}

type CartService interface {
	AddItem(ctx context.Context, customerID, foodID primitive.ObjectID, quantity int) ([]models.CartLine, error)
	GetCart(ctx context.Context, customerID primitive.ObjectID) ([]models.CartLine, error)
	ClearCart(ctx context.Context, customerID primitive.ObjectID) error
}

type OrderService interface {
	Create(ctx context.Context, customerID primitive.ObjectID, in orders.CreateInput) (*models.Order, error)
	List(ctx context.Context, customerID primitive.ObjectID) ([]models.Order, error)
	Get(ctx context.Context, customerID, orderID primitive.ObjectID) (*models.Order, error)
	VendorOrders(ctx context.Context, vendorID primitive.ObjectID) ([]models.Order, error)
	VendorOrder(ctx context.Context, vendorID, orderID primitive.ObjectID) (*models.Order, error)
	Process(ctx context.Context, vendorID, orderID primitive.ObjectID, in orders.ProcessInput) (*models.Order, error)
}

type OfferService interface {
	Create(ctx context.Context, vendorID primitive.ObjectID, in offers.Input) (*models.Offer, error)
	ListForVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Offer, error)
	Update(ctx context.Context, vendorID, offerID primitive.ObjectID, p offers.Patch) (*models.Offer, error)
	Verify(ctx context.Context, offerID primitive.ObjectID) (*models.Offer, error)
}

type VendorService interface {
	Login(ctx context.Context, email, password string) (*models.Vendor, session.Token, error)
	Profile(ctx context.Context, p session.Principal) (*models.Vendor, error)
	UpdateProfile(ctx context.Context, p session.Principal, in models.VendorProfile) (*models.Vendor, error)
	DeleteProfile(ctx context.Context, p session.Principal) error
	ToggleService(ctx context.Context, p session.Principal) (*models.Vendor, error)
	AddFood(ctx context.Context, p session.Principal, in vendors.FoodInput) (*models.Food, error)
	Foods(ctx context.Context, p session.Principal) ([]models.Food, error)

	Create(ctx context.Context, in vendors.CreateInput) (*models.Vendor, error)
	List(ctx context.Context) ([]models.Vendor, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ShoppingService interface {
	Availability(ctx context.Context, pincode string) ([]models.VendorWithFoods, error)
	TopRestaurants(ctx context.Context, pincode string) ([]models.Vendor, error)
	QuickFoods(ctx context.Context, pincode string) ([]models.Food, error)
	Search(ctx context.Context, pincode string) ([]models.Food, error)
	Restaurant(ctx context.Context, id primitive.ObjectID) (*models.VendorWithFoods, error)
	Offers(ctx context.Context, pincode string) ([]models.Offer, error)
}

type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	FindTransactionByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
}

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Production   bool
	CookieSecure bool
	AdminKey     string
}

type Services struct {
	Customers    CustomerService
	Verification VerificationGate
	Cart         CartService
	Orders       OrderService
	Offers       OfferService
	Vendors      VendorService
	Shopping     ShoppingService
	Transactions TransactionStore
	Revoker      Revoker
	Health       map[string]HealthCheck
}

type API struct {
	Services
	cfg      Config
	validate *validator.Validate
	logger   *slog.Logger
}

func New(svc Services, cfg Config, logger *slog.Logger) *API {
	return &API{Services: svc, cfg: cfg, validate: newValidator(), logger: logger}
}
