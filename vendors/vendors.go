// Package vendors covers restaurant accounts: vendor login and self-service,
// menu management and the admin operations that create and remove vendors.
package vendors

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"
	"go_trial/foodapi/session"
	"go_trial/foodapi/telem"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"
)

const PasswordCost = 12

var (
	ErrBadCredentials    = apperr.Validation("Invalid Email or Password")
	ErrInvalidVendorName = apperr.Validation("Vendor name must be between 3 and 25 characters")
	ErrInvalidFoodName   = apperr.Validation("Food name must be between 5 and 50 characters")
	ErrInvalidFoodDesc   = apperr.Validation("Food description must be at least 10 characters")
	ErrInvalidPrice      = apperr.Validation("Food price must be greater than zero")
	ErrInvalidReadyTime  = apperr.Validation("Ready time must not be negative")
)

type Store interface {
	CreateVendor(ctx context.Context, v *models.Vendor) error
	FindVendorByID(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error)
	FindVendorByEmail(ctx context.Context, email string) (*models.Vendor, error)
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	DeleteVendor(ctx context.Context, id primitive.ObjectID) error
	UpdateVendorProfile(ctx context.Context, id primitive.ObjectID, p models.VendorProfile) (*models.Vendor, error)
	ToggleVendorService(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error)

	AddFood(ctx context.Context, f *models.Food) error
	FoodsOfVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Food, error)
}

type TokenIssuer interface {
	IssueVendor(v *models.Vendor) (session.Token, error)
}

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

type Service struct {
	store   Store
	tokens  TokenIssuer
	revoker Revoker
	cost    int
	logger  *slog.Logger
}

func NewService(st Store, tokens TokenIssuer, revoker Revoker, logger *slog.Logger) *Service {
	return &Service{store: st, tokens: tokens, revoker: revoker, cost: PasswordCost, logger: logger}
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.Vendor, session.Token, error) {
	ctx, span := otel.Tracer("foodapi/vendors").Start(ctx, "Login")
	defer span.End()

	v, err := s.store.FindVendorByEmail(ctx, normalizeEmail(email))
	if err != nil {
		telem.LoginRequests.WithLabelValues("vendor", "error").Inc()
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, session.Token{}, ErrBadCredentials
		}
		return nil, session.Token{}, apperr.Wrap("vendors.Login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(v.Password), []byte(password)); err != nil {
		telem.LoginRequests.WithLabelValues("vendor", "error").Inc()
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, session.Token{}, ErrBadCredentials
		}
		return nil, session.Token{}, apperr.Internal("vendors.Login", err)
	}
	tok, err := s.tokens.IssueVendor(v)
	if err != nil {
		telem.LoginRequests.WithLabelValues("vendor", "error").Inc()
		return nil, session.Token{}, apperr.Internal("vendors.Login", err)
	}
	telem.LoginRequests.WithLabelValues("vendor", "success").Inc()
	return v, tok, nil
}

func (s *Service) Profile(ctx context.Context, p session.Principal) (*models.Vendor, error) {
	v, err := s.store.FindVendorByID(ctx, p.ID)
	if err != nil {
		return nil, apperr.Wrap("vendors.Profile", err)
	}
	return v, nil
}

func (s *Service) UpdateProfile(ctx context.Context, p session.Principal, in models.VendorProfile) (*models.Vendor, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := checkVendorName(name); err != nil {
			return nil, err
		}
		in.Name = &name
	}
	v, err := s.store.UpdateVendorProfile(ctx, p.ID, in)
	if err != nil {
		return nil, apperr.Wrap("vendors.UpdateProfile", err)
	}
	return v, nil
}

// DeleteProfile removes the calling vendor and its menu, then revokes the
// session that made the request.
func (s *Service) DeleteProfile(ctx context.Context, p session.Principal) error {
	if err := s.store.DeleteVendor(ctx, p.ID); err != nil {
		return apperr.Wrap("vendors.DeleteProfile", err)
	}
	s.logger.InfoContext(ctx, "vendor deleted own profile", "vendor_id", p.ID.Hex())
	if p.TokenID != "" {
		if err := s.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
			s.logger.WarnContext(ctx, "session not revoked", "vendor_id", p.ID.Hex(), "error", err)
		}
	}
	return nil
}

func (s *Service) ToggleService(ctx context.Context, p session.Principal) (*models.Vendor, error) {
	v, err := s.store.ToggleVendorService(ctx, p.ID)
	if err != nil {
		return nil, apperr.Wrap("vendors.ToggleService", err)
	}
	s.logger.InfoContext(ctx, "vendor service toggled", "vendor_id", v.ID.Hex(), "available", v.ServiceAvailable)
	return v, nil
}

type FoodInput struct {
	Name        string
	Description string
	Category    string
	FoodType    string
	ReadyTime   int
	Price       float64
}

func (in FoodInput) validate() error {
	if n := utf8.RuneCountInString(strings.TrimSpace(in.Name)); n < 5 || n > 50 {
		return ErrInvalidFoodName
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < 10 {
		return ErrInvalidFoodDesc
	}
	if in.Price <= 0 {
		return ErrInvalidPrice
	}
	if in.ReadyTime < 0 {
		return ErrInvalidReadyTime
	}
	return nil
}

// AddFood puts a new food on the calling vendor's menu.
func (s *Service) AddFood(ctx context.Context, p session.Principal, in FoodInput) (*models.Food, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	f := &models.Food{
		Vendor:      p.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		FoodType:    in.FoodType,
		ReadyTime:   in.ReadyTime,
		Price:       in.Price,
		Images:      []string{},
	}
	if err := s.store.AddFood(ctx, f); err != nil {
		return nil, apperr.Wrap("vendors.AddFood", err)
	}
	return f, nil
}

func (s *Service) Foods(ctx context.Context, p session.Principal) ([]models.Food, error) {
	foods, err := s.store.FoodsOfVendor(ctx, p.ID)
	if err != nil {
		return nil, apperr.Wrap("vendors.Foods", err)
	}
	return foods, nil
}

type CreateInput struct {
	Name      string
	OwnerName string
	FoodType  []string
	Pincode   string
	Address   string
	Phone     string
	Email     string
	Password  string
}

// Create registers a vendor on behalf of the admin.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Vendor, error) {
	name := strings.TrimSpace(in.Name)
	if err := checkVendorName(name); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperr.Internal("vendors.Create", err)
	}
	v := &models.Vendor{
		Name:      name,
		OwnerName: strings.TrimSpace(in.OwnerName),
		FoodType:  in.FoodType,
		Pincode:   in.Pincode,
		Address:   in.Address,
		Phone:     in.Phone,
		Email:     normalizeEmail(in.Email),
		Password:  string(hash),
	}
	if err := s.store.CreateVendor(ctx, v); err != nil {
		return nil, apperr.Wrap("vendors.Create", err)
	}
	s.logger.InfoContext(ctx, "vendor created", "vendor_id", v.ID.Hex())
	return v, nil
}

func (s *Service) List(ctx context.Context) ([]models.Vendor, error) {
	vs, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, apperr.Wrap("vendors.List", err)
	}
	return vs, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error) {
	v, err := s.store.FindVendorByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap("vendors.Get", err)
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeleteVendor(ctx, id); err != nil {
		return apperr.Wrap("vendors.Delete", err)
	}
	s.logger.InfoContext(ctx, "vendor deleted", "vendor_id", id.Hex())
	return nil
}

func checkVendorName(name string) error {
	if n := utf8.RuneCountInString(name); n < 3 || n > 25 {
		return ErrInvalidVendorName
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
