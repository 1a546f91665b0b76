// Package shopping serves the public, pincode scoped browsing pages.
package shopping

import (
	"context"
	"strings"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"
	"go_trial/foodapi/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TopRestaurantLimit = 5
	QuickReadyTime     = 30
)

var (
	ErrMissingPincode = apperr.Validation("There's no pincode provided")
	ErrNoRestaurants  = apperr.NotFound("There's no restaurants with this pincode")
	ErrNoOffers       = apperr.NotFound("There's no offers within this pincode")
)

type Store interface {
	VendorsWithFoods(ctx context.Context, q store.VendorQuery) ([]models.VendorWithFoods, error)
	FindVendorWithFoods(ctx context.Context, id primitive.ObjectID) (*models.VendorWithFoods, error)
}

type OfferLister interface {
	AvailableAt(ctx context.Context, pincode string) ([]models.Offer, error)
}

type Service struct {
	store  Store
	offers OfferLister
}

func NewService(st Store, offers OfferLister) *Service {
	return &Service{store: st, offers: offers}
}

// Availability lists serviceable restaurants at the pincode with their menus.
func (s *Service) Availability(ctx context.Context, pincode string) ([]models.VendorWithFoods, error) {
	available := true
	return s.vendors(ctx, "shopping.Availability", store.VendorQuery{Pincode: pincode, ServiceAvailable: &available})
}

// TopRestaurants returns the best rated serviceable restaurants at the pincode.
func (s *Service) TopRestaurants(ctx context.Context, pincode string) ([]models.Vendor, error) {
	available := true
	vs, err := s.vendors(ctx, "shopping.TopRestaurants", store.VendorQuery{
		Pincode:          pincode,
		ServiceAvailable: &available,
		Limit:            TopRestaurantLimit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Vendor, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Vendor)
	}
	return out, nil
}

// QuickFoods lists foods at the pincode that are ready within 30 minutes.
func (s *Service) QuickFoods(ctx context.Context, pincode string) ([]models.Food, error) {
	vs, err := s.vendors(ctx, "shopping.QuickFoods", store.VendorQuery{Pincode: pincode})
	if err != nil {
		return nil, err
	}
	return foodsOf(vs, QuickReadyTime), nil
}

// Search lists every food on the menus of restaurants at the pincode.
func (s *Service) Search(ctx context.Context, pincode string) ([]models.Food, error) {
	vs, err := s.vendors(ctx, "shopping.Search", store.VendorQuery{Pincode: pincode})
	if err != nil {
		return nil, err
	}
	return foodsOf(vs, 0), nil
}

func (s *Service) Restaurant(ctx context.Context, id primitive.ObjectID) (*models.VendorWithFoods, error) {
	v, err := s.store.FindVendorWithFoods(ctx, id)
	if err != nil {
		return nil, apperr.Wrap("shopping.Restaurant", err)
	}
	return v, nil
}

func (s *Service) Offers(ctx context.Context, pincode string) ([]models.Offer, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return nil, ErrMissingPincode
	}
	offers, err := s.offers.AvailableAt(ctx, pincode)
	if err != nil {
		return nil, apperr.Wrap("shopping.Offers", err)
	}
	if len(offers) == 0 {
		return nil, ErrNoOffers
	}
	return offers, nil
}

func (s *Service) vendors(ctx context.Context, op string, q store.VendorQuery) ([]models.VendorWithFoods, error) {
	q.Pincode = strings.TrimSpace(q.Pincode)
	if q.Pincode == "" {
		return nil, ErrMissingPincode
	}
	vs, err := s.store.VendorsWithFoods(ctx, q)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if len(vs) == 0 {
		return nil, ErrNoRestaurants
	}
	return vs, nil
}

// foodsOf flattens menus in vendor order. maxReadyTime of zero keeps everything.
func foodsOf(vs []models.VendorWithFoods, maxReadyTime int) []models.Food {
	out := []models.Food{}
	for _, v := range vs {
		for _, f := range v.Menu {
			if maxReadyTime > 0 && f.ReadyTime > maxReadyTime {
				continue
			}
			out = append(out, f)
		}
	}
	return out
}
