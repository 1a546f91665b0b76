// Package offers lets vendors author discount offers and lets customers check
// whether an offer can still be used.
package offers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"
	"go_trial/foodapi/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
)

const DefaultValidity = 240 * time.Hour

var (
	ErrInvalidDiscount  = apperr.Validation("Discount percentage must be between 0 and 100")
	ErrInvalidOfferType = apperr.Validation("Offer type must be GENERIC or VENDOR")
	ErrMissingTitle     = apperr.Validation("Offer title is required")
)

type Store interface {
	CreateOffer(ctx context.Context, o *models.Offer) error
	OffersForVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Offer, error)
	UpdateOffer(ctx context.Context, vendorID, offerID primitive.ObjectID, u store.OfferUpdate) (*models.Offer, error)
	ActiveOffersAt(ctx context.Context, pincode string, now time.Time) ([]models.Offer, error)
}

// Checker validates an offer for use at checkout. The pricing engine is one.
type Checker interface {
	CheckOffer(ctx context.Context, offerID primitive.ObjectID, vendorID *primitive.ObjectID) (*models.Offer, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	store    Store
	checker  Checker
	validity time.Duration
	clock    Clock
	logger   *slog.Logger
}

func NewService(st Store, checker Checker, validity time.Duration, clock Clock, logger *slog.Logger) *Service {
	if validity <= 0 {
		validity = DefaultValidity
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{store: st, checker: checker, validity: validity, clock: clock, logger: logger}
}

type Input struct {
	Title              string
	Description        string
	DiscountPercentage float64
	OfferType          models.OfferType
	Pincode            string
	IsActive           bool
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrMissingTitle
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return ErrInvalidDiscount
	}
	switch in.OfferType {
	case "", models.OfferGeneric, models.OfferVendor:
		return nil
	}
	return ErrInvalidOfferType
}

// Create stores an offer owned by vendorID, valid from now for the configured
// validity window.
func (s *Service) Create(ctx context.Context, vendorID primitive.ObjectID, in Input) (*models.Offer, error) {
	ctx, span := otel.Tracer("foodapi/offers").Start(ctx, "Create")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}
	kind := in.OfferType
	if kind == "" {
		kind = models.OfferVendor
	}
	o := &models.Offer{
		OfferType:          kind,
		Vendors:            []primitive.ObjectID{vendorID},
		Title:              strings.TrimSpace(in.Title),
		Description:        in.Description,
		DiscountPercentage: in.DiscountPercentage,
		ExpirationDate:     s.clock.Now().Add(s.validity),
		Pincode:            in.Pincode,
		IsActive:           in.IsActive,
	}
	if err := s.store.CreateOffer(ctx, o); err != nil {
		return nil, apperr.Wrap("offers.Create", err)
	}
	s.logger.InfoContext(ctx, "offer created", "offer_id", o.ID.Hex(), "vendor_id", vendorID.Hex(), "type", o.OfferType)
	return o, nil
}

// ListForVendor returns the vendor's own offers and every generic offer.
func (s *Service) ListForVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Offer, error) {
	offers, err := s.store.OffersForVendor(ctx, vendorID)
	if err != nil {
		return nil, apperr.Wrap("offers.ListForVendor", err)
	}
	return offers, nil
}

type Patch struct {
	Title              *string
	Description        *string
	DiscountPercentage *float64
	Pincode            *string
	IsActive           *bool
}

// Update edits an offer owned by vendorID and restarts its validity window.
// Offers of other vendors are reported as missing.
func (s *Service) Update(ctx context.Context, vendorID, offerID primitive.ObjectID, p Patch) (*models.Offer, error) {
	if p.DiscountPercentage != nil && (*p.DiscountPercentage < 0 || *p.DiscountPercentage > 100) {
		return nil, ErrInvalidDiscount
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, ErrMissingTitle
	}
	o, err := s.store.UpdateOffer(ctx, vendorID, offerID, store.OfferUpdate{
		Title:              p.Title,
		Description:        p.Description,
		DiscountPercentage: p.DiscountPercentage,
		Pincode:            p.Pincode,
		IsActive:           p.IsActive,
		ExpirationDate:     s.clock.Now().Add(s.validity),
	})
	if err != nil {
		return nil, apperr.Wrap("offers.Update", err)
	}
	return o, nil
}

// Verify reports whether a customer may currently use the offer.
func (s *Service) Verify(ctx context.Context, offerID primitive.ObjectID) (*models.Offer, error) {
	return s.checker.CheckOffer(ctx, offerID, nil)
}

// AvailableAt lists active, unexpired offers for a pincode.
func (s *Service) AvailableAt(ctx context.Context, pincode string) ([]models.Offer, error) {
	offers, err := s.store.ActiveOffersAt(ctx, pincode, s.clock.Now())
	if err != nil {
		return nil, apperr.Wrap("offers.AvailableAt", err)
	}
	return offers, nil
}
