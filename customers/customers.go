// Package customers handles customer accounts: signup, password login and
// profile maintenance. Verification codes are delegated to the verify gate.
package customers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

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
	ErrBadCredentials = apperr.NotFound("Incorrect email or password")
	ErrNotVerified    = apperr.Unauthorized("Your account is not verified, please request a new code at /auth/verify/{id}")
)

type Store interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	FindCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	UpdateCustomerProfile(ctx context.Context, id primitive.ObjectID, p models.CustomerProfile) (*models.Customer, error)
}

type Verifier interface {
	RequestVerification(ctx context.Context, customerID primitive.ObjectID) error
}

type TokenIssuer interface {
	IssueCustomer(c *models.Customer) (session.Token, error)
}

type Service struct {
	store    Store
	verifier Verifier
	tokens   TokenIssuer
	cost     int
	logger   *slog.Logger
}

func NewService(st Store, verifier Verifier, tokens TokenIssuer, logger *slog.Logger) *Service {
	return &Service{store: st, verifier: verifier, tokens: tokens, cost: PasswordCost, logger: logger}
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Address   string
}

// Signup stores a new unverified customer and emails the first verification
// code. When the email can not be sent the account is kept and the code can
// be requested again.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.Customer, error) {
	ctx, span := otel.Tracer("foodapi/customers").Start(ctx, "Signup")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperr.Internal("customers.Signup", err)
	}
	c := &models.Customer{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     normalizeEmail(in.Email),
		Password:  string(hash),
		Phone:     in.Phone,
		Address:   in.Address,
	}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, apperr.Wrap("customers.Signup", err)
	}
	s.logger.InfoContext(ctx, "customer signed up", "customer_id", c.ID.Hex())

	if err := s.verifier.RequestVerification(ctx, c.ID); err != nil {
		return c, apperr.Wrap("customers.Signup", err)
	}
	return c, nil
}

// ResendVerification emails a fresh code to an unverified customer.
func (s *Service) ResendVerification(ctx context.Context, customerID primitive.ObjectID) error {
	return s.verifier.RequestVerification(ctx, customerID)
}

// Login checks the password and issues a session for a verified customer.
// Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Customer, session.Token, error) {
	ctx, span := otel.Tracer("foodapi/customers").Start(ctx, "Login")
	defer span.End()

	c, err := s.store.FindCustomerByEmail(ctx, normalizeEmail(email))
	if err != nil {
		telem.LoginRequests.WithLabelValues("customer", "error").Inc()
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, session.Token{}, ErrBadCredentials
		}
		return nil, session.Token{}, apperr.Wrap("customers.Login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(password)); err != nil {
		telem.LoginRequests.WithLabelValues("customer", "error").Inc()
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, session.Token{}, ErrBadCredentials
		}
		return nil, session.Token{}, apperr.Internal("customers.Login", err)
	}
	if !c.Verified {
		telem.LoginRequests.WithLabelValues("customer", "unverified").Inc()
		return nil, session.Token{}, &apperr.Error{
			Kind:    apperr.KindUnauthorized,
			Message: "Your account is not verified, please request a new code at /auth/verify/" + c.ID.Hex(),
			Err:     ErrNotVerified,
		}
	}

	tok, err := s.tokens.IssueCustomer(c)
	if err != nil {
		telem.LoginRequests.WithLabelValues("customer", "error").Inc()
		return nil, session.Token{}, apperr.Internal("customers.Login", err)
	}
	telem.LoginRequests.WithLabelValues("customer", "success").Inc()
	return c, tok, nil
}

func (s *Service) Profile(ctx context.Context, p session.Principal) (*models.Customer, error) {
	c, err := s.store.FindCustomerByID(ctx, p.ID)
	if err != nil {
		return nil, apperr.Wrap("customers.Profile", err)
	}
	return c, nil
}

func (s *Service) UpdateProfile(ctx context.Context, p session.Principal, in models.CustomerProfile) (*models.Customer, error) {
	c, err := s.store.UpdateCustomerProfile(ctx, p.ID, in)
	if err != nil {
		return nil, apperr.Wrap("customers.UpdateProfile", err)
	}
	return c, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
