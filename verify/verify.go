// Package verify gates signup verification and self-service account deletion
// behind an emailed one-time code.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"
	"go_trial/foodapi/otp"
	"go_trial/foodapi/session"
	"go_trial/foodapi/telem"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
)

// ErrInvalidOrExpiredCode covers a wrong code, an expired code, a missing
// secret and a missing identity alike.
var ErrInvalidOrExpiredCode = apperr.New(apperr.KindInvalidSecret, "Invalid or expired OTP")

// ErrResendTooSoon is returned when a fresh code is asked for while the last
// one is still new.
var ErrResendTooSoon = apperr.New(apperr.KindTooManyRequests, "An OTP was sent recently, please wait before asking again")

var errSessionGone = apperr.Unauthorized("Your session is no longer valid, please log in again")

const (
	DefaultMaxAttempts    = 5
	DefaultResendCooldown = time.Minute
)

type Store interface {
	FindCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	SetCustomerOTP(ctx context.Context, id primitive.ObjectID, purpose models.OTPPurpose, digest string, expiry time.Time) error
	MarkCustomerVerified(ctx context.Context, id primitive.ObjectID, digest string) (*models.Customer, error)
	DeleteCustomerWithSecret(ctx context.Context, id primitive.ObjectID, digest string) error
	UseOTPAttempt(ctx context.Context, id primitive.ObjectID, digest string, limit int) (bool, error)
}

type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

type TokenIssuer interface {
	IssueCustomer(c *models.Customer) (session.Token, error)
}

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

type Gate struct {
	store   Store
	mail    Mailer
	secrets *otp.Service
	tokens  TokenIssuer
	revoker Revoker
	logger  *slog.Logger

	maxAttempts int
	cooldown    time.Duration
}

type Option func(*Gate)

// WithMaxAttempts sets how many codes may be checked against one secret.
func WithMaxAttempts(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithResendCooldown sets how long a new secret is protected from being
// replaced by another request.
func WithResendCooldown(d time.Duration) Option {
	return func(g *Gate) {
		if d >= 0 {
			g.cooldown = d
		}
	}
}

func NewGate(store Store, mail Mailer, secrets *otp.Service, tokens TokenIssuer, revoker Revoker, logger *slog.Logger, opts ...Option) *Gate {
	g := &Gate{
		store:       store,
		mail:        mail,
		secrets:     secrets,
		tokens:      tokens,
		revoker:     revoker,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		cooldown:    DefaultResendCooldown,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequestVerification emails a fresh verification code to an unverified
// customer. Unknown or already verified customers are silently ignored, and
// so is a request made while the last code is still within its cooldown.
func (g *Gate) RequestVerification(ctx context.Context, customerID primitive.ObjectID) error {
	ctx, span := otel.Tracer("foodapi/verify").Start(ctx, "RequestVerification")
	defer span.End()

	c, err := g.store.FindCustomerByID(ctx, customerID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return apperr.Wrap("verify.RequestVerification", err)
	}
	if c.Verified {
		return nil
	}
	if err := g.issue(ctx, c, models.OTPVerify); err != nil && !errors.Is(err, ErrResendTooSoon) {
		return err
	}
	return nil
}

// ConfirmVerification consumes the code, marks the customer verified and
// issues their first session.
func (g *Gate) ConfirmVerification(ctx context.Context, customerID primitive.ObjectID, code string) (*models.Customer, session.Token, error) {
	ctx, span := otel.Tracer("foodapi/verify").Start(ctx, "ConfirmVerification")
	defer span.End()

	c, err := g.check(ctx, customerID, code, models.OTPVerify)
	if err != nil {
		return nil, session.Token{}, err
	}
	verified, err := g.store.MarkCustomerVerified(ctx, c.ID, c.OTP)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, session.Token{}, ErrInvalidOrExpiredCode
		}
		return nil, session.Token{}, apperr.Wrap("verify.ConfirmVerification", err)
	}
	tok, err := g.tokens.IssueCustomer(verified)
	if err != nil {
		return nil, session.Token{}, apperr.Internal("verify.ConfirmVerification", err)
	}
	g.logger.InfoContext(ctx, "customer verified", "customer_id", verified.ID.Hex())
	return verified, tok, nil
}

// RequestDeletion emails a deletion code to the logged in customer.
func (g *Gate) RequestDeletion(ctx context.Context, p session.Principal) error {
	ctx, span := otel.Tracer("foodapi/verify").Start(ctx, "RequestDeletion")
	defer span.End()

	c, err := g.store.FindCustomerByID(ctx, p.ID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return errSessionGone
		}
		return apperr.Wrap("verify.RequestDeletion", err)
	}
	return g.issue(ctx, c, models.OTPDelete)
}

// ConfirmDeletion deletes the customer and revokes the session that asked for it.
func (g *Gate) ConfirmDeletion(ctx context.Context, p session.Principal, code string) error {
	ctx, span := otel.Tracer("foodapi/verify").Start(ctx, "ConfirmDeletion")
	defer span.End()

	c, err := g.check(ctx, p.ID, code, models.OTPDelete)
	if err != nil {
		return err
	}
	if err := g.store.DeleteCustomerWithSecret(ctx, c.ID, c.OTP); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return apperr.Wrap("verify.ConfirmDeletion", err)
	}
	if err := g.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		// the account is gone, so the token no longer resolves to anyone
		g.logger.WarnContext(ctx, "session revocation failed after deletion", "customer_id", c.ID.Hex(), "error", err)
	}
	g.logger.InfoContext(ctx, "customer deleted", "customer_id", c.ID.Hex())
	return nil
}

func (g *Gate) issue(ctx context.Context, c *models.Customer, purpose models.OTPPurpose) error {
	if c.HasSecret(purpose) && g.secrets.IssuedWithin(c.OTPExpiry, g.cooldown) {
		return ErrResendTooSoon
	}
	code, err := g.secrets.Generate()
	if err != nil {
		return apperr.Internal("verify.issue", err)
	}
	secret := g.secrets.Issue(code)

	if err := g.mail.SendOTP(ctx, c.Email, code); err != nil {
		return apperr.Internal("verify.issue", err)
	}
	if err := g.store.SetCustomerOTP(ctx, c.ID, purpose, secret.Digest, secret.Expiry); err != nil {
		return apperr.Wrap("verify.issue", err)
	}
	telem.OTPIssued.WithLabelValues(string(purpose)).Inc()
	return nil
}

func (g *Gate) check(ctx context.Context, customerID primitive.ObjectID, code string, purpose models.OTPPurpose) (*models.Customer, error) {
	c, err := g.store.FindCustomerByID(ctx, customerID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			telem.OTPChecks.WithLabelValues(string(purpose), "rejected").Inc()
			return nil, ErrInvalidOrExpiredCode
		}
		return nil, apperr.Wrap("verify.check", err)
	}
	if !c.HasSecret(purpose) {
		telem.OTPChecks.WithLabelValues(string(purpose), "rejected").Inc()
		return nil, ErrInvalidOrExpiredCode
	}
	// the attempt is spent before the code is compared, so parallel guesses
	// cannot outrun the limit
	allowed, err := g.store.UseOTPAttempt(ctx, c.ID, c.OTP, g.maxAttempts)
	if err != nil {
		return nil, apperr.Wrap("verify.check", err)
	}
	if !allowed {
		telem.OTPChecks.WithLabelValues(string(purpose), "locked").Inc()
		return nil, ErrInvalidOrExpiredCode
	}
	if !g.secrets.Verify(code, c.OTP, c.OTPExpiry) {
		telem.OTPChecks.WithLabelValues(string(purpose), "rejected").Inc()
		return nil, ErrInvalidOrExpiredCode
	}
	telem.OTPChecks.WithLabelValues(string(purpose), "accepted").Inc()
	return c, nil
}
