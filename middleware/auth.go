package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/middleware/logkafka"
	"go_trial/foodapi/session"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotLoggedIn    = apperr.Unauthorized("You are not logged in! Please log in to get access.")
	ErrSessionInvalid = apperr.Unauthorized("Invalid or expired session, please log in again")
	ErrNotVerified    = apperr.Unauthorized("Your account is not verified")
	ErrWrongRole      = apperr.Forbidden("You do not have permission to perform this action")
	ErrAdminKey       = apperr.Forbidden("A valid admin key is required")
)

type TokenParser interface {
	Parse(raw string) (*session.Principal, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Identities confirms that the account behind a token still exists.
type Identities interface {
	CustomerExists(ctx context.Context, id primitive.ObjectID) (bool, error)
	VendorExists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p session.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (session.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(session.Principal)
	return p, ok
}

type Auth struct {
	tokens      TokenParser
	revocations RevocationChecker
	identities  Identities
	onError     ErrorWriter
	logger      *slog.Logger
}

func NewAuth(tokens TokenParser, revocations RevocationChecker, identities Identities, onError ErrorWriter, logger *slog.Logger) *Auth {
	return &Auth{tokens: tokens, revocations: revocations, identities: identities, onError: onError, logger: logger}
}

// Authenticate resolves the session credential into a principal. Revoked
// tokens and tokens whose account was deleted are refused.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := session.FromRequest(r)
		if raw == "" {
			a.onError(w, r, ErrNotLoggedIn)
			return
		}
		p, err := a.tokens.Parse(raw)
		if err != nil {
			a.onError(w, r, ErrSessionInvalid)
			return
		}
		ctx := r.Context()
		revoked, err := a.revocations.IsRevoked(ctx, p.TokenID)
		if err != nil {
			a.onError(w, r, apperr.Internal("middleware.Authenticate", err))
			return
		}
		if revoked {
			a.onError(w, r, ErrSessionInvalid)
			return
		}

		var exists bool
		switch p.Kind {
		case session.KindCustomer:
			exists, err = a.identities.CustomerExists(ctx, p.ID)
		case session.KindVendor:
			exists, err = a.identities.VendorExists(ctx, p.ID)
		}
		if err != nil {
			a.onError(w, r, apperr.Wrap("middleware.Authenticate", err))
			return
		}
		if !exists {
			a.logger.InfoContext(ctx, "session for deleted account", "kind", p.Kind, "id", p.ID.Hex())
			a.onError(w, r, ErrSessionInvalid)
			return
		}
		logkafka.Annotate(ctx, "principal", string(p.Kind)+":"+p.ID.Hex())
		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, *p)))
	})
}

// Optional attaches the principal when a valid session is presented and
// otherwise lets the request through anonymously.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := session.FromRequest(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := a.tokens.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if revoked, err := a.revocations.IsRevoked(r.Context(), p.TokenID); err != nil || revoked {
			next.ServeHTTP(w, r)
			return
		}
		logkafka.Annotate(r.Context(), "principal", string(p.Kind)+":"+p.ID.Hex())
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *p)))
	})
}

func (a *Auth) require(kind session.Kind, verified bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFrom(r.Context())
			if p.Kind != kind {
				a.onError(w, r, ErrWrongRole)
				return
			}
			if verified && !p.Verified {
				a.onError(w, r, ErrNotVerified)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// RequireCustomer admits any logged in customer, verified or not.
func (a *Auth) RequireCustomer(next http.Handler) http.Handler {
	return a.require(session.KindCustomer, false)(next)
}

func (a *Auth) RequireVerifiedCustomer(next http.Handler) http.Handler {
	return a.require(session.KindCustomer, true)(next)
}

func (a *Auth) RequireVendor(next http.Handler) http.Handler {
	return a.require(session.KindVendor, false)(next)
}

// RequireAdminKey checks the X-Admin-Key header. An empty configured key
// disables the admin routes entirely.
func RequireAdminKey(key string, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get("X-Admin-Key")
			if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				onError(w, r, ErrAdminKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
