// Package session issues and reads the signed credential that identifies a
// logged in customer or vendor.
package session

import (
	"errors"
	"fmt"
	"time"

	"go_trial/foodapi/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind string

const (
	KindCustomer Kind = "customer"
	KindVendor   Kind = "vendor"
)

var ErrInvalidToken = errors.New("session: invalid token")

// Principal is the authenticated caller, passed explicitly into every service call.
type Principal struct {
	ID        primitive.ObjectID
	Kind      Kind
	Email     string
	Name      string
	Verified  bool
	TokenID   string
	ExpiresAt time.Time
}

type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

type Claims struct {
	Kind     Kind   `json:"kind"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Verified *bool  `json:"verified,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

func (t *Tokens) IssueCustomer(c *models.Customer) (Token, error) {
	verified := c.Verified
	return t.issue(Claims{Kind: KindCustomer, Email: c.Email, Verified: &verified}, c.ID)
}

func (t *Tokens) IssueVendor(v *models.Vendor) (Token, error) {
	return t.issue(Claims{Kind: KindVendor, Email: v.Email, Name: v.Name}, v.ID)
}

func (t *Tokens) issue(claims Claims, subject primitive.ObjectID) (Token, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("session: sign: %w", err)
	}
	return Token{Value: signed, ID: claims.ID, ExpiresAt: exp}, nil
}

// Parse validates signature, algorithm and expiry and returns the principal.
func (t *Tokens) Parse(raw string) (*Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	p := &Principal{ID: id, Kind: claims.Kind, Email: claims.Email, Name: claims.Name, TokenID: claims.ID}
	switch claims.Kind {
	case KindCustomer:
		p.Verified = claims.Verified != nil && *claims.Verified
	case KindVendor:
		p.Verified = true
	default:
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}
