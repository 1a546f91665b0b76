package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"invalid secret", New(KindInvalidSecret, "Invalid or expired OTP"), http.StatusBadRequest},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"unauthorized", Unauthorized("login"), http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"conflict", Conflict("dup"), http.StatusConflict},
		{"too many requests", New(KindTooManyRequests, "slow down"), http.StatusTooManyRequests},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("ctx: %w", NotFound("missing")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	sentinel := NotFound("There's no food with this ID")

	err := Wrap("cart.AddItem", sentinel)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "There's no food with this ID", MessageOf(err))
	assert.Equal(t, "cart.AddItem: There's no food with this ID", err.Error())
}

func TestMessageOfHidesInternalCause(t *testing.T) {
	err := Internal("store.FindOrder", errors.New("connection refused"))

	assert.Equal(t, internalMessage, MessageOf(err))
	assert.Equal(t, internalMessage, MessageOf(errors.New("raw")))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap("op", nil))
}
