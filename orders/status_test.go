package orders

import (
	"testing"

	"go_trial/foodapi/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.StatusWaiting, models.StatusAccepted, true},
		{models.StatusWaiting, models.StatusRejected, true},
		{models.StatusWaiting, models.StatusPreparing, false},
		{models.StatusAccepted, models.StatusPreparing, true},
		{models.StatusAccepted, models.StatusRejected, false},
		{models.StatusOutForDelivery, models.StatusDelivered, true},
		{models.StatusDelivered, models.StatusWaiting, false},
		{models.StatusRejected, models.StatusAccepted, false},
		{models.StatusReady, models.StatusReady, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestPolicyCheckStatusNames(t *testing.T) {
	assert.ErrorIs(t, StrictStatus.check(models.StatusWaiting, "COOKING"), ErrUnknownStatus)
	assert.NoError(t, OpenStatus.check(models.StatusWaiting, "COOKING"))
	assert.ErrorIs(t, OpenStatus.check(models.StatusWaiting, ""), ErrUnknownStatus)
	assert.ErrorIs(t, StrictStatus.check(models.StatusWaiting, ""), ErrUnknownStatus)
}

func TestRandomCodesRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := RandomCodes{}.Next()
		assert.NoError(t, err)
		assert.Len(t, code, 4)
		assert.GreaterOrEqual(t, code, "1000")
		assert.LessOrEqual(t, code, "9999")
	}
}
