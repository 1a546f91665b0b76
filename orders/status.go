package orders

import (
	"fmt"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/models"
)

var (
	ErrInvalidStatusTransition = apperr.Validation("Invalid order status transition")
	ErrUnknownStatus           = apperr.Validation("Unknown order status")
)

// StatusPolicy selects how vendor status updates are checked.
type StatusPolicy string

const (
	// StrictStatus only allows the transitions in the table below.
	StrictStatus StatusPolicy = "strict"
	// OpenStatus accepts any non-empty status string.
	OpenStatus StatusPolicy = "open"
)

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusWaiting:        {models.StatusAccepted, models.StatusRejected},
	models.StatusAccepted:       {models.StatusPreparing},
	models.StatusPreparing:      {models.StatusReady},
	models.StatusReady:          {models.StatusOutForDelivery},
	models.StatusOutForDelivery: {models.StatusDelivered},
}

func known(s models.OrderStatus) bool {
	if _, ok := transitions[s]; ok {
		return true
	}
	return s.Terminal()
}

// CanTransition reports whether an order in from may move to to. Staying in
// the same status is always allowed so remarks and ready time can be edited.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (p StatusPolicy) check(from, to models.OrderStatus) error {
	if to == "" {
		return ErrUnknownStatus
	}
	if p == OpenStatus || from == to {
		return nil
	}
	if !known(to) {
		return &apperr.Error{Kind: apperr.KindValidation, Message: fmt.Sprintf("Unknown order status %q", to), Err: ErrUnknownStatus}
	}
	if !CanTransition(from, to) {
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: fmt.Sprintf("Order can not move from %s to %s", from, to),
			Err:     ErrInvalidStatusTransition,
		}
	}
	return nil
}
