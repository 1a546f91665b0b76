package handlers

import (
	"net/http"
	"strings"

	"go_trial/foodapi/middleware"
	"go_trial/foodapi/models"
	"go_trial/foodapi/orders"
	"go_trial/foodapi/pricing"
)

const idempotencyHeader = "Idempotency-Key"

func (a *API) CustomerProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	c, err := a.Customers.Profile(r.Context(), p)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"profile": c})
}

func (a *API) UpdateCustomerProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	var req customerProfileRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	c, err := a.Customers.UpdateProfile(r.Context(), p, models.CustomerProfile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Phone:     req.Phone,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"profile": c})
}

func (a *API) GetCart(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	lines, err := a.Cart.GetCart(r.Context(), p.ID)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"cart": lines})
}

func (a *API) AddToCart(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	var req cartItemRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	foodID, err := objectID(req.ID)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	lines, err := a.Cart.AddItem(r.Context(), p.ID, foodID, req.Quantity)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"cart": lines})
}

func (a *API) ClearCart(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	if err := a.Cart.ClearCart(r.Context(), p.ID); err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"cart": []models.CartLine{}})
}

func (a *API) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	var req createOrderRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	in := orders.CreateInput{
		PaymentMode:    req.PaymentMode,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyHeader)),
	}
	for _, item := range req.Cart {
		id, err := objectID(item.ID)
		if err != nil {
			a.Fail(w, r, err)
			return
		}
		in.Lines = append(in.Lines, pricing.Line{FoodID: id, Quantity: item.Quantity})
	}
	if req.OfferID != "" {
		id, err := objectID(req.OfferID)
		if err != nil {
			a.Fail(w, r, err)
			return
		}
		in.OfferID = &id
	}
	o, err := a.Orders.Create(r.Context(), p.ID, in)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"order": o})
}

func (a *API) CustomerOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	list, err := a.Orders.List(r.Context(), p.ID)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(list), "orders": list})
}

func (a *API) CustomerOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	o, err := a.Orders.Get(r.Context(), p.ID, id)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"order": o})
}

func (a *API) VerifyOffer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	o, err := a.Offers.Verify(r.Context(), id)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"status": "success", "message": "Offer is valid", "data": envelope{"offer": o}})
}
