package handlers

import (
	"net/http"

	"go_trial/foodapi/middleware"
	"go_trial/foodapi/models"
	"go_trial/foodapi/offers"
	"go_trial/foodapi/orders"
	"go_trial/foodapi/session"
	"go_trial/foodapi/vendors"
)

func (a *API) VendorLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	v, tok, err := a.Vendors.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	session.SetCookie(w, tok, a.cfg.CookieSecure)
	success(w, http.StatusOK, envelope{"vendor": v})
}

func (a *API) VendorProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	v, err := a.Vendors.Profile(r.Context(), p)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"vendor": v})
}

func (a *API) UpdateVendorProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	var req vendorProfileRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	v, err := a.Vendors.UpdateProfile(r.Context(), p, models.VendorProfile{
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		FoodType: req.FoodType,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"vendor": v})
}

func (a *API) DeleteVendorProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	if err := a.Vendors.DeleteProfile(r.Context(), p); err != nil {
		a.Fail(w, r, err)
		return
	}
	session.ClearCookie(w, a.cfg.CookieSecure)
	message(w, "deleted successfully")
}

func (a *API) ToggleVendorService(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	v, err := a.Vendors.ToggleService(r.Context(), p)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"vendor": v})
}

func (a *API) AddFood(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	var req foodRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	f, err := a.Vendors.AddFood(r.Context(), p, vendors.FoodInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		FoodType:    req.FoodType,
		ReadyTime:   req.ReadyTime,
		Price:       req.Price,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusCreated, envelope{"food": f})
}

func (a *API) VendorFoods(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	foods, err := a.Vendors.Foods(r.Context(), p)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(foods), "foods": foods})
}

func (a *API) VendorOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	list, err := a.Orders.VendorOrders(r.Context(), p.ID)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(list), "orders": list})
}

func (a *API) VendorOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	o, err := a.Orders.VendorOrder(r.Context(), p.ID, id)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"order": o})
}

func (a *API) ProcessOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	var req processOrderRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	o, err := a.Orders.Process(r.Context(), p.ID, id, orders.ProcessInput{
		Status:    models.OrderStatus(req.Status),
		Remarks:   req.Remarks,
		ReadyTime: req.Time,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"order": o})
}

func (a *API) CreateOffer(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	var req offerRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	o, err := a.Offers.Create(r.Context(), p.ID, offers.Input{
		Title:              req.Title,
		Description:        req.Description,
		DiscountPercentage: req.DiscountPercentage,
		OfferType:          models.OfferType(req.OfferType),
		Pincode:            req.Pincode,
		IsActive:           req.IsActive,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"offer": o})
}

func (a *API) VendorOffers(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	list, err := a.Offers.ListForVendor(r.Context(), p.ID)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(list), "offers": list})
}

func (a *API) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	var req offerPatchRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	o, err := a.Offers.Update(r.Context(), p.ID, id, offers.Patch{
		Title:              req.Title,
		Description:        req.Description,
		DiscountPercentage: req.DiscountPercentage,
		Pincode:            req.Pincode,
		IsActive:           req.IsActive,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"offer": o})
}
