package handlers

import (
	"net/http"

	"go_trial/foodapi/vendors"
)

func (a *API) AdminCreateVendor(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	v, err := a.Vendors.Create(r.Context(), vendors.CreateInput{
		Name:      req.Name,
		OwnerName: req.OwnerName,
		FoodType:  req.FoodType,
		Pincode:   req.Pincode,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusCreated, envelope{"vendor": v})
}

func (a *API) AdminVendors(w http.ResponseWriter, r *http.Request) {
	list, err := a.Vendors.List(r.Context())
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(list), "vendors": list})
}

func (a *API) AdminVendor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	v, err := a.Vendors.Get(r.Context(), id)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"vendor": v})
}

func (a *API) AdminDeleteVendor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	if err := a.Vendors.Delete(r.Context(), id); err != nil {
		a.Fail(w, r, err)
		return
	}
	message(w, "deleted successfully")
}

func (a *API) AdminTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := a.Transactions.ListTransactions(r.Context())
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(list), "transactions": list})
}

func (a *API) AdminTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	t, err := a.Transactions.FindTransactionByID(r.Context(), id)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"transaction": t})
}
