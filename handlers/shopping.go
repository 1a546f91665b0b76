package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (a *API) FoodAvailability(w http.ResponseWriter, r *http.Request) {
	vs, err := a.Shopping.Availability(r.Context(), mux.Vars(r)["pincode"])
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(vs), "restaurants": vs})
}

func (a *API) TopRestaurants(w http.ResponseWriter, r *http.Request) {
	vs, err := a.Shopping.TopRestaurants(r.Context(), mux.Vars(r)["pincode"])
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(vs), "restaurants": vs})
}

func (a *API) FoodsIn30Min(w http.ResponseWriter, r *http.Request) {
	foods, err := a.Shopping.QuickFoods(r.Context(), mux.Vars(r)["pincode"])
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(foods), "foods": foods})
}

func (a *API) SearchFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := a.Shopping.Search(r.Context(), mux.Vars(r)["pincode"])
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(foods), "foods": foods})
}

func (a *API) Restaurant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	v, err := a.Shopping.Restaurant(r.Context(), id)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"restaurant": v})
}

func (a *API) AvailableOffers(w http.ResponseWriter, r *http.Request) {
	list, err := a.Shopping.Offers(r.Context(), mux.Vars(r)["pincode"])
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	success(w, http.StatusOK, envelope{"length": len(list), "offers": list})
}
