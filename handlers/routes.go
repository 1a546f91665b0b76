package handlers

import (
	"net/http"

	"go_trial/foodapi/middleware"

	"github.com/gorilla/mux"
)

// Register mounts every route on r. Subrouters carry the guard shared by
// their routes.
func Register(r *mux.Router, api *API, auth *middleware.Auth) {
	r.NotFoundHandler = http.HandlerFunc(api.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(api.MethodNotAllowed)
	r.Use(middleware.Recover(api.logger, api.Fail), middleware.Metrics, middleware.RequireJSON(api.Fail))

	r.HandleFunc("/healthz", api.Healthz).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/signup", api.Signup).Methods(http.MethodPost)
	authRouter.HandleFunc("/verify/{id}", api.Verify).Methods(http.MethodPatch)
	authRouter.HandleFunc("/verify/{id}", api.ResendVerification).Methods(http.MethodGet)
	authRouter.HandleFunc("/login", api.Login).Methods(http.MethodPost)
	authRouter.Handle("/logout", auth.Optional(http.HandlerFunc(api.Logout))).Methods(http.MethodGet)

	deleteRouter := r.PathPrefix("/auth/delete-me").Subrouter()
	deleteRouter.Use(auth.RequireCustomer)
	deleteRouter.HandleFunc("", api.RequestDeletion).Methods(http.MethodGet)
	deleteRouter.HandleFunc("", api.ConfirmDeletion).Methods(http.MethodDelete)

	profileRouter := r.PathPrefix("/customer/profile").Subrouter()
	profileRouter.Use(auth.RequireCustomer)
	profileRouter.HandleFunc("", api.CustomerProfile).Methods(http.MethodGet)
	profileRouter.HandleFunc("", api.UpdateCustomerProfile).Methods(http.MethodPatch)

	customerRouter := r.PathPrefix("/customer").Subrouter()
	customerRouter.Use(auth.RequireVerifiedCustomer)
	customerRouter.HandleFunc("/cart", api.GetCart).Methods(http.MethodGet)
	customerRouter.HandleFunc("/cart", api.AddToCart).Methods(http.MethodPost)
	customerRouter.HandleFunc("/cart", api.ClearCart).Methods(http.MethodDelete)
	customerRouter.HandleFunc("/create-order", api.CreateOrder).Methods(http.MethodPost)
	customerRouter.HandleFunc("/orders", api.CustomerOrders).Methods(http.MethodGet)
	customerRouter.HandleFunc("/orders/{id}", api.CustomerOrder).Methods(http.MethodGet)
	customerRouter.HandleFunc("/offer/verify/{id}", api.VerifyOffer).Methods(http.MethodGet)

	r.HandleFunc("/vendor/login", api.VendorLogin).Methods(http.MethodPost)
	r.Handle("/vendor/logout", auth.Optional(http.HandlerFunc(api.Logout))).Methods(http.MethodGet)

	vendorRouter := r.PathPrefix("/vendor").Subrouter()
	vendorRouter.Use(auth.RequireVendor)
	vendorRouter.HandleFunc("/profile", api.VendorProfile).Methods(http.MethodGet)
	vendorRouter.HandleFunc("/profile", api.UpdateVendorProfile).Methods(http.MethodPatch)
	vendorRouter.HandleFunc("/profile", api.DeleteVendorProfile).Methods(http.MethodDelete)
	vendorRouter.HandleFunc("/service", api.ToggleVendorService).Methods(http.MethodPatch)
	vendorRouter.HandleFunc("/foods", api.VendorFoods).Methods(http.MethodGet)
	vendorRouter.HandleFunc("/foods", api.AddFood).Methods(http.MethodPost)
	vendorRouter.HandleFunc("/orders", api.VendorOrders).Methods(http.MethodGet)
	vendorRouter.HandleFunc("/order/{id}", api.VendorOrder).Methods(http.MethodGet)
	vendorRouter.HandleFunc("/order/{id}/process", api.ProcessOrder).Methods(http.MethodPatch)
	vendorRouter.HandleFunc("/offers", api.CreateOffer).Methods(http.MethodPost)
	vendorRouter.HandleFunc("/offers", api.VendorOffers).Methods(http.MethodGet)
	vendorRouter.HandleFunc("/offer/{id}", api.UpdateOffer).Methods(http.MethodPut)

	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.RequireAdminKey(api.cfg.AdminKey, api.Fail))
	adminRouter.HandleFunc("/vendor", api.AdminCreateVendor).Methods(http.MethodPost)
	adminRouter.HandleFunc("/vendors", api.AdminVendors).Methods(http.MethodGet)
	adminRouter.HandleFunc("/vendor/{id}", api.AdminVendor).Methods(http.MethodGet)
	adminRouter.HandleFunc("/vendor/{id}", api.AdminDeleteVendor).Methods(http.MethodDelete)
	adminRouter.HandleFunc("/transactions", api.AdminTransactions).Methods(http.MethodGet)
	adminRouter.HandleFunc("/transaction/{id}", api.AdminTransaction).Methods(http.MethodGet)

	shoppingRouter := r.PathPrefix("/shopping").Subrouter()
	shoppingRouter.HandleFunc("/top-restaurant/{pincode}", api.TopRestaurants).Methods(http.MethodGet)
	shoppingRouter.HandleFunc("/foods-in-30-min/{pincode}", api.FoodsIn30Min).Methods(http.MethodGet)
	shoppingRouter.HandleFunc("/search/{pincode}", api.SearchFoods).Methods(http.MethodGet)
	shoppingRouter.HandleFunc("/restaurant/{id}", api.Restaurant).Methods(http.MethodGet)
	shoppingRouter.HandleFunc("/offers/{pincode}", api.AvailableOffers).Methods(http.MethodGet)
	shoppingRouter.HandleFunc("/{pincode}", api.FoodAvailability).Methods(http.MethodGet)
}
