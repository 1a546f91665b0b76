package handlers

import (
	"net/http"

	"go_trial/foodapi/customers"
	"go_trial/foodapi/middleware"
	"go_trial/foodapi/session"
)

func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	c, err := a.Customers.Signup(r.Context(), customers.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil && c == nil {
		a.Fail(w, r, err)
		return
	}
	if err != nil {
		// account exists, only the code could not be sent
		a.logger.ErrorContext(r.Context(), "verification code not sent", "customer_id", c.ID.Hex(), "error", err)
		writeJSON(w, http.StatusAccepted, envelope{
			"status":  "success",
			"message": "Account created but the OTP could not be sent. Request a new one.",
			"data":    envelope{"id": c.ID.Hex()},
		})
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"status":  "success",
		"message": "OTP sent to your email. Please verify.",
		"data":    envelope{"id": c.ID.Hex()},
	})
}

func (a *API) ResendVerification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	if err := a.Customers.ResendVerification(r.Context(), id); err != nil {
		a.Fail(w, r, err)
		return
	}
	message(w, "If the account exists and is not verified, a new OTP was sent")
}

func (a *API) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	var req otpRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	c, tok, err := a.Verification.ConfirmVerification(r.Context(), id, req.OTP)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	session.SetCookie(w, tok, a.cfg.CookieSecure)
	success(w, http.StatusOK, envelope{"customer": c})
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	c, tok, err := a.Customers.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	session.SetCookie(w, tok, a.cfg.CookieSecure)
	success(w, http.StatusOK, envelope{"customer": c})
}

// Logout clears the cookie and, when a session is present, revokes it. It
// never fails so that clients can always drop their state.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if p, ok := middleware.PrincipalFrom(r.Context()); ok {
		if err := a.Revoker.Revoke(r.Context(), p.TokenID, p.ExpiresAt); err != nil {
			a.logger.WarnContext(r.Context(), "session not revoked on logout", "id", p.ID.Hex(), "error", err)
		}
	}
	session.ClearCookie(w, a.cfg.CookieSecure)
	message(w, "Logged out")
}

func (a *API) RequestDeletion(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	if err := a.Verification.RequestDeletion(r.Context(), p); err != nil {
		a.Fail(w, r, err)
		return
	}
	message(w, "OTP sent to your email. Please verify")
}

func (a *API) ConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	var req otpRequest
	if err := a.decode(r, &req); err != nil {
		a.Fail(w, r, err)
		return
	}
	if err := a.Verification.ConfirmDeletion(r.Context(), p, req.OTP); err != nil {
		a.Fail(w, r, err)
		return
	}
	session.ClearCookie(w, a.cfg.CookieSecure)
	message(w, "deleted successfully")
}
