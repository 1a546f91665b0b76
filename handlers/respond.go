package handlers

import (
	"encoding/json"
	"net/http"

	"go_trial/foodapi/apperr"
)

type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func success(w http.ResponseWriter, status int, data envelope) {
	writeJSON(w, status, envelope{"status": "success", "data": data})
}

func message(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{"status": "success", "message": msg})
}

// Fail writes the error envelope. 4xx responses are "fail", everything else
// "error". Outside production the full error chain is returned as stack.
func (a *API) Fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	body := envelope{"status": "error", "message": apperr.MessageOf(err)}
	if status >= 400 && status < 500 {
		body["status"] = "fail"
	}
	if status >= 500 {
		a.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if !a.cfg.Production {
		body["stack"] = err.Error()
	}
	writeJSON(w, status, body)
}

func (a *API) NotFound(w http.ResponseWriter, r *http.Request) {
	a.Fail(w, r, apperr.NotFound("Can't find "+r.URL.String()+" on the server!"))
}

func (a *API) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{"status": "fail", "message": "Method not allowed"})
}
