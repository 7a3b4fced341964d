package cashier

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

type Handler struct {
	service Service
	current func(r *http.Request) string
}

// NewHandler wires cashier endpoints; current extracts the signed-in username.
func NewHandler(service Service, current func(r *http.Request) string) *Handler {
	return &Handler{service: service, current: current}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/api/v1/cashiers", h.registerCashier)
	router.Get("/api/v1/cashiers/me", h.me)
}

func (h *Handler) registerCashier(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	c, err := h.service.RegisterCashier(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		appErr := apperror.Get(err)
		respond(w, appErr.Code, appErr)
		return
	}

	respond(w, http.StatusCreated, c)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCashier(r.Context(), h.current(r))
	if err != nil {
		appErr := apperror.Get(err)
		respond(w, appErr.Code, appErr)
		return
	}
	respond(w, http.StatusOK, c)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
