package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/rochak-pos/internal/modules/auth"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Handler exposes invoice HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the cashier-facing invoice routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/bills/{id}/checkout", h.checkout)
	r.Get("/api/v1/invoices/{number}", h.getInvoice)
	r.Get("/api/v1/invoices/{number}/document", h.document)
}

// RegisterPublicRoutes mounts the paths the till UI and reporting tools
// call directly.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/save-invoice", h.saveInvoice)
	r.Get("/today-sales", h.todaySales)
	r.Get("/today-sales/export", h.exportSales)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inv, err := h.service.Checkout(r.Context(), auth.CashierFromRequest(r), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, inv)
}

// maxUploadMemory bounds the multipart form held in memory; the rest spills to disk.
const maxUploadMemory = 10 << 20

func (h *Handler) saveInvoice(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSaveInvoice(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inv, created, err := h.service.SaveInvoice(r.Context(), *req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		respondError(w, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respond(w, status, map[string]interface{}{
		"invoiceNumber": inv.Number,
		"totalAmount":   inv.Total,
	})
}

// decodeSaveInvoice reads a JSON body, or a multipart form whose "invoice"
// field holds the JSON. The till's client-rendered "pdf" part is ignored;
// documents are rendered from the stored invoice.
func decodeSaveInvoice(r *http.Request) (*SaveInvoiceRequest, error) {
	var req SaveInvoiceRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()
	raw := r.FormValue("invoice")
	if raw == "" {
		return nil, errors.New("multipart form is missing the invoice field")
	}
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	pdf, err := h.service.Document(r.Context(), number)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, number))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handler) todaySales(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.DailySales(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, report)
}

func (h *Handler) exportSales(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	xlsx, err := h.service.ExportDailySales(r.Context(), date)
	if err != nil {
		respondError(w, err)
		return
	}
	if date == "" {
		date = "today"
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sales-%s.xlsx"`, date))
	w.WriteHeader(http.StatusOK)
	w.Write(xlsx)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	appErr := apperror.Get(err)
	respond(w, appErr.Code, appErr)
}
