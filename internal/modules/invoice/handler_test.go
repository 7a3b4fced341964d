package invoice

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/georgemunganga/rochak-pos/internal/modules/auth"
)

func newTestRouter(h *harness) *chi.Mux {
	handler := NewHandler(h.svc)
	r := chi.NewRouter()
	handler.RegisterPublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithCashier(req.Context(), "sonish")))
			})
		})
		handler.RegisterRoutes(r)
	})
	return r
}

func send(h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const saveBody = `{
	"seller": "sonish",
	"date": "2024-03-14T11:00:00+05:45",
	"items": [{"name": "Tea", "price": 20, "quantity": 2, "total": 40}],
	"totalAmount": 40,
	"paymentMethod": "cash",
	"amountGiven": 50,
	"exchange": 10
}`

func TestHandlerSaveInvoice(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(h)

	rec := send(router, http.MethodPost, "/save-invoice", saveBody, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		InvoiceNumber string `json:"invoiceNumber"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "INV-00001", out.InvoiceNumber)

	rec = send(router, http.MethodPost, "/save-invoice", saveBody, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.repo.count())

	rec = send(router, http.MethodPost, "/save-invoice", `{"seller":"sonish","items":[],"paymentMethod":"cash"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"INCOMPLETE_BILL"`)

	rec = send(router, http.MethodPost, "/save-invoice", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSaveInvoiceMultipart(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(h)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("invoice", saveBody))
	part, err := mw.CreateFormFile("pdf", "invoice.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 client copy"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := send(router, http.MethodPost, "/save-invoice", body.String(), "Content-Type", mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"invoiceNumber":"INV-00001"`)
	assert.Equal(t, 1, h.repo.count())

	var missing bytes.Buffer
	mw = multipart.NewWriter(&missing)
	require.NoError(t, mw.WriteField("note", "no invoice here"))
	require.NoError(t, mw.Close())
	rec = send(router, http.MethodPost, "/save-invoice", missing.String(), "Content-Type", mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, h.repo.count())
}

func TestHandlerTodaySales(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(h)
	require.Equal(t, http.StatusCreated, send(router, http.MethodPost, "/save-invoice", saveBody).Code)

	rec := send(router, http.MethodGet, "/today-sales", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		Date            string `json:"date"`
		AggregatedItems []struct {
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
		} `json:"aggregatedItems"`
		Summary struct {
			TotalTransactions int `json:"totalTransactions"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "2024-03-14", report.Date)
	assert.Equal(t, 1, report.Summary.TotalTransactions)
	require.Len(t, report.AggregatedItems, 1)
	assert.Equal(t, 2, report.AggregatedItems[0].Quantity)

	rec = send(router, http.MethodGet, "/today-sales?date=yesterday", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = send(router, http.MethodGet, "/today-sales/export?date=2024-03-14", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales-2024-03-14.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Items", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Tea", v)
}

func TestHandlerCheckoutAndDocument(t *testing.T) {
	h := newHarness(t)
	router := newTestRouter(h)
	id := h.openBill(t, "sonish", teaLine)

	rec := send(router, http.MethodPost, "/api/v1/bills/"+id+"/checkout", `{"paymentMethod":"cash","amountGiven":120}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv struct {
		InvoiceNumber string `json:"invoiceNumber"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))

	rec = send(router, http.MethodGet, "/api/v1/invoices/"+inv.InvoiceNumber, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(router, http.MethodGet, "/api/v1/invoices/"+inv.InvoiceNumber+"/document", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = send(router, http.MethodPost, "/api/v1/bills/"+id+"/checkout", `{"paymentMethod":"cash","amountGiven":120}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "bill is empty after checkout")
}
