package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// QRCode is what the gateway hands back for a payment request.
type QRCode struct {
	Image     string // data URL, ready for an <img> tag
	Reference string // provider id used for status polling
}

// Gateway is the QR payment provider. Implementations must be safe for
// concurrent use.
type Gateway interface {
	// RequestCode asks the provider for a QR code collecting amount.
	RequestCode(ctx context.Context, amount decimal.Decimal) (*QRCode, error)
	// Status returns the provider's raw status string for reference.
	Status(ctx context.Context, reference string) (string, error)
}

// ── HTTP adapter ──────────────────────────────────────────────────────────────
// POST {base}/qr {"amount": n}      -> {"qrBase64"|"qrImage": ..., "qrId": ...}
// GET  {base}/status/{qrId}         -> {"status": ...}

type httpGateway struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPGateway returns a Gateway talking to baseURL. Outbound calls are
// paced to rps requests per second.
func NewHTTPGateway(baseURL string, timeout time.Duration, rps float64) Gateway {
	if rps <= 0 {
		rps = 5
	}
	return &httpGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

func (g *httpGateway) RequestCode(ctx context.Context, amount decimal.Decimal) (*QRCode, error) {
	body, err := json.Marshal(map[string]json.Number{"amount": json.Number(amount.StringFixed(2))})
	if err != nil {
		return nil, err
	}

	var resp struct {
		QRBase64 string `json:"qrBase64"`
		QRImage  string `json:"qrImage"`
		QRID     string `json:"qrId"`
	}
	if err := g.do(ctx, http.MethodPost, g.baseURL+"/qr", body, &resp); err != nil {
		return nil, err
	}

	image := resp.QRImage
	if image == "" {
		image = resp.QRBase64
	}
	if image == "" || resp.QRID == "" {
		return nil, apperror.New(apperror.KindNetwork, "payment gateway returned an incomplete QR response")
	}
	if !strings.HasPrefix(image, "data:") {
		image = "data:image/png;base64," + image
	}
	return &QRCode{Image: image, Reference: resp.QRID}, nil
}

func (g *httpGateway) Status(ctx context.Context, reference string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := g.do(ctx, http.MethodGet, g.baseURL+"/status/"+url.PathEscape(reference), nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (g *httpGateway) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return apperror.Network(err, "payment gateway")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := g.client.Do(req)
	if err != nil {
		return apperror.Network(err, "payment gateway unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return apperror.Network(fmt.Errorf("status %d: %s", res.StatusCode, bytes.TrimSpace(msg)), "payment gateway rejected request")
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperror.Network(err, "payment gateway sent malformed response")
	}
	return nil
}

// ── Status Normaliser ─────────────────────────────────────────────────────────

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomePaid
	OutcomeFailed
)

// NormaliseStatus maps provider status strings onto an outcome. Anything not
// recognised is still pending.
func NormaliseStatus(providerStatus string) Outcome {
	switch strings.ToUpper(strings.TrimSpace(providerStatus)) {
	case "SUCCESS", "PAID", "COMPLETED":
		return OutcomePaid
	case "FAILED", "EXPIRED", "CANCELLED", "CANCELED":
		return OutcomeFailed
	default:
		return OutcomePending
	}
}
