package fonepay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/modules/payment"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

const (
	TypeConfirmed = "fonepay_payment_confirmed"
	TypeAck       = "ack"
	TypeError     = "error"

	maxMessageSize = 4 << 10
	writeWait      = 5 * time.Second
	confirmTimeout = 10 * time.Second
)

// Sink receives confirmed payments. payment.Service satisfies it.
type Sink interface {
	Confirm(ctx context.Context, amount decimal.Decimal, traceID, seller string) (*payment.Attempt, error)
}

// Message is what the bot sends. Either Amount and TraceID are set, or Text
// carries the raw portal banner.
type Message struct {
	Type    string           `json:"type"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	TraceID string           `json:"traceId,omitempty"`
	Text    string           `json:"text,omitempty"`
	Seller  string           `json:"seller,omitempty"`
}

type Reply struct {
	Type    string          `json:"type"`
	TraceID string          `json:"traceId,omitempty"`
	BillID  string          `json:"billId,omitempty"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Kind    apperror.Kind   `json:"kind,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Bridge is the websocket endpoint the portal bot reports to.
type Bridge struct {
	sink     Sink
	token    string
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewBridge accepts bots presenting token. An empty token accepts none.
func NewBridge(sink Sink, token string, logger *slog.Logger) *Bridge {
	return &Bridge{
		sink:   sink,
		token:  token,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (b *Bridge) RegisterRoutes(r chi.Router) {
	r.Get("/fonepay-bot", b.serve)
}

func (b *Bridge) serve(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		b.logger.Warn("fonepay bot rejected", "remote_addr", r.RemoteAddr)
		respondError(w, apperror.New(apperror.KindUnauthorized, "invalid bot token"))
		return
	}
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		b.logger.Warn("fonepay bot upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Warn("fonepay bot connection closed", "error", err)
			}
			return
		}

		reply := b.handle(r.Context(), data)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			b.logger.Warn("fonepay bot reply failed", "error", err)
			return
		}
	}
}

// authorized checks the bot token, sent as a bearer token or as ?token= for
// clients that cannot set headers on the handshake.
func (b *Bridge) authorized(r *http.Request) bool {
	if b.token == "" {
		return false
	}
	got := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		got = strings.TrimPrefix(h, "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(b.token)) == 1
}

func (b *Bridge) handle(ctx context.Context, data []byte) Reply {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorReply("", apperror.Validation("malformed message"))
	}
	c, err := msg.confirmation()
	if err != nil {
		return errorReply(msg.TraceID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()
	a, err := b.sink.Confirm(ctx, c.Amount, c.TraceID, strings.TrimSpace(msg.Seller))
	if err != nil {
		b.logger.Warn("fonepay confirmation not applied",
			"trace_id", c.TraceID, "amount", c.Amount.StringFixed(2), "seller", msg.Seller, "error", err)
		return errorReply(c.TraceID, err)
	}
	paid := a.Amount
	return Reply{Type: TypeAck, TraceID: c.TraceID, BillID: a.BillID.String(), Amount: &paid}
}

func (m Message) confirmation() (Confirmation, error) {
	if m.Type != TypeConfirmed {
		return Confirmation{}, apperror.Validation("unsupported message type %q", m.Type)
	}
	if m.Text != "" {
		c, err := ParseConfirmation(m.Text)
		if err == nil {
			return c, nil
		}
		if m.Amount == nil || m.TraceID == "" {
			return Confirmation{}, err
		}
	}
	if m.Amount == nil || !m.Amount.IsPositive() {
		return Confirmation{}, apperror.Validation("amount must be positive")
	}
	if strings.TrimSpace(m.TraceID) == "" {
		return Confirmation{}, apperror.Validation("traceId is required")
	}
	return Confirmation{Amount: *m.Amount, TraceID: strings.TrimSpace(m.TraceID)}, nil
}

func errorReply(traceID string, err error) Reply {
	appErr := apperror.Get(err)
	return Reply{Type: TypeError, TraceID: traceID, Kind: appErr.Kind, Error: appErr.Message}
}

func respondError(w http.ResponseWriter, err error) {
	appErr := apperror.Get(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	json.NewEncoder(w).Encode(appErr)
}
