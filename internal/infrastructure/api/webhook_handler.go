package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"archie-core-order-ingest/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultMaxBodyBytes caps webhook bodies when no limit is configured
const DefaultMaxBodyBytes int64 = 1 << 20

// Ingester is the pipeline the webhook endpoint drives
type Ingester interface {
	Supports(provider domain.Provider) bool
	Ingest(ctx context.Context, req *domain.InboundRequest) (*domain.IngestResult, error)
	Reject(ctx context.Context, req *domain.InboundRequest, err error) error
	RecordResponse(ctx context.Context, req *domain.InboundRequest, statusCode int)
}

// WebhookHandler exposes POST /webhooks/{provider}
type WebhookHandler struct {
	ingester     Ingester
	maxBodyBytes int64
	logger       zerolog.Logger
}

// NewWebhookHandler creates the webhook endpoint. A non-positive maxBodyBytes uses the default.
func NewWebhookHandler(ingester Ingester, maxBodyBytes int64, logger zerolog.Logger) *WebhookHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &WebhookHandler{
		ingester:     ingester,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Routes mounts the webhook endpoint on r. Methods other than POST get a JSON 405.
func (h *WebhookHandler) Routes(r chi.Router) {
	r.Route("/webhooks", func(r chi.Router) {
		r.MethodNotAllowed(h.methodNotAllowed)
		r.Post("/{provider}", h.HandleWebhook)
	})
}

type orderResponse struct {
	OrderID         string          `json:"orderId"`
	CustomerID      string          `json:"customerId"`
	ExternalOrderID string          `json:"externalOrderId"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ItemsCount      int             `json:"itemsCount"`
	IsNew           bool            `json:"isNew"`
	Provider        domain.Provider `json:"provider"`
}

type ignoredResponse struct {
	Ignored bool   `json:"ignored"`
	Topic   string `json:"topic,omitempty"`
}

type successEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleWebhook reads the raw body, runs the pipeline and translates the outcome
//
// @Summary Receive an order webhook
// @Param provider path string true "woocommerce or shopify"
// @Success 200 {object} successEnvelope
// @Failure 400,401,404,500 {object} errorEnvelope
// @Router /webhooks/{provider} [post]
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &domain.InboundRequest{
		RequestID:  requestID(ctx),
		Provider:   domain.Provider(chi.URLParam(r, "provider")),
		Header:     r.Header,
		Query:      r.URL.Query(),
		RemoteIP:   r.RemoteAddr,
		ReceivedAt: time.Now(),
	}

	if h.ingester.Supports(req.Provider) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			rejection := domain.NewValidationError("unreadable_body", "request body could not be read")
			if errors.As(err, &tooLarge) {
				rejection = domain.NewValidationError("body_too_large", "request body exceeds the size limit")
			}
			h.writeError(ctx, w, req, h.ingester.Reject(ctx, req, rejection))
			return
		}
		req.Body = body
	}

	result, err := h.ingester.Ingest(ctx, req)
	if err != nil {
		h.writeError(ctx, w, req, err)
		return
	}

	if result.Ignored() {
		h.writeJSON(ctx, w, req, http.StatusOK, successEnvelope{
			Success: true,
			Data:    ignoredResponse{Ignored: true, Topic: result.Topic},
		})
		return
	}

	h.writeJSON(ctx, w, req, http.StatusOK, successEnvelope{
		Success: true,
		Data: orderResponse{
			OrderID:         result.Order.ID,
			CustomerID:      result.Customer.ID,
			ExternalOrderID: result.Order.ExternalOrderID,
			Status:          result.Order.Status,
			TotalAmount:     result.Order.TotalAmount,
			ItemsCount:      len(result.Items),
			IsNew:           result.IsNewOrder,
			Provider:        result.Integration.Provider,
		},
	})
}

func (h *WebhookHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	h.encode(w, http.StatusMethodNotAllowed, errorEnvelope{
		Error:   "method_not_allowed",
		Message: "only POST is accepted",
	})
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *WebhookHandler) writeError(ctx context.Context, w http.ResponseWriter, req *domain.InboundRequest, err error) {
	ie := domain.AsIngestError(err)
	h.writeJSON(ctx, w, req, StatusFor(ie.Kind), errorEnvelope{
		Error:   ie.Code,
		Message: ie.Message,
	})
}

// writeJSON sends the response and then records it; the audit write survives a client disconnect
func (h *WebhookHandler) writeJSON(ctx context.Context, w http.ResponseWriter, req *domain.InboundRequest, status int, body interface{}) {
	h.encode(w, status, body)
	h.ingester.RecordResponse(context.WithoutCancel(ctx), req, status)
}

func (h *WebhookHandler) encode(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to write response")
	}
}

// requestID is the correlation id of the request, minted when no RequestID middleware ran
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
