package domain

import (
	"net/http"
	"net/url"
	"time"
)

// IngestState is a step of the per-request ingestion state machine
type IngestState string

const (
	StateReceived               IngestState = "received"
	StateAuthenticated          IngestState = "authenticated"
	StateNormalized             IngestState = "normalized"
	StateOrderReconciled        IngestState = "order_reconciled"
	StateCustomerReconciled     IngestState = "customer_reconciled"
	StateItemsReplaced          IngestState = "items_replaced"
	StateNotificationDispatched IngestState = "notification_dispatched"
	StateResponded              IngestState = "responded"
	StateIgnored                IngestState = "ignored"

	StateAuthFailed        IngestState = "auth_failed"
	StateValidationFailed  IngestState = "validation_failed"
	StatePersistenceFailed IngestState = "persistence_failed"
)

// FailureState maps an error kind to the terminal state it short-circuits to
func FailureState(kind ErrorKind) IngestState {
	switch kind {
	case KindAuthentication:
		return StateAuthFailed
	case KindValidation:
		return StateValidationFailed
	default:
		return StatePersistenceFailed
	}
}

// InboundRequest is a webhook delivery as received, before any parsing.
// Body holds the exact bytes read from the wire.
type InboundRequest struct {
	RequestID  string
	Provider   Provider
	Header     http.Header
	Query      url.Values
	Body       []byte
	RemoteIP   string
	ReceivedAt time.Time
}

// Topic returns the provider's event topic header, if any
func (r *InboundRequest) Topic() string {
	switch r.Provider {
	case ProviderWooCommerce:
		return r.Header.Get("X-WC-Webhook-Topic")
	case ProviderShopify:
		return r.Header.Get("X-Shopify-Topic")
	}
	return ""
}

// IngestResult is the outcome of one successful ingestion
type IngestResult struct {
	State       IngestState
	Integration *Integration
	Order       *Order
	Customer    *Customer
	Items       []OrderItem
	IsNewOrder  bool
	Topic       string
}

// Ignored reports whether the delivery was acknowledged without any write
func (r *IngestResult) Ignored() bool {
	return r != nil && r.State == StateIgnored
}
