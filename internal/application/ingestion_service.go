package application

import (
	"context"
	"time"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/infrastructure/metrics"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
)

// IngestionService drives one webhook delivery through authentication, normalization
// and reconciliation. Any failing stage short-circuits the rest.
type IngestionService struct {
	adapters  map[domain.Provider]ports.ProviderAdapter
	orders    *OrderReconciler
	customers *CustomerReconciler
	items     *ItemReplacer
	notifier  *NotificationDispatcher
	audit     ports.AuditSink
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewIngestionService creates a new ingestion orchestrator. notifier and m may be nil.
func NewIngestionService(
	adapters []ports.ProviderAdapter,
	orders *OrderReconciler,
	customers *CustomerReconciler,
	items *ItemReplacer,
	notifier *NotificationDispatcher,
	audit ports.AuditSink,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *IngestionService {
	byProvider := make(map[domain.Provider]ports.ProviderAdapter, len(adapters))
	for _, a := range adapters {
		byProvider[a.Provider()] = a
	}

	return &IngestionService{
		adapters:  byProvider,
		orders:    orders,
		customers: customers,
		items:     items,
		notifier:  notifier,
		audit:     audit,
		metrics:   m,
		logger:    logger,
	}
}

// Supports reports whether an adapter is registered for provider
func (s *IngestionService) Supports(provider domain.Provider) bool {
	_, ok := s.adapters[provider]
	return ok
}

// Ingest processes one delivery. Errors are *domain.IngestError values.
func (s *IngestionService) Ingest(ctx context.Context, req *domain.InboundRequest) (*domain.IngestResult, error) {
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = time.Now()
	}
	topic := req.Topic()

	s.record(ctx, req, domain.AuditRequestReceived, domain.StateReceived, "webhook received", map[string]interface{}{
		"topic":     topic,
		"bodyBytes": len(req.Body),
		"remoteIp":  req.RemoteIP,
	})

	adapter, ok := s.adapters[req.Provider]
	if !ok {
		return nil, s.fail(ctx, req, domain.NewNotFoundError("unknown_provider", "unknown provider"), nil)
	}

	integration, attempt, err := adapter.Authenticate(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, req, err, attempt.Metadata())
	}
	s.step(ctx, req, domain.StateAuthenticated, attempt.Metadata())

	result := &domain.IngestResult{
		State:       domain.StateAuthenticated,
		Integration: integration,
		Topic:       topic,
	}

	if !adapter.CanHandle(topic) {
		result.State = domain.StateIgnored
		s.step(ctx, req, domain.StateIgnored, map[string]interface{}{"topic": topic})
		s.observe(req, "ignored")
		return result, nil
	}

	normalized, err := adapter.Normalize(req.Body)
	if err != nil {
		return nil, s.fail(ctx, req, err, map[string]interface{}{"integrationId": integration.ID})
	}
	s.step(ctx, req, domain.StateNormalized, map[string]interface{}{
		"externalOrderId": normalized.ExternalOrderID,
		"itemsCount":      len(normalized.Items),
	})

	order, isNew, err := s.orders.Reconcile(ctx, integration, normalized.ExternalOrderID, normalized.Order)
	if err != nil {
		return nil, s.fail(ctx, req, err, map[string]interface{}{"externalOrderId": normalized.ExternalOrderID})
	}
	result.Order = order
	result.IsNewOrder = isNew
	s.step(ctx, req, domain.StateOrderReconciled, map[string]interface{}{
		"orderId": order.ID,
		"isNew":   isNew,
	})

	customer, err := s.customers.Reconcile(ctx, integration, normalized.Customer, isNew)
	if err != nil {
		return nil, s.fail(ctx, req, err, map[string]interface{}{"orderId": order.ID})
	}
	if err := s.orders.AttachCustomer(ctx, order, customer.ID); err != nil {
		return nil, s.fail(ctx, req, err, map[string]interface{}{"orderId": order.ID, "customerId": customer.ID})
	}
	result.Customer = customer
	s.step(ctx, req, domain.StateCustomerReconciled, map[string]interface{}{
		"customerId":  customer.ID,
		"totalOrders": customer.TotalOrders,
	})

	items, err := s.items.Replace(ctx, order, normalized.Items)
	if err != nil {
		return nil, s.fail(ctx, req, err, map[string]interface{}{"orderId": order.ID})
	}
	result.Items = items
	s.step(ctx, req, domain.StateItemsReplaced, map[string]interface{}{"itemsCount": len(items)})

	s.notifier.Notify(ctx, domain.OrderSummary{
		OwnerID:         integration.OwnerID,
		Provider:        integration.Provider,
		OrderID:         order.ID,
		ExternalOrderID: order.ExternalOrderID,
		Status:          order.Status,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		ItemsCount:      len(items),
		IsNew:           isNew,
	})
	result.State = domain.StateNotificationDispatched
	s.step(ctx, req, domain.StateNotificationDispatched, nil)

	outcome := "updated"
	if isNew {
		outcome = "created"
	}
	s.observe(req, outcome)

	s.logger.Info().
		Str("request_id", req.RequestID).
		Str("provider", req.Provider.String()).
		Str("order_id", order.ID).
		Str("external_order_id", order.ExternalOrderID).
		Bool("is_new", isNew).
		Int("items", len(items)).
		Msg("Webhook order ingested")

	return result, nil
}

// Reject records a request refused before it reached the pipeline, such as an oversized body
func (s *IngestionService) Reject(ctx context.Context, req *domain.InboundRequest, err error) error {
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = time.Now()
	}
	return s.fail(ctx, req, err, nil)
}

// RecordResponse writes the final audit event for a request once its status is known
func (s *IngestionService) RecordResponse(ctx context.Context, req *domain.InboundRequest, statusCode int) {
	event := s.event(req, domain.AuditResponse, domain.StateResponded, "response sent", nil)
	event.StatusCode = statusCode
	s.write(ctx, event)
}

func (s *IngestionService) fail(ctx context.Context, req *domain.InboundRequest, err error, metadata map[string]interface{}) error {
	ie := domain.AsIngestError(err)
	state := domain.FailureState(ie.Kind)
	if ie.Kind == domain.KindNotFound {
		state = domain.StateReceived
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	metadata["code"] = ie.Code
	if ie.Err != nil {
		metadata["cause"] = ie.Err.Error()
	}
	s.record(ctx, req, domain.AuditError, state, ie.Message, metadata)

	outcome := string(state)
	if ie.Kind == domain.KindNotFound {
		outcome = "not_found"
	}
	s.observe(req, outcome)

	logEvent := s.logger.Warn()
	if ie.Kind == domain.KindPersistence || ie.Kind == domain.KindInternal {
		logEvent = s.logger.Error()
	}
	logEvent.
		Err(ie.Err).
		Str("request_id", req.RequestID).
		Str("provider", req.Provider.String()).
		Str("code", ie.Code).
		Str("state", string(state)).
		Msg(ie.Message)

	return ie
}

func (s *IngestionService) step(ctx context.Context, req *domain.InboundRequest, state domain.IngestState, metadata map[string]interface{}) {
	s.record(ctx, req, domain.AuditProcessingStep, state, string(state), metadata)
}

func (s *IngestionService) record(
	ctx context.Context,
	req *domain.InboundRequest,
	eventType domain.AuditEventType,
	state domain.IngestState,
	message string,
	metadata map[string]interface{},
) {
	s.write(ctx, s.event(req, eventType, state, message, metadata))
}

func (s *IngestionService) event(
	req *domain.InboundRequest,
	eventType domain.AuditEventType,
	state domain.IngestState,
	message string,
	metadata map[string]interface{},
) *domain.AuditEvent {
	now := time.Now()
	return &domain.AuditEvent{
		RequestID:    req.RequestID,
		Type:         eventType,
		Provider:     req.Provider,
		Step:         state,
		Message:      message,
		ProcessingMs: now.Sub(req.ReceivedAt).Milliseconds(),
		Metadata:     metadata,
		CreatedAt:    now,
	}
}

// write never fails the request; audit sink errors are only logged
func (s *IngestionService) write(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("request_id", event.RequestID).
			Str("type", string(event.Type)).
			Msg("Failed to record audit event")
	}
}

// observe folds unregistered provider names into one label to bound metric cardinality
func (s *IngestionService) observe(req *domain.InboundRequest, outcome string) {
	provider := req.Provider.String()
	if !s.Supports(req.Provider) {
		provider = "unknown"
	}
	s.metrics.ObserveRequest(provider, outcome, time.Since(req.ReceivedAt))
}
