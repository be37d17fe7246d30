package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	contracts "freelancehub/contracts/mq"
	"freelancehub/internal/cache"
	"freelancehub/internal/model"
	"freelancehub/internal/repository"
	"freelancehub/pkg/logger"
	"freelancehub/pkg/metrics"
	"freelancehub/pkg/trace"
	"freelancehub/pkg/util"
)

// PaymentRecordedHandler ingests payment.recorded events from the
// invoicing layer into the payments table so income figures can be
// computed locally.
type PaymentRecordedHandler struct {
	payments *repository.PaymentRepository
	cache    *cache.StatsCache
	deduper  *util.Deduper
	logger   *zap.Logger
}

func NewPaymentRecordedHandler(
	payments *repository.PaymentRepository,
	statsCache *cache.StatsCache,
	deduper *util.Deduper,
	logger *zap.Logger,
) *PaymentRecordedHandler {
	return &PaymentRecordedHandler{
		payments: payments,
		cache:    statsCache,
		deduper:  deduper,
		logger:   logger,
	}
}

// Handle processes one payment.recorded event. Malformed or invalid
// payloads are logged and dropped (returning an error would requeue
// them forever); transient DB failures return an error so MQ retries.
func (h *PaymentRecordedHandler) Handle(ctx context.Context, data json.RawMessage) error {
	var payload contracts.PaymentRecordedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.logger.Error("Invalid payment.recorded payload, dropping",
			zap.Error(err),
		)
		metrics.IncrementPaymentIngested("invalid")
		return nil
	}

	if payload.TraceID != "" {
		ctx = trace.WithContext(ctx, payload.TraceID)
	}
	log := logger.WithTrace(ctx, h.logger)

	if payload.Amount < 0 {
		log.Warn("Rejected payment with negative amount",
			zap.Int("payment_id", payload.PaymentID),
			zap.Float64("amount", payload.Amount),
		)
		metrics.IncrementPaymentIngested("invalid")
		return nil
	}

	if !h.deduper.AcquireOnce(ctx, "payment_recorded", payload.PaymentID) {
		metrics.IncrementPaymentIngested("duplicate")
		return nil
	}

	payment := &model.Payment{
		ID:          payload.PaymentID,
		InvoiceID:   payload.InvoiceID,
		ProjectID:   payload.ProjectID,
		Amount:      payload.Amount,
		Currency:    payload.Currency,
		PaymentDate: payload.PaidAt,
	}
	if err := h.payments.Insert(ctx, payment); err != nil {
		metrics.IncrementPaymentIngested("error")
		return fmt.Errorf("failed to insert payment %d: %w", payload.PaymentID, err)
	}

	if payload.ProjectID != nil {
		h.cache.Invalidate(ctx, *payload.ProjectID)
	}

	log.Info("Payment ingested",
		zap.Int("payment_id", payload.PaymentID),
		zap.Int("invoice_id", payload.InvoiceID),
		zap.Float64("amount", payload.Amount),
		zap.String("currency", payload.Currency),
	)
	metrics.IncrementPaymentIngested("success")
	return nil
}
