// Package handlers contém os handlers HTTP da aplicação
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/magnani/cielo-ecommerce/internal/domain"
	"github.com/magnani/cielo-ecommerce/internal/ports"
)

// NotificationEventHandler processa um tipo específico de notificação
type NotificationEventHandler func(ctx context.Context, n domain.Notification) error

// NotificationDispatcher roteia as notificações do gateway por ChangeType.
// É plugado em cielo.NotificationHandler.OnNotification.
type NotificationDispatcher struct {
	gateway ports.PaymentGateway
	logger  *slog.Logger

	mu       sync.RWMutex
	handlers map[domain.ChangeType]NotificationEventHandler
}

// NewNotificationDispatcher cria um dispatcher sem handlers registrados
func NewNotificationDispatcher(gateway ports.PaymentGateway, logger *slog.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationDispatcher{
		gateway:  gateway,
		logger:   logger,
		handlers: make(map[domain.ChangeType]NotificationEventHandler),
	}
}

// RegisterHandler registra um handler para um tipo de mudança
func (d *NotificationDispatcher) RegisterHandler(change domain.ChangeType, handler NotificationEventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[change] = handler
}

// RegisterDefaults registra os handlers que consultam o recurso notificado
func (d *NotificationDispatcher) RegisterDefaults() {
	for _, change := range domain.ValidChangeTypes {
		switch change {
		case domain.ChangeRecurrenceCreated, domain.ChangeRecurrentStatus:
			d.RegisterHandler(change, d.RecurrentChanged)
		default:
			d.RegisterHandler(change, d.PaymentChanged)
		}
	}
}

// Dispatch entrega a notificação ao handler registrado para o seu tipo
func (d *NotificationDispatcher) Dispatch(ctx context.Context, n domain.Notification) error {
	d.mu.RLock()
	handler, ok := d.handlers[n.ChangeType]
	d.mu.RUnlock()

	if !ok {
		d.logger.InfoContext(ctx, "notificação não tratada", slog.String("change_type", n.ChangeType.String()))
		return nil
	}
	return handler(ctx, n)
}

// PaymentChanged consulta o pagamento notificado e registra o novo status
func (d *NotificationDispatcher) PaymentChanged(ctx context.Context, n domain.Notification) error {
	txn, err := d.gateway.ConsultTransaction(ctx, n.PaymentID)
	if err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "pagamento atualizado",
		slog.String("change_type", n.ChangeType.String()),
		slog.String("payment_id", n.PaymentID.String()),
		slog.String("merchant_order_id", txn.MerchantOrderID),
		slog.String("status", txn.Payment.Status.String()),
	)
	return nil
}

// RecurrentChanged consulta o agendamento notificado e registra o novo status
func (d *NotificationDispatcher) RecurrentChanged(ctx context.Context, n domain.Notification) error {
	rec, err := d.gateway.ConsultRecurrent(ctx, n.RecurrentPaymentID)
	if err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "recorrência atualizada",
		slog.String("change_type", n.ChangeType.String()),
		slog.String("recurrent_payment_id", n.RecurrentPaymentID.String()),
		slog.String("status", rec.Status.String()),
	)
	return nil
}

// HealthCheck endpoint para verificar se o servidor está funcionando
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "cielo-ecommerce",
	})
}
