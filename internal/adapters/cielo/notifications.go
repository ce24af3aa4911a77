package cielo

import (
	"context"
	"crypto/hmac"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

// DefaultSecretHeader é o cabeçalho customizado configurado no painel da
// Cielo para autenticar o post de notificação
const DefaultSecretHeader = "X-Notification-Secret"

// maxNotificationSize limita o corpo aceito no post de notificação
const maxNotificationSize = 64 << 10

// NotificationHandler processa o post de notificação da Cielo. A notificação
// só informa o que mudou; o novo estado deve ser obtido com uma consulta.
type NotificationHandler struct {
	// OnPaymentStatusChange é chamado para notificações de pagamento
	// (status, antifraude, cancelamento negado, chargeback)
	OnPaymentStatusChange func(ctx context.Context, n domain.Notification) error

	// OnRecurrentChange é chamado quando uma recorrência é criada ou muda de status
	OnRecurrentChange func(ctx context.Context, n domain.Notification) error

	// OnNotification é chamado para toda notificação válida, antes dos demais
	OnNotification func(ctx context.Context, n domain.Notification) error

	// OnError é chamado quando ocorre um erro durante o processamento
	OnError func(ctx context.Context, err error)

	// Secret é o valor esperado em SecretHeader (opcional)
	Secret       string
	SecretHeader string

	Logger *slog.Logger

	serializer JSONSerializer
	now        func() time.Time
}

// NewNotificationHandler cria um novo handler de notificações
func NewNotificationHandler(secret string, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		Secret:       secret,
		SecretHeader: DefaultSecretHeader,
		Logger:       logger,
		now:          time.Now,
	}
}

// ServeHTTP implementa http.Handler. Monte em POST /api/notifications/cielo
func (h *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger()

	// Apenas aceita POST
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Valida o segredo se configurado
	if h.Secret != "" {
		header := h.SecretHeader
		if header == "" {
			header = DefaultSecretHeader
		}
		if !hmac.Equal([]byte(r.Header.Get(header)), []byte(h.Secret)) {
			logger.WarnContext(ctx, "cielo: notificação com segredo inválido", slog.String("remote_addr", r.RemoteAddr))
			http.Error(w, "Invalid secret", http.StatusUnauthorized)
			return
		}
	}

	// Lê o body
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationSize))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	n, err := h.Parse(body)
	if err != nil {
		logger.WarnContext(ctx, "cielo: notificação inválida", slog.String("error", err.Error()))
		http.Error(w, "Invalid notification", http.StatusBadRequest)
		return
	}

	logger.InfoContext(ctx, "cielo: notificação recebida",
		slog.String("change_type", n.ChangeType.String()),
		slog.String("payment_id", n.PaymentID.String()),
		slog.String("recurrent_payment_id", n.RecurrentPaymentID.String()),
	)

	if err := h.Process(ctx, n); err != nil {
		logger.ErrorContext(ctx, "cielo: erro ao processar notificação", slog.String("error", err.Error()))
		if h.OnError != nil {
			h.OnError(ctx, err)
		}
		// Retorna 200 para evitar reenvios da Cielo
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Parse decodifica e valida o corpo do post de notificação
func (h *NotificationHandler) Parse(body []byte) (domain.Notification, error) {
	var payload NotificationPayload
	if err := h.serializer.Deserialize(body, &payload); err != nil {
		return domain.Notification{}, err
	}

	paymentID, err := parseOptionalUUID(payload.PaymentID)
	if err != nil {
		return domain.Notification{}, domain.NewValidationError("PaymentId", fmt.Sprintf("formato inválido: %q", payload.PaymentID))
	}
	recurrentID, err := parseOptionalUUID(payload.RecurrentPaymentID)
	if err != nil {
		return domain.Notification{}, domain.NewValidationError("RecurrentPaymentId", fmt.Sprintf("formato inválido: %q", payload.RecurrentPaymentID))
	}

	n := domain.Notification{
		PaymentID:          paymentID,
		RecurrentPaymentID: recurrentID,
		ChangeType:         domain.ChangeType(payload.ChangeType),
		ReceivedAt:         h.clock()(),
	}
	if err := n.Validate(); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// Process roteia a notificação para os callbacks configurados
func (h *NotificationHandler) Process(ctx context.Context, n domain.Notification) error {
	if h.OnNotification != nil {
		if err := h.OnNotification(ctx, n); err != nil {
			return err
		}
	}

	if n.IsRecurrent() {
		if h.OnRecurrentChange == nil {
			return nil
		}
		return h.OnRecurrentChange(ctx, n)
	}

	if h.OnPaymentStatusChange == nil {
		return nil
	}
	return h.OnPaymentStatusChange(ctx, n)
}

func (h *NotificationHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *NotificationHandler) clock() func() time.Time {
	if h.now == nil {
		return time.Now
	}
	return h.now
}
