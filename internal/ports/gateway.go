// Package ports define as interfaces (portas) entre o núcleo e os colaboradores externos
// Seguindo o padrão Hexagonal Architecture / Ports & Adapters
package ports

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

// ──────────────────────────────────────────────
// Transporte e serialização
// ──────────────────────────────────────────────

// TransportRequest é uma requisição já serializada pronta para envio
type TransportRequest struct {
	Method string
	URL    string
	Header http.Header // Inclui MerchantId, MerchantKey e RequestId
	Body   []byte      // nil para GET
}

// TransportResponse é a resposta bruta do gateway
type TransportResponse struct {
	StatusCode int
	Body       []byte
}

// GatewayTransport executa a troca HTTP com o gateway. Timeouts e TLS são
// responsabilidade da implementação. Um erro significa que não houve
// resposta (falha de rede, timeout ou contexto cancelado).
type GatewayTransport interface {
	Send(ctx context.Context, req TransportRequest) (*TransportResponse, error)
}

// TransportFunc adapta uma função para GatewayTransport
type TransportFunc func(ctx context.Context, req TransportRequest) (*TransportResponse, error)

// Send implementa GatewayTransport
func (f TransportFunc) Send(ctx context.Context, req TransportRequest) (*TransportResponse, error) {
	return f(ctx, req)
}

// Serializer converte os payloads do gateway de/para bytes
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, target any) error
}

// ──────────────────────────────────────────────
// Provider interface
// ──────────────────────────────────────────────

// PaymentGateway define as operações do cliente do gateway.
// Toda operação que altera estado exige um requestID (chave de idempotência).
type PaymentGateway interface {
	// CreateTransaction autoriza (e opcionalmente captura) uma transação.
	// Uma negação é devolvida como Payment com Status Denied, sem erro.
	CreateTransaction(ctx context.Context, requestID uuid.UUID, txn domain.Transaction) (*domain.Transaction, error)

	// CaptureTransaction captura total (amount nil) ou parcialmente uma autorização
	CaptureTransaction(ctx context.Context, requestID, paymentID uuid.UUID, amount *domain.Amount) (*domain.Payment, error)

	// CancelTransaction cancela total (amount nil) ou parcialmente um pagamento
	CancelTransaction(ctx context.Context, requestID, paymentID uuid.UUID, amount *domain.Amount) (*domain.Payment, error)

	// ActivateRecurrent reativa um agendamento recorrente
	ActivateRecurrent(ctx context.Context, requestID, recurrentPaymentID uuid.UUID) (bool, error)

	// DeactivateRecurrent desativa um agendamento recorrente
	DeactivateRecurrent(ctx context.Context, requestID, recurrentPaymentID uuid.UUID) (bool, error)

	// ConsultTransaction consulta uma transação pelo PaymentId (somente leitura)
	ConsultTransaction(ctx context.Context, paymentID uuid.UUID) (*domain.Transaction, error)

	// ConsultByMerchantOrderID lista os PaymentIds de um pedido do lojista
	ConsultByMerchantOrderID(ctx context.Context, merchantOrderID string) ([]uuid.UUID, error)

	// ConsultRecurrent consulta um agendamento recorrente
	ConsultRecurrent(ctx context.Context, recurrentPaymentID uuid.UUID) (*domain.RecurrentPayment, error)
}
