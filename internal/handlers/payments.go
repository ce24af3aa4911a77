package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo"
	"github.com/magnani/cielo-ecommerce/internal/domain"
	"github.com/magnani/cielo-ecommerce/internal/ports"
)

// PaymentHandler expõe a consulta de pagamentos (somente leitura)
type PaymentHandler struct {
	gateway ports.PaymentGateway
	logger  *slog.Logger
}

// NewPaymentHandler cria o handler de consulta
func NewPaymentHandler(gateway ports.PaymentGateway, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{gateway: gateway, logger: logger}
}

// PaymentView é a representação JSON de um pagamento consultado
type PaymentView struct {
	PaymentID          string   `json:"paymentId"`
	MerchantOrderID    string   `json:"merchantOrderId"`
	Type               string   `json:"type"`
	Status             string   `json:"status"`
	StatusCode         int      `json:"statusCode"`
	Amount             string   `json:"amount"`
	CapturedAmount     string   `json:"capturedAmount"`
	VoidedAmount       string   `json:"voidedAmount"`
	ReturnCode         string   `json:"returnCode,omitempty"`
	ReturnMessage      string   `json:"returnMessage,omitempty"`
	Card               string   `json:"card,omitempty"`
	RecurrentPaymentID string   `json:"recurrentPaymentId,omitempty"`
	AllowedOperations  []string `json:"allowedOperations"`
}

// NewPaymentView monta a visão de uma transação consultada
func NewPaymentView(txn domain.Transaction) PaymentView {
	p := txn.Payment
	view := PaymentView{
		PaymentID:         p.PaymentID.String(),
		MerchantOrderID:   txn.MerchantOrderID,
		Type:              p.Type.String(),
		Status:            p.Status.String(),
		StatusCode:        int(p.Status),
		Amount:            p.Amount.String(),
		CapturedAmount:    p.CapturedAmount.String(),
		VoidedAmount:      p.VoidedAmount.String(),
		ReturnCode:        p.ReturnCode,
		ReturnMessage:     p.ReturnMessage,
		AllowedOperations: []string{},
	}
	if p.CreditCard != nil {
		view.Card = p.CreditCard.String()
	}
	if p.RecurrentPayment != nil && p.RecurrentPayment.RecurrentPaymentID != uuid.Nil {
		view.RecurrentPaymentID = p.RecurrentPayment.RecurrentPaymentID.String()
	}
	for _, op := range domain.AllowedOperations(p.Type, p.Status) {
		view.AllowedOperations = append(view.AllowedOperations, op.String())
	}
	return view
}

// GetPayment consulta um pagamento pelo PaymentId
// Endpoint: GET /api/payments/{paymentId}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "paymentId inválido")
		return
	}

	txn, err := h.gateway.ConsultTransaction(r.Context(), paymentID)
	if err != nil {
		status := statusForError(err)
		h.logger.WarnContext(r.Context(), "erro ao consultar pagamento",
			slog.String("payment_id", paymentID.String()),
			slog.Int("status_code", status),
			slog.String("error", err.Error()),
		)
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, NewPaymentView(*txn))
}

// statusForError traduz a taxonomia de erros do cliente em status HTTP
func statusForError(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case cielo.IsNotFound(err):
		return http.StatusNotFound
	case cielo.IsUnauthorized(err):
		return http.StatusBadGateway
	case cielo.IsTransportFault(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("erro ao codificar resposta", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
