package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChangeType identifica o motivo de uma notificação enviada pelo gateway
type ChangeType int

const (
	ChangePaymentStatus      ChangeType = 1 // Mudança de status do pagamento
	ChangeRecurrenceCreated  ChangeType = 2 // Recorrência criada
	ChangeAntiFraudStatus    ChangeType = 3 // Mudança de status do antifraude
	ChangeRecurrentStatus    ChangeType = 4 // Mudança de status do pagamento recorrente
	ChangeCancellationDenied ChangeType = 5 // Cancelamento negado
	ChangeChargeback         ChangeType = 7 // Notificação de chargeback
)

// ValidChangeTypes lista todos os tipos de mudança conhecidos
var ValidChangeTypes = []ChangeType{
	ChangePaymentStatus,
	ChangeRecurrenceCreated,
	ChangeAntiFraudStatus,
	ChangeRecurrentStatus,
	ChangeCancellationDenied,
	ChangeChargeback,
}

// IsValid verifica se o tipo de mudança é conhecido
func (c ChangeType) IsValid() bool {
	for _, v := range ValidChangeTypes {
		if c == v {
			return true
		}
	}
	return false
}

func (c ChangeType) String() string {
	switch c {
	case ChangePaymentStatus:
		return "PaymentStatus"
	case ChangeRecurrenceCreated:
		return "RecurrenceCreated"
	case ChangeAntiFraudStatus:
		return "AntiFraudStatus"
	case ChangeRecurrentStatus:
		return "RecurrentStatus"
	case ChangeCancellationDenied:
		return "CancellationDenied"
	case ChangeChargeback:
		return "Chargeback"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// Notification é o aviso enviado pelo gateway quando um recurso muda.
// Ela não carrega o novo status: quem recebe deve consultar o recurso.
type Notification struct {
	PaymentID          uuid.UUID
	RecurrentPaymentID uuid.UUID
	ChangeType         ChangeType
	ReceivedAt         time.Time
}

// NewNotification cria uma notificação recebida agora
func NewNotification(paymentID, recurrentPaymentID uuid.UUID, change ChangeType) Notification {
	return Notification{
		PaymentID:          paymentID,
		RecurrentPaymentID: recurrentPaymentID,
		ChangeType:         change,
		ReceivedAt:         time.Now(),
	}
}

// Validate verifica se a notificação referencia o recurso esperado para o tipo de mudança
func (n Notification) Validate() error {
	if !n.ChangeType.IsValid() {
		return NewValidationError("ChangeType", fmt.Sprintf("tipo de mudança desconhecido: %d", int(n.ChangeType)))
	}
	switch n.ChangeType {
	case ChangeRecurrenceCreated, ChangeRecurrentStatus:
		if n.RecurrentPaymentID == uuid.Nil {
			return NewValidationError("RecurrentPaymentId", "obrigatório para notificações de recorrência")
		}
	default:
		if n.PaymentID == uuid.Nil {
			return NewValidationError("PaymentId", "obrigatório para notificações de pagamento")
		}
	}
	return nil
}

// IsRecurrent retorna true se a notificação é sobre um agendamento recorrente
func (n Notification) IsRecurrent() bool {
	return n.ChangeType == ChangeRecurrenceCreated || n.ChangeType == ChangeRecurrentStatus
}
