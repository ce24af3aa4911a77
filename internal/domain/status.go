package domain

import "fmt"

// Status é o status canônico de um pagamento, com os códigos numéricos
// usados pelo gateway.
type Status int

const (
	StatusNotFinished      Status = 0  // Criado, aguardando processamento
	StatusAuthorized       Status = 1  // Autorizado (ou boleto gerado)
	StatusPaymentConfirmed Status = 2  // Capturado
	StatusDenied           Status = 3  // Negado
	StatusVoided           Status = 10 // Cancelado
	StatusRefunded         Status = 11 // Estornado após confirmação
	StatusPending          Status = 12 // Aguardando retorno da instituição financeira
	StatusAborted          Status = 13 // Abortado por falha no processamento
	StatusScheduled        Status = 20 // Recorrência agendada
)

// ParseStatus converte o código numérico do gateway em Status
func ParseStatus(code int) (Status, error) {
	s := Status(code)
	switch s {
	case StatusNotFinished, StatusAuthorized, StatusPaymentConfirmed, StatusDenied,
		StatusVoided, StatusRefunded, StatusPending, StatusAborted, StatusScheduled:
		return s, nil
	default:
		return 0, fmt.Errorf("status de pagamento desconhecido: %d", code)
	}
}

func (s Status) String() string {
	switch s {
	case StatusNotFinished:
		return "NotFinished"
	case StatusAuthorized:
		return "Authorized"
	case StatusPaymentConfirmed:
		return "PaymentConfirmed"
	case StatusDenied:
		return "Denied"
	case StatusVoided:
		return "Voided"
	case StatusRefunded:
		return "Refunded"
	case StatusPending:
		return "Pending"
	case StatusAborted:
		return "Aborted"
	case StatusScheduled:
		return "Scheduled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// RecurrentStatus é o status de um agendamento recorrente
type RecurrentStatus int

const (
	RecurrentStatusActive                RecurrentStatus = 1
	RecurrentStatusFinished              RecurrentStatus = 2
	RecurrentStatusDeactivatedByMerchant RecurrentStatus = 3
	RecurrentStatusDisabledMaxAttempts   RecurrentStatus = 4
	RecurrentStatusDisabledExpiredCard   RecurrentStatus = 5
)

// ParseRecurrentStatus converte o código numérico do gateway em RecurrentStatus
func ParseRecurrentStatus(code int) (RecurrentStatus, error) {
	s := RecurrentStatus(code)
	switch s {
	case RecurrentStatusActive, RecurrentStatusFinished, RecurrentStatusDeactivatedByMerchant,
		RecurrentStatusDisabledMaxAttempts, RecurrentStatusDisabledExpiredCard:
		return s, nil
	default:
		return 0, fmt.Errorf("status de recorrência desconhecido: %d", code)
	}
}

func (s RecurrentStatus) String() string {
	switch s {
	case RecurrentStatusActive:
		return "Active"
	case RecurrentStatusFinished:
		return "Finished"
	case RecurrentStatusDeactivatedByMerchant:
		return "DeactivatedByMerchant"
	case RecurrentStatusDisabledMaxAttempts:
		return "DisabledMaxAttempts"
	case RecurrentStatusDisabledExpiredCard:
		return "DisabledExpiredCard"
	default:
		return fmt.Sprintf("RecurrentStatus(%d)", int(s))
	}
}

// IsActive retorna true se o agendamento vai gerar novas cobranças
func (s RecurrentStatus) IsActive() bool {
	return s == RecurrentStatusActive
}
