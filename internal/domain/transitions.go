package domain

import "fmt"

// Operation é uma operação que altera o estado de um pagamento ou recorrência
type Operation int

const (
	OpAuthorize Operation = iota + 1
	OpCapture
	OpCancel
	OpActivate
	OpDeactivate
)

func (o Operation) String() string {
	switch o {
	case OpAuthorize:
		return "authorize"
	case OpCapture:
		return "capture"
	case OpCancel:
		return "cancel"
	case OpActivate:
		return "activate"
	case OpDeactivate:
		return "deactivate"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

type transitionTable map[Status]map[Operation][]Status

var paymentOperations = []Operation{OpAuthorize, OpCapture, OpCancel}

// Cartão: autoriza, captura uma vez e cancela (total ou parcial depois da captura).
var creditCardTransitions = transitionTable{
	StatusNotFinished: {
		OpAuthorize: {StatusAuthorized, StatusPaymentConfirmed, StatusDenied, StatusScheduled, StatusPending, StatusAborted, StatusNotFinished},
	},
	StatusAuthorized: {
		OpCapture: {StatusPaymentConfirmed},
		OpCancel:  {StatusVoided},
	},
	StatusPaymentConfirmed: {
		OpCancel: {StatusVoided, StatusPaymentConfirmed},
	},
}

// Boleto e transferência são liquidados fora do gateway: só existe a criação.
var offlineTransitions = transitionTable{
	StatusNotFinished: {
		OpAuthorize: {StatusAuthorized, StatusPending, StatusPaymentConfirmed, StatusDenied, StatusAborted, StatusNotFinished},
	},
}

func transitionsFor(t PaymentType) transitionTable {
	switch t {
	case PaymentTypeCreditCard:
		return creditCardTransitions
	case PaymentTypeBoleto, PaymentTypeEletronicTransfer:
		return offlineTransitions
	default:
		return nil
	}
}

// AllowedOperations lista as operações permitidas para o tipo e status
func AllowedOperations(t PaymentType, s Status) []Operation {
	ops := transitionsFor(t)[s]
	var out []Operation
	for _, op := range paymentOperations {
		if _, ok := ops[op]; ok {
			out = append(out, op)
		}
	}
	return out
}

// NextStatuses lista os status alcançáveis a partir de s pela operação op
func NextStatuses(t PaymentType, s Status, op Operation) []Status {
	next := transitionsFor(t)[s][op]
	return append([]Status(nil), next...)
}

// CanTransition informa se from -op-> to é uma transição legal
func CanTransition(t PaymentType, from Status, op Operation, to Status) bool {
	for _, s := range transitionsFor(t)[from][op] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckOperation falha com IllegalTransitionError se op não é permitida no status atual
func CheckOperation(p Payment, op Operation) error {
	if _, ok := transitionsFor(p.Type)[p.Status][op]; ok {
		return nil
	}
	return newIllegalTransition(p.Type, p.Status, op)
}

// CheckCreated valida o status devolvido pelo gateway na criação do pagamento
func CheckCreated(t PaymentType, reported Status) error {
	if CanTransition(t, StatusNotFinished, OpAuthorize, reported) {
		return nil
	}
	return &IllegalTransitionError{
		PaymentType: t,
		From:        StatusNotFinished,
		Operation:   OpAuthorize,
		Allowed:     NextStatuses(t, StatusNotFinished, OpAuthorize),
	}
}

func newIllegalTransition(t PaymentType, from Status, op Operation) *IllegalTransitionError {
	var allowed []Status
	seen := make(map[Status]bool)
	for _, o := range paymentOperations {
		for _, s := range transitionsFor(t)[from][o] {
			if !seen[s] {
				seen[s] = true
				allowed = append(allowed, s)
			}
		}
	}
	return &IllegalTransitionError{
		PaymentType: t,
		From:        from,
		Operation:   op,
		Allowed:     allowed,
	}
}

// Capture valida e aplica uma captura. amount nil captura o valor autorizado
// inteiro. Retorna o novo pagamento (o original não é alterado) e o valor
// efetivamente capturado. Só é permitida uma captura por autorização.
func Capture(p Payment, amount *Amount) (Payment, Amount, error) {
	if err := CheckOperation(p, OpCapture); err != nil {
		return Payment{}, 0, err
	}
	capturable := p.CapturableAmount()
	if capturable == 0 {
		return Payment{}, 0, newIllegalTransition(p.Type, StatusPaymentConfirmed, OpCapture)
	}

	value := capturable
	if amount != nil {
		if !amount.IsPositive() {
			return Payment{}, 0, NewValidationError("amount", "valor da captura deve ser maior que zero")
		}
		if *amount > capturable {
			return Payment{}, 0, &InvalidOperationError{
				Operation: OpCapture,
				Reason:    fmt.Sprintf("valor %s maior que o autorizado %s", *amount, capturable),
			}
		}
		value = *amount
	}

	next := p.Clone()
	next.Status = StatusPaymentConfirmed
	next.CapturedAmount = value
	return next, value, nil
}

// Cancel valida e aplica um cancelamento. amount nil cancela todo o saldo.
// Cancelamento parcial só é aceito depois da captura; quando o saldo
// cancelável chega a zero o pagamento passa a Voided.
func Cancel(p Payment, amount *Amount) (Payment, Amount, error) {
	if err := CheckOperation(p, OpCancel); err != nil {
		return Payment{}, 0, err
	}

	cancelable := p.CancelableAmount()
	value := cancelable
	if amount != nil {
		if !amount.IsPositive() {
			return Payment{}, 0, NewValidationError("amount", "valor do cancelamento deve ser maior que zero")
		}
		if *amount > cancelable {
			return Payment{}, 0, &InvalidOperationError{
				Operation: OpCancel,
				Reason:    fmt.Sprintf("valor %s maior que o saldo cancelável %s", *amount, cancelable),
			}
		}
		if *amount < cancelable && p.Status == StatusAuthorized {
			return Payment{}, 0, &InvalidOperationError{
				Operation: OpCancel,
				Reason:    "cancelamento parcial exige pagamento capturado",
			}
		}
		value = *amount
	}

	next := p.Clone()
	next.VoidedAmount += value
	if next.CancelableAmount() == 0 {
		next.Status = StatusVoided
	}
	return next, value, nil
}

// Activate reativa um agendamento. Ativar um agendamento já ativo não altera
// nada e changed retorna false. Agendamentos finalizados não podem voltar.
func Activate(r RecurrentPayment) (next RecurrentPayment, changed bool, err error) {
	switch r.Status {
	case 0, RecurrentStatusActive:
		return r.Clone(), false, nil
	case RecurrentStatusDeactivatedByMerchant, RecurrentStatusDisabledMaxAttempts, RecurrentStatusDisabledExpiredCard:
		next = r.Clone()
		next.Status = RecurrentStatusActive
		return next, true, nil
	case RecurrentStatusFinished:
		return RecurrentPayment{}, false, &RecurrentTransitionError{
			RecurrentPaymentID: r.RecurrentPaymentID.String(),
			From:               r.Status,
			Operation:          OpActivate,
		}
	default:
		return RecurrentPayment{}, false, fmt.Errorf("status de recorrência desconhecido: %d", int(r.Status))
	}
}

// Deactivate desativa um agendamento. Desativar um agendamento já inativo
// não altera nada e changed retorna false.
func Deactivate(r RecurrentPayment) (next RecurrentPayment, changed bool, err error) {
	switch r.Status {
	case 0, RecurrentStatusActive:
		next = r.Clone()
		next.Status = RecurrentStatusDeactivatedByMerchant
		return next, true, nil
	case RecurrentStatusDeactivatedByMerchant, RecurrentStatusDisabledMaxAttempts,
		RecurrentStatusDisabledExpiredCard, RecurrentStatusFinished:
		return r.Clone(), false, nil
	default:
		return RecurrentPayment{}, false, fmt.Errorf("status de recorrência desconhecido: %d", int(r.Status))
	}
}
