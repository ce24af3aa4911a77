package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Erros sentinela da taxonomia de domínio. Os erros tipados abaixo
// respondem a errors.Is com o sentinela correspondente.
var (
	// ErrValidation indica objeto de domínio malformado (nunca chega à rede)
	ErrValidation = errors.New("cielo: erro de validação")

	// ErrIllegalTransition indica operação não permitida no status atual
	ErrIllegalTransition = errors.New("cielo: transição de status ilegal")

	// ErrInvalidOperation indica operação permitida no status mas com parâmetros inválidos
	ErrInvalidOperation = errors.New("cielo: operação inválida")
)

// ValidationError representa um erro de validação com detalhes do campo
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("erro de validação no campo '%s': %s", e.Field, e.Message)
}

// Is permite errors.Is(err, ErrValidation)
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError cria um novo ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IllegalTransitionError indica que a operação não é permitida a partir do
// status atual do recurso. Allowed lista os próximos status possíveis.
type IllegalTransitionError struct {
	PaymentType PaymentType
	From        Status
	Operation   Operation
	Allowed     []Status
}

func (e *IllegalTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = s.String()
	}
	next := "nenhum"
	if len(allowed) > 0 {
		next = strings.Join(allowed, ", ")
	}
	return fmt.Sprintf("operação %s não permitida para pagamento %s no status %s (próximos status permitidos: %s)",
		e.Operation, e.PaymentType, e.From, next)
}

// Is permite errors.Is(err, ErrIllegalTransition)
func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// RecurrentTransitionError é o equivalente de IllegalTransitionError para agendamentos recorrentes
type RecurrentTransitionError struct {
	RecurrentPaymentID string
	From               RecurrentStatus
	Operation          Operation
}

func (e *RecurrentTransitionError) Error() string {
	return fmt.Sprintf("operação %s não permitida para recorrência %s no status %s",
		e.Operation, e.RecurrentPaymentID, e.From)
}

// Is permite errors.Is(err, ErrIllegalTransition)
func (e *RecurrentTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// InvalidOperationError indica valores inválidos para uma operação permitida
// (ex: capturar mais do que o autorizado)
type InvalidOperationError struct {
	Operation Operation
	Reason    string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("operação %s inválida: %s", e.Operation, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidOperation)
func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// IsValidation retorna true se o erro é de validação
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsIllegalTransition retorna true se o erro indica transição ilegal
func IsIllegalTransition(err error) bool {
	return errors.Is(err, ErrIllegalTransition)
}

// IsInvalidOperation retorna true se o erro indica operação com parâmetros inválidos
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}
