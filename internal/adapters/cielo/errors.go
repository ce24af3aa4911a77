package cielo

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

// Códigos de erro do gateway usados pelo cliente
const (
	ErrCodeMerchantIDInvalid       = 114
	ErrCodeCardExpirationInvalid   = 126
	ErrCodeCaptureNotAvailable     = 308
	ErrCodeVoidNotAvailable        = 309
	ErrCodeRecurrentPaymentMissing = 313
)

// Erros sentinela para condições comuns
var (
	// ErrProtocol indica que o gateway rejeitou a requisição
	ErrProtocol = errors.New("cielo: requisição rejeitada pelo gateway")

	// ErrTransport indica que não houve resposta utilizável do gateway
	ErrTransport = errors.New("cielo: falha de transporte")

	// ErrNotFound indica que o recurso não foi encontrado
	ErrNotFound = errors.New("cielo: recurso não encontrado")

	// ErrUnauthorized indica credenciais do lojista inválidas
	ErrUnauthorized = errors.New("cielo: não autorizado")
)

// CieloError é um erro individual devolvido pelo gateway
type CieloError struct {
	Code    int    `json:"Code"`
	Message string `json:"Message"`
}

func (e CieloError) String() string {
	return fmt.Sprintf("%d - %s", e.Code, e.Message)
}

// ProtocolError representa uma rejeição do gateway. Uma resposta pode trazer
// vários códigos ao mesmo tempo; todos ficam em Errors.
type ProtocolError struct {
	StatusCode int
	Errors     []CieloError
}

func (e *ProtocolError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("gateway rejeitou a requisição: status %d", e.StatusCode)
	}
	parts := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		parts[i] = ce.String()
	}
	return fmt.Sprintf("gateway rejeitou a requisição: status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// Codes retorna todos os códigos de erro na ordem recebida
func (e *ProtocolError) Codes() []int {
	codes := make([]int, len(e.Errors))
	for i, ce := range e.Errors {
		codes[i] = ce.Code
	}
	return codes
}

// HasCode retorna true se o gateway devolveu o código informado
func (e *ProtocolError) HasCode(code int) bool {
	for _, ce := range e.Errors {
		if ce.Code == code {
			return true
		}
	}
	return false
}

// Is permite errors.Is com ErrProtocol, ErrNotFound, ErrUnauthorized e, para
// conflitos de estado reportados pelo gateway, domain.ErrIllegalTransition.
func (e *ProtocolError) Is(target error) bool {
	switch target {
	case ErrProtocol:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.HasCode(ErrCodeRecurrentPaymentMissing)
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case domain.ErrIllegalTransition:
		return e.HasCode(ErrCodeCaptureNotAvailable) || e.HasCode(ErrCodeVoidNotAvailable)
	}
	return false
}

// FaultKind classifica falhas de transporte
type FaultKind int

const (
	FaultConnection FaultKind = iota + 1
	FaultTimeout
	FaultCanceled
	FaultServer
	FaultRateLimited
	FaultMalformedResponse
)

func (k FaultKind) String() string {
	switch k {
	case FaultConnection:
		return "connection"
	case FaultTimeout:
		return "timeout"
	case FaultCanceled:
		return "canceled"
	case FaultServer:
		return "server"
	case FaultRateLimited:
		return "rate_limited"
	case FaultMalformedResponse:
		return "malformed_response"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// TransportFault indica que o resultado da chamada é desconhecido: não há
// códigos de erro do gateway. A criação pode ser repetida com o mesmo
// RequestId. Captura e cancelamento consultam o pagamento antes de enviar,
// então o resultado deve ser confirmado com ConsultTransaction: se a primeira
// tentativa foi aplicada, repetir uma captura integral falha com
// IllegalTransitionError.
// FaultCanceled significa apenas que o chamador desistiu de esperar; a
// transação no gateway não é cancelada.
type TransportFault struct {
	Kind       FaultKind
	StatusCode int
	Err        error
}

func (e *TransportFault) Error() string {
	msg := fmt.Sprintf("falha de transporte (%s)", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportFault) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, ErrTransport)
func (e *TransportFault) Is(target error) bool {
	return target == ErrTransport
}

// Retryable retorna true se o resultado ainda pode ser confirmado com uma
// nova tentativa ou consulta
func (e *TransportFault) Retryable() bool {
	return e.Kind != FaultCanceled
}

// IsNotFound retorna true se o erro indica que o recurso não foi encontrado
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized retorna true se o erro indica falha de autenticação
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTransportFault retorna true se não houve resposta utilizável do gateway
func IsTransportFault(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsRetryable retorna true se o erro é uma TransportFault cujo resultado pode
// ser confirmado repetindo com o mesmo RequestId ou com ConsultTransaction
func IsRetryable(err error) bool {
	var fault *TransportFault
	if errors.As(err, &fault) {
		return fault.Retryable()
	}
	return false
}

// ErrorCodes retorna todos os códigos do gateway contidos no erro
func ErrorCodes(err error) []int {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Codes()
	}
	return nil
}

// HasErrorCode retorna true se o erro contém o código do gateway informado
func HasErrorCode(err error, code int) bool {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.HasCode(code)
	}
	return false
}

// WrapAPIError envolve um erro com contexto adicional
func WrapAPIError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cielo %s: %w", operation, err)
}
