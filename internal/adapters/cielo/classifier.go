package cielo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/magnani/cielo-ecommerce/internal/ports"
)

// OutcomeKind é o resultado da classificação de uma troca com o gateway
type OutcomeKind int

const (
	// OutcomeResult: resposta 2xx; negações de negócio estão no corpo
	OutcomeResult OutcomeKind = iota + 1
	// OutcomeRejected: o gateway rejeitou a requisição (*ProtocolError)
	OutcomeRejected
	// OutcomeFault: sem resposta utilizável (*TransportFault)
	OutcomeFault
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeResult:
		return "result"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFault:
		return "fault"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome é exatamente um entre: Body (OutcomeResult) ou Err
// (*ProtocolError para OutcomeRejected, *TransportFault para OutcomeFault).
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	Body       []byte
	Err        error
}

// Classifier interpreta as respostas brutas do transporte
type Classifier struct {
	serializer ports.Serializer
}

// NewClassifier cria um classificador que decodifica os payloads de erro com o serializer informado
func NewClassifier(s ports.Serializer) Classifier {
	return Classifier{serializer: s}
}

// Classify usa o JSONSerializer padrão
func Classify(resp *ports.TransportResponse, err error) Outcome {
	return NewClassifier(JSONSerializer{}).Classify(resp, err)
}

// Classify converte o retorno do transporte em um Outcome
func (c Classifier) Classify(resp *ports.TransportResponse, err error) Outcome {
	if err != nil {
		return Outcome{Kind: OutcomeFault, Err: faultFromError(err)}
	}
	if resp == nil {
		return Outcome{Kind: OutcomeFault, Err: &TransportFault{
			Kind: FaultMalformedResponse,
			Err:  errors.New("transporte não devolveu resposta"),
		}}
	}

	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		return Outcome{Kind: OutcomeResult, StatusCode: status, Body: resp.Body}

	case status == http.StatusTooManyRequests:
		return faultOutcome(FaultRateLimited, status, resp.Body)

	case status >= 500:
		return faultOutcome(FaultServer, status, resp.Body)

	case status >= 400:
		errs, parseErr := c.parseErrors(resp.Body)
		if parseErr != nil {
			return Outcome{Kind: OutcomeFault, StatusCode: status, Err: &TransportFault{
				Kind:       FaultMalformedResponse,
				StatusCode: status,
				Err:        parseErr,
			}}
		}
		return Outcome{Kind: OutcomeRejected, StatusCode: status, Err: &ProtocolError{
			StatusCode: status,
			Errors:     errs,
		}}

	default:
		return faultOutcome(FaultMalformedResponse, status, resp.Body)
	}
}

// parseErrors aceita a lista de erros do gateway, um erro único ou corpo vazio
func (c Classifier) parseErrors(body []byte) ([]CieloError, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var errs []CieloError
		if err := c.serializer.Deserialize(trimmed, &errs); err != nil {
			return nil, err
		}
		return errs, nil
	}
	var single CieloError
	if err := c.serializer.Deserialize(trimmed, &single); err != nil {
		return nil, err
	}
	if single.Code == 0 && single.Message == "" {
		return nil, fmt.Errorf("payload de erro sem código: %s", string(trimmed))
	}
	return []CieloError{single}, nil
}

func faultOutcome(kind FaultKind, status int, body []byte) Outcome {
	var err error
	if len(body) > 0 {
		err = fmt.Errorf("%s", truncate(string(body), 256))
	}
	return Outcome{Kind: OutcomeFault, StatusCode: status, Err: &TransportFault{
		Kind:       kind,
		StatusCode: status,
		Err:        err,
	}}
}

func faultFromError(err error) *TransportFault {
	var fault *TransportFault
	if errors.As(err, &fault) {
		return fault
	}
	kind := FaultConnection
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		kind = FaultCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = FaultTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = FaultTimeout
	}
	return &TransportFault{Kind: kind, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
