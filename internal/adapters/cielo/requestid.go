package cielo

import (
	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

// NewRequestID gera uma nova chave de idempotência. Gere uma por operação
// lógica e reutilize a mesma ao repetir a chamada após uma TransportFault.
func NewRequestID() uuid.UUID {
	return uuid.New()
}

func requireRequestID(id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.NewValidationError("requestId", "RequestId é obrigatório em operações que alteram estado")
	}
	return nil
}

func requireID(field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.NewValidationError(field, "identificador é obrigatório")
	}
	return nil
}
