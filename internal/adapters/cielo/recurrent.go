package cielo

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

// ConsultRecurrent consulta um agendamento recorrente
func (c *Client) ConsultRecurrent(ctx context.Context, recurrentPaymentID uuid.UUID) (*domain.RecurrentPayment, error) {
	if err := requireID("recurrentPaymentId", recurrentPaymentID); err != nil {
		return nil, err
	}

	body, err := c.send(ctx, call{
		operation: "consult_recurrent",
		method:    http.MethodGet,
		url:       c.env.queryURL("1/RecurrentPayment/" + recurrentPaymentID.String()),
		requestID: NewRequestID(),
	})
	if err != nil {
		return nil, WrapAPIError("consult recurrent", err)
	}

	var resp RecurrentConsult
	if err := c.decode(body, &resp); err != nil {
		return nil, WrapAPIError("consult recurrent", err)
	}
	r, err := recurrentFromWire(resp.RecurrentPayment)
	if err != nil {
		return nil, WrapAPIError("consult recurrent", malformed(err))
	}
	if r.RecurrentPaymentID == uuid.Nil {
		r.RecurrentPaymentID = recurrentPaymentID
	}
	return &r, nil
}

// ActivateRecurrent reativa um agendamento. Reativar um agendamento já ativo
// é um sucesso sem chamada de alteração.
func (c *Client) ActivateRecurrent(ctx context.Context, requestID, recurrentPaymentID uuid.UUID) (bool, error) {
	return c.toggleRecurrent(ctx, domain.OpActivate, requestID, recurrentPaymentID)
}

// DeactivateRecurrent desativa um agendamento. Desativar um agendamento já
// inativo é um sucesso sem chamada de alteração.
func (c *Client) DeactivateRecurrent(ctx context.Context, requestID, recurrentPaymentID uuid.UUID) (bool, error) {
	return c.toggleRecurrent(ctx, domain.OpDeactivate, requestID, recurrentPaymentID)
}

func (c *Client) toggleRecurrent(ctx context.Context, op domain.Operation, requestID, recurrentPaymentID uuid.UUID) (bool, error) {
	if err := requireRequestID(requestID); err != nil {
		return false, err
	}
	if err := requireID("recurrentPaymentId", recurrentPaymentID); err != nil {
		return false, err
	}

	current, err := c.ConsultRecurrent(ctx, recurrentPaymentID)
	if err != nil {
		return false, err
	}

	var changed bool
	action := "Reactivate"
	if op == domain.OpActivate {
		_, changed, err = domain.Activate(*current)
	} else {
		action = "Deactivate"
		_, changed, err = domain.Deactivate(*current)
	}
	if err != nil {
		return false, err
	}

	logAttrs := []any{
		slog.String("operation", op.String()),
		slog.String("recurrent_payment_id", recurrentPaymentID.String()),
		slog.String("from", current.Status.String()),
	}
	if !changed {
		c.logger.InfoContext(ctx, "cielo: recorrência já está no estado pedido", logAttrs...)
		return true, nil
	}

	if _, err := c.send(ctx, call{
		operation: op.String() + "_recurrent",
		method:    http.MethodPut,
		url:       c.env.apiURL("1/RecurrentPayment/" + recurrentPaymentID.String() + "/" + action),
		requestID: requestID,
	}); err != nil {
		return false, WrapAPIError(op.String()+" recurrent", err)
	}

	c.logger.InfoContext(ctx, "cielo: recorrência atualizada", logAttrs...)
	return true, nil
}
