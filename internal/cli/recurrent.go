package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

// recurrentView é a saída dos comandos de recorrência
type recurrentView struct {
	RecurrentPaymentID string `json:"recurrentPaymentId"`
	Status             string `json:"status"`
	Interval           string `json:"interval"`
	NextRecurrency     string `json:"nextRecurrency,omitempty"`
	EndDate            string `json:"endDate,omitempty"`
}

type toggleView struct {
	RecurrentPaymentID string `json:"recurrentPaymentId"`
	Operation          string `json:"operation"`
	Success            bool   `json:"success"`
}

func newRecurrentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurrent",
		Short: "Gerencia agendamentos recorrentes",
	}
	cmd.AddCommand(newRecurrentConsultCmd(app))
	cmd.AddCommand(newRecurrentToggleCmd(app, domain.OpActivate))
	cmd.AddCommand(newRecurrentToggleCmd(app, domain.OpDeactivate))
	return cmd
}

func newRecurrentConsultCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "consult <recurrentPaymentId>",
		Short: "Consulta um agendamento recorrente",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("RecurrentPaymentId", args[0])
			if err != nil {
				return err
			}
			gateway, err := app.gateway()
			if err != nil {
				return err
			}

			r, err := gateway.ConsultRecurrent(cmd.Context(), id)
			if err != nil {
				return err
			}

			view := recurrentView{
				RecurrentPaymentID: r.RecurrentPaymentID.String(),
				Status:             r.Status.String(),
				Interval:           r.Interval.String(),
			}
			if r.NextRecurrency != nil {
				view.NextRecurrency = r.NextRecurrency.Format(orderDateLayout)
			}
			if r.EndDate != nil {
				view.EndDate = r.EndDate.Format(orderDateLayout)
			}
			return app.print(view, func(w io.Writer) {
				fmt.Fprintf(w, "RecurrentPaymentId: %s\n", view.RecurrentPaymentID)
				fmt.Fprintf(w, "Status:             %s\n", view.Status)
				fmt.Fprintf(w, "Intervalo:          %s\n", view.Interval)
				if view.NextRecurrency != "" {
					fmt.Fprintf(w, "Próxima cobrança:   %s\n", view.NextRecurrency)
				}
			})
		},
	}
}

func newRecurrentToggleCmd(app *App, op domain.Operation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op.String() + " <recurrentPaymentId>",
		Short: "Reativa um agendamento recorrente",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("RecurrentPaymentId", args[0])
			if err != nil {
				return err
			}
			requestID, err := app.requestIDFor()
			if err != nil {
				return err
			}
			gateway, err := app.gateway()
			if err != nil {
				return err
			}

			var ok bool
			if op == domain.OpActivate {
				ok, err = gateway.ActivateRecurrent(cmd.Context(), requestID, id)
			} else {
				ok, err = gateway.DeactivateRecurrent(cmd.Context(), requestID, id)
			}
			if err != nil {
				return err
			}

			view := toggleView{RecurrentPaymentID: id.String(), Operation: op.String(), Success: ok}
			return app.print(view, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s: %t\n", view.Operation, view.RecurrentPaymentID, view.Success)
			})
		},
	}
	if op == domain.OpDeactivate {
		cmd.Short = "Desativa um agendamento recorrente"
	}
	app.addRequestIDFlag(cmd)
	return cmd
}
