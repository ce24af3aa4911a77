package cli

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/magnani/cielo-ecommerce/internal/domain"
	"github.com/magnani/cielo-ecommerce/internal/handlers"
)

func newCreateCmd(app *App) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create --file pedido.yaml",
		Short: "Cria uma transação a partir de um arquivo de pedido",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			txn, err := LoadOrder(file)
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

			created, err := gateway.CreateTransaction(cmd.Context(), requestID, txn)
			if err != nil {
				return err
			}
			return app.printTransaction(*created)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Arquivo YAML do pedido")
	_ = cmd.MarkFlagRequired("file")
	app.addRequestIDFlag(cmd)
	return cmd
}

func newCaptureCmd(app *App) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "capture <paymentId>",
		Short: "Captura uma autorização (total ou parcial com --amount)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paymentID, value, err := paymentArgs(args[0], amount)
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

			p, err := gateway.CaptureTransaction(cmd.Context(), requestID, paymentID, value)
			if err != nil {
				return err
			}
			return app.printTransaction(domain.Transaction{Payment: *p})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Valor a capturar em reais (ex: 25.00)")
	app.addRequestIDFlag(cmd)
	return cmd
}

func newCancelCmd(app *App) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "cancel <paymentId>",
		Short: "Cancela um pagamento (total ou parcial com --amount)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paymentID, value, err := paymentArgs(args[0], amount)
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

			p, err := gateway.CancelTransaction(cmd.Context(), requestID, paymentID, value)
			if err != nil {
				return err
			}
			return app.printTransaction(domain.Transaction{Payment: *p})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Valor a cancelar em reais (ex: 10.00)")
	app.addRequestIDFlag(cmd)
	return cmd
}

func newConsultCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "consult <paymentId>",
		Short: "Consulta uma transação pelo PaymentId",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paymentID, err := parseID("PaymentId", args[0])
			if err != nil {
				return err
			}
			gateway, err := app.gateway()
			if err != nil {
				return err
			}

			txn, err := gateway.ConsultTransaction(cmd.Context(), paymentID)
			if err != nil {
				return err
			}
			return app.printTransaction(*txn)
		},
	}
}

func newConsultOrderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "consult-order <merchantOrderId>",
		Short: "Lista os PaymentIds de um pedido",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, err := app.gateway()
			if err != nil {
				return err
			}

			ids, err := gateway.ConsultByMerchantOrderID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.print(ids, func(w io.Writer) {
				for _, id := range ids {
					fmt.Fprintln(w, id)
				}
			})
		},
	}
}

// paymentArgs converte o PaymentId e o valor opcional
func paymentArgs(rawID, rawAmount string) (uuid.UUID, *domain.Amount, error) {
	paymentID, err := parseID("PaymentId", rawID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if rawAmount == "" {
		return paymentID, nil, nil
	}
	amount, err := domain.ParseAmount(rawAmount)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("--amount inválido: %w", err)
	}
	return paymentID, &amount, nil
}

func (a *App) printTransaction(txn domain.Transaction) error {
	view := handlers.NewPaymentView(txn)
	return a.print(view, func(w io.Writer) {
		fmt.Fprintf(w, "PaymentId:     %s\n", view.PaymentID)
		if view.MerchantOrderID != "" {
			fmt.Fprintf(w, "Pedido:        %s\n", view.MerchantOrderID)
		}
		fmt.Fprintf(w, "Status:        %s (%d)\n", view.Status, view.StatusCode)
		fmt.Fprintf(w, "Valor:         %s\n", view.Amount)
		fmt.Fprintf(w, "Capturado:     %s\n", view.CapturedAmount)
		fmt.Fprintf(w, "Cancelado:     %s\n", view.VoidedAmount)
		if view.ReturnCode != "" {
			fmt.Fprintf(w, "Retorno:       %s %s\n", view.ReturnCode, view.ReturnMessage)
		}
		if view.Card != "" {
			fmt.Fprintf(w, "Cartão:        %s\n", view.Card)
		}
		if view.RecurrentPaymentID != "" {
			fmt.Fprintf(w, "Recorrência:   %s\n", view.RecurrentPaymentID)
		}
		if p := txn.Payment; p.URL != "" {
			fmt.Fprintf(w, "URL:           %s\n", p.URL)
		}
		if p := txn.Payment; p.DigitableLine != "" {
			fmt.Fprintf(w, "Linha digitável: %s\n", p.DigitableLine)
		}
	})
}
