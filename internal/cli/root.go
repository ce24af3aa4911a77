// Package cli implementa o comando "cielo", que executa as operações do
// gateway a partir do terminal
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo"
	"github.com/magnani/cielo-ecommerce/internal/config"
	"github.com/magnani/cielo-ecommerce/internal/logging"
	"github.com/magnani/cielo-ecommerce/internal/ports"
)

// GatewayFactory cria o cliente do gateway a partir da configuração carregada
type GatewayFactory func(cfg *config.Config, logger *slog.Logger) (ports.PaymentGateway, error)

// App agrupa as dependências dos comandos
type App struct {
	Out        io.Writer
	Err        io.Writer
	NewGateway GatewayFactory

	apiURL    string
	queryURL  string
	requestID string
	output    string
}

// NewApp cria a aplicação escrevendo em stdout/stderr
func NewApp() *App {
	return &App{
		Out:        os.Stdout,
		Err:        os.Stderr,
		NewGateway: defaultGateway,
	}
}

func defaultGateway(cfg *config.Config, logger *slog.Logger) (ports.PaymentGateway, error) {
	return cielo.NewClientFromConfig(&cfg.Cielo, logger)
}

// NewRootCmd monta a árvore de comandos
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cielo",
		Short: "Cliente da API Cielo E-commerce",
		Long: `Executa transações na API Cielo E-commerce.

As credenciais são lidas de CIELO_MERCHANT_ID e CIELO_MERCHANT_KEY (ou do
arquivo .env). CIELO_SANDBOX=false aponta para produção.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&app.output, "output", "o", "text", "Formato da saída: text ou json")
	rootCmd.PersistentFlags().StringVar(&app.apiURL, "api-url", "", "URL base de transações")
	rootCmd.PersistentFlags().StringVar(&app.queryURL, "query-url", "", "URL base de consultas")
	_ = rootCmd.PersistentFlags().MarkHidden("api-url")
	_ = rootCmd.PersistentFlags().MarkHidden("query-url")

	rootCmd.AddCommand(newCreateCmd(app))
	rootCmd.AddCommand(newCaptureCmd(app))
	rootCmd.AddCommand(newCancelCmd(app))
	rootCmd.AddCommand(newConsultCmd(app))
	rootCmd.AddCommand(newConsultOrderCmd(app))
	rootCmd.AddCommand(newRecurrentCmd(app))
	return rootCmd
}

// Execute roda o comando raiz
func Execute(version string) error {
	app := NewApp()
	rootCmd := NewRootCmd(app)
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(app.Err, "Erro:", err)
		return err
	}
	return nil
}

// gateway carrega a configuração e cria o cliente
func (a *App) gateway() (ports.PaymentGateway, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if a.apiURL != "" {
		cfg.Cielo.APIURL = a.apiURL
	}
	if a.queryURL != "" {
		cfg.Cielo.QueryURL = a.queryURL
	}

	logger := logging.NewWithWriter(a.Err, cfg.Logging)
	factory := a.NewGateway
	if factory == nil {
		factory = defaultGateway
	}
	return factory(cfg, logger)
}

// addRequestIDFlag registra --request-id nos comandos que alteram estado
func (a *App) addRequestIDFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.requestID, "request-id", "", "RequestId da tentativa (repita o mesmo valor para reenviar com segurança)")
}

// requestIDFor usa o RequestId informado ou gera um novo, mostrando-o em stderr
func (a *App) requestIDFor() (uuid.UUID, error) {
	if a.requestID != "" {
		id, err := uuid.Parse(a.requestID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("--request-id inválido: %w", err)
		}
		return id, nil
	}
	id := cielo.NewRequestID()
	fmt.Fprintf(a.Err, "RequestId: %s\n", id)
	return id, nil
}

func parseID(name, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s inválido %q: %w", name, s, err)
	}
	return id, nil
}

// print escreve v em JSON ou usa text para a saída legível
func (a *App) print(v any, text func(w io.Writer)) error {
	if a.output == "json" {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.Out)
	return nil
}
