package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo"
	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo/cielotest"
	"github.com/magnani/cielo-ecommerce/internal/domain"
	"github.com/magnani/cielo-ecommerce/internal/handlers"
)

const cardOrder = `merchantOrderId: pedido-cli
customer:
  name: Comprador Teste
payment:
  type: CreditCard
  amount: "150.25"
  installments: 1
  softDescriptor: LOJA
  creditCard:
    cardNumber: "4024007197692931"
    holder: Comprador Teste
    expirationDate: 12/2030
    securityCode: "123"
    brand: Visa
`

const recurrentOrder = `merchantOrderId: pedido-recorrente
customer:
  name: Comprador Teste
payment:
  type: CreditCard
  amount: "59.90"
  creditCard:
    cardNumber: "4024007197692931"
    holder: Comprador Teste
    expirationDate: 12/2030
    securityCode: "123"
    brand: Visa
  recurrentPayment:
    interval: Monthly
`

type cliEnv struct {
	t  *testing.T
	gw *cielotest.Gateway
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	gw := cielotest.New(t)
	t.Setenv("CIELO_MERCHANT_ID", cielotest.MerchantID)
	t.Setenv("CIELO_MERCHANT_KEY", cielotest.MerchantKey)
	t.Setenv("CIELO_API_URL", "")
	t.Setenv("CIELO_QUERY_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
	return &cliEnv{t: t, gw: gw}
}

// run executa o comando e retorna stdout
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp()
	app.Out = &out
	app.Err = &errOut

	root := NewRootCmd(app)
	base := []string{"--api-url", e.gw.URL() + "/", "--query-url", e.gw.URL() + "/"}
	root.SetArgs(append(base, args...))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func (e *cliEnv) runView(args ...string) handlers.PaymentView {
	e.t.Helper()
	out, err := e.run(append(args, "-o", "json")...)
	if err != nil {
		e.t.Fatalf("%v: %v", args, err)
	}
	var view handlers.PaymentView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		e.t.Fatalf("invalid json output %q: %v", out, err)
	}
	return view
}

func writeOrder(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pedido.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIPaymentLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	order := writeOrder(t, cardOrder)

	created := env.runView("create", "--file", order)
	if created.Status != "Authorized" {
		t.Fatalf("Expected Authorized, got %s", created.Status)
	}

	captured := env.runView("capture", created.PaymentID, "--amount", "25.00")
	if captured.Status != "PaymentConfirmed" || captured.CapturedAmount != "25.00" {
		t.Errorf("Expected PaymentConfirmed 25.00, got %s %s", captured.Status, captured.CapturedAmount)
	}

	if _, err := env.run("capture", created.PaymentID); !domain.IsIllegalTransition(err) {
		t.Errorf("Expected illegal transition on re-capture, got %v", err)
	}

	voided := env.runView("cancel", created.PaymentID)
	if voided.Status != "Voided" {
		t.Errorf("Expected Voided, got %s", voided.Status)
	}

	consulted := env.runView("consult", created.PaymentID)
	if consulted.Status != "Voided" || consulted.MerchantOrderID != "pedido-cli" {
		t.Errorf("Expected Voided pedido-cli, got %s %s", consulted.Status, consulted.MerchantOrderID)
	}

	out, err := env.run("consult-order", "pedido-cli")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != created.PaymentID {
		t.Errorf("Expected %s, got %q", created.PaymentID, out)
	}
}

func TestCLIRequestIDRetry(t *testing.T) {
	env := newCLIEnv(t)
	order := writeOrder(t, cardOrder)
	requestID := cielo.NewRequestID().String()

	first := env.runView("create", "--file", order, "--request-id", requestID)
	second := env.runView("create", "--file", order, "--request-id", requestID)
	if first.PaymentID != second.PaymentID {
		t.Errorf("Expected the same PaymentId, got %s and %s", first.PaymentID, second.PaymentID)
	}
	if env.gw.Executions() != 1 {
		t.Errorf("Expected a single execution, got %d", env.gw.Executions())
	}

	if _, err := env.run("create", "--file", order, "--request-id", "abc"); err == nil {
		t.Error("Expected error for invalid --request-id")
	}
}

func TestCLIRecurrent(t *testing.T) {
	env := newCLIEnv(t)
	order := writeOrder(t, recurrentOrder)

	created := env.runView("create", "--file", order)
	if created.RecurrentPaymentID == "" {
		t.Fatal("Expected RecurrentPaymentId")
	}

	for i := 0; i < 2; i++ {
		out, err := env.run("recurrent", "deactivate", created.RecurrentPaymentID, "-o", "json")
		if err != nil {
			t.Fatalf("deactivate #%d: %v", i+1, err)
		}
		var view toggleView
		if err := json.Unmarshal([]byte(out), &view); err != nil {
			t.Fatal(err)
		}
		if !view.Success {
			t.Errorf("deactivate #%d: Expected success", i+1)
		}
	}

	out, err := env.run("recurrent", "consult", created.RecurrentPaymentID, "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var view recurrentView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatal(err)
	}
	if view.Status != "DeactivatedByMerchant" || view.Interval != "Monthly" {
		t.Errorf("Expected DeactivatedByMerchant Monthly, got %s %s", view.Status, view.Interval)
	}

	if _, err := env.run("recurrent", "activate", created.RecurrentPaymentID); err != nil {
		t.Errorf("activate: %v", err)
	}
}

func TestCLIErrors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing file flag", []string{"create"}},
		{"missing file", []string{"create", "--file", filepath.Join(t.TempDir(), "nada.yaml")}},
		{"invalid payment id", []string{"consult", "abc"}},
		{"invalid amount", []string{"capture", cielo.NewRequestID().String(), "--amount", "abc"}},
		{"extra args", []string{"consult", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.run(tt.args...); err == nil {
				t.Error("Expected error")
			}
		})
	}

	if _, err := env.run("consult", cielo.NewRequestID().String()); !cielo.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if len(env.gw.Requests()) != 1 {
		t.Errorf("Expected only the consult to reach the gateway, got %d requests", len(env.gw.Requests()))
	}
}

func TestParseOrder(t *testing.T) {
	txn, err := ParseOrder([]byte(cardOrder))
	if err != nil {
		t.Fatalf("ParseOrder() error = %v", err)
	}
	if txn.MerchantOrderID != "pedido-cli" || txn.Payment.Amount != 15025 {
		t.Errorf("Unexpected transaction %s %s", txn.MerchantOrderID, txn.Payment.Amount)
	}
	if txn.Payment.CreditCard == nil || txn.Payment.CreditCard.Brand != domain.BrandVisa {
		t.Errorf("Expected Visa card, got %+v", txn.Payment.CreditCard)
	}

	boleto := `merchantOrderId: pedido-boleto
customer:
  name: Comprador
  address:
    street: Rua Teste
    number: "123"
    zipCode: "12345987"
    city: Rio de Janeiro
    state: RJ
    country: BRA
payment:
  type: Boleto
  amount: "157.00"
  boleto:
    number: "123"
    expirationDate: "2026-10-20"
`
	txn, err = ParseOrder([]byte(boleto))
	if err != nil {
		t.Fatalf("ParseOrder(boleto) error = %v", err)
	}
	if txn.Payment.Provider != domain.ProviderBradesco2 {
		t.Errorf("Expected default boleto provider, got %s", txn.Payment.Provider)
	}

	invalid := []struct {
		name      string
		order     string
		wantField string
	}{
		{"bad amount", strings.Replace(cardOrder, `"150.25"`, `"abc"`, 1), "payment.amount"},
		{"bad brand", strings.Replace(cardOrder, "brand: Visa", "brand: Nenhuma", 1), "creditCard.brand"},
		{"missing order id", strings.Replace(cardOrder, "merchantOrderId: pedido-cli", "merchantOrderId: \"\"", 1), "merchantOrderId"},
		{"bad interval", strings.Replace(recurrentOrder, "interval: Monthly", "interval: Daily", 1), "payment.recurrentPayment.interval"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrder([]byte(tt.order))
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Expected field %s, got %s", tt.wantField, vErr.Field)
			}
		})
	}
}
