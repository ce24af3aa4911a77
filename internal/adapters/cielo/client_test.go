package cielo_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo"
	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo/cielotest"
	"github.com/magnani/cielo-ecommerce/internal/domain"
	"github.com/magnani/cielo-ecommerce/internal/ports"
)

var testNow = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, opts ...cielotest.Option) (*cielotest.Gateway, *cielo.Client) {
	t.Helper()
	gw := cielotest.New(t, append([]cielotest.Option{cielotest.WithClock(func() time.Time { return testNow })}, opts...)...)
	client, err := gw.NewClient(cielo.WithLogger(quietLogger()), cielo.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return gw, client
}

func card(number string) domain.CreditCard {
	return domain.NewCreditCard(number, "Comprador Teste", time.Date(2030, time.December, 1, 0, 0, 0, 0, time.UTC), "123", domain.BrandVisa)
}

func cardTransaction(t *testing.T, orderID string, amount string, c domain.CreditCard, opts ...domain.PaymentOption) domain.Transaction {
	t.Helper()
	txn, err := domain.NewTransaction(orderID, domain.NewCustomer("Comprador Teste"),
		domain.NewCreditCardPayment(domain.MustParseAmount(amount), c, opts...))
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	return txn
}

func countRequests(gw *cielotest.Gateway, method, pathPrefix string) int {
	n := 0
	for _, r := range gw.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func TestFullLifecycle(t *testing.T) {
	gw, client := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(), cardTransaction(t, "pedido-1", "150.08", card(cielo.SandboxCardAuthorized)))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	p := created.Payment
	if p.Status != domain.StatusAuthorized {
		t.Fatalf("Expected Authorized, got %s", p.Status)
	}
	if p.PaymentID == uuid.Nil {
		t.Fatal("Expected PaymentId")
	}
	if p.ReturnCode != cielo.ReturnCodeAuthorized {
		t.Errorf("Expected ReturnCode 4, got %s", p.ReturnCode)
	}
	if p.CreditCard.SecurityCode != "" || strings.Contains(p.CreditCard.CardNumber, "7197692931") {
		t.Errorf("Expected masked card data in result, got %+v", p.CreditCard)
	}

	captured, err := client.CaptureTransaction(ctx, cielo.NewRequestID(), p.PaymentID, nil)
	if err != nil {
		t.Fatalf("CaptureTransaction() error = %v", err)
	}
	if captured.Status != domain.StatusPaymentConfirmed || captured.CapturedAmount != domain.MustParseAmount("150.08") {
		t.Errorf("Expected PaymentConfirmed 150.08, got %s %s", captured.Status, captured.CapturedAmount)
	}

	voided, err := client.CancelTransaction(ctx, cielo.NewRequestID(), p.PaymentID, nil)
	if err != nil {
		t.Fatalf("CancelTransaction() error = %v", err)
	}
	if voided.Status != domain.StatusVoided || voided.VoidedAmount != domain.MustParseAmount("150.08") {
		t.Errorf("Expected Voided 150.08, got %s %s", voided.Status, voided.VoidedAmount)
	}

	consulted, err := client.ConsultTransaction(ctx, p.PaymentID)
	if err != nil {
		t.Fatalf("ConsultTransaction() error = %v", err)
	}
	if consulted.Payment.Status != domain.StatusVoided || consulted.MerchantOrderID != "pedido-1" {
		t.Errorf("Expected consulted Voided pedido-1, got %s %s", consulted.Payment.Status, consulted.MerchantOrderID)
	}

	if _, err := client.CancelTransaction(ctx, cielo.NewRequestID(), p.PaymentID, nil); !domain.IsIllegalTransition(err) {
		t.Errorf("Expected illegal transition after void, got %v", err)
	}
	if n := countRequests(gw, http.MethodPut, "/1/sales/"+p.PaymentID.String()+"/void"); n != 1 {
		t.Errorf("Expected a single void on the wire, got %d", n)
	}
}

func TestPartialCapture(t *testing.T) {
	gw, client := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(), cardTransaction(t, "pedido-2", "150.25", card(cielo.SandboxCardAuthorized4)))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	amount := domain.MustParseAmount("25.00")
	captured, err := client.CaptureTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, &amount)
	if err != nil {
		t.Fatalf("CaptureTransaction() error = %v", err)
	}
	if captured.Status != domain.StatusPaymentConfirmed {
		t.Errorf("Expected PaymentConfirmed, got %s", captured.Status)
	}
	if captured.CapturedAmount != 2500 {
		t.Errorf("Expected captured 25.00, got %s", captured.CapturedAmount)
	}
	if captured.CapturableAmount() != 0 {
		t.Errorf("Expected nothing left to capture, got %s", captured.CapturableAmount())
	}

	capturePath := "/1/sales/" + created.Payment.PaymentID.String() + "/capture"
	if n := countRequests(gw, http.MethodPut, capturePath+"?amount=2500"); n != 1 {
		t.Errorf("Expected capture with amount=2500 on the wire, got %d", n)
	}

	_, err = client.CaptureTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, nil)
	var itErr *domain.IllegalTransitionError
	if !errors.As(err, &itErr) {
		t.Fatalf("Expected IllegalTransitionError on re-capture, got %v", err)
	}
	if itErr.From != domain.StatusPaymentConfirmed {
		t.Errorf("Expected From PaymentConfirmed, got %s", itErr.From)
	}
	if n := countRequests(gw, http.MethodPut, capturePath); n != 1 {
		t.Errorf("Illegal re-capture must not reach the wire, got %d captures", n)
	}
}

func TestCaptureAboveAuthorized(t *testing.T) {
	gw, client := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(), cardTransaction(t, "pedido-3", "10.00", card(cielo.SandboxCardAuthorized)))
	if err != nil {
		t.Fatal(err)
	}
	amount := domain.MustParseAmount("10.01")
	if _, err := client.CaptureTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, &amount); !domain.IsInvalidOperation(err) {
		t.Errorf("Expected invalid operation, got %v", err)
	}
	if n := countRequests(gw, http.MethodPut, "/1/sales/"); n != 0 {
		t.Errorf("Expected no mutation on the wire, got %d", n)
	}
}

func TestPartialCancelAfterCapture(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(),
		cardTransaction(t, "pedido-4", "100.00", card(cielo.SandboxCardAuthorized), domain.WithCapture(true)))
	if err != nil {
		t.Fatal(err)
	}
	if created.Payment.Status != domain.StatusPaymentConfirmed || created.Payment.CapturedAmount != 10000 {
		t.Fatalf("Expected captured on create, got %s %s", created.Payment.Status, created.Payment.CapturedAmount)
	}

	first := domain.MustParseAmount("30.00")
	partial, err := client.CancelTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, &first)
	if err != nil {
		t.Fatalf("CancelTransaction() error = %v", err)
	}
	if partial.Status != domain.StatusPaymentConfirmed || partial.VoidedAmount != 3000 {
		t.Errorf("Expected PaymentConfirmed with 30.00 voided, got %s %s", partial.Status, partial.VoidedAmount)
	}

	rest := domain.MustParseAmount("70.00")
	final, err := client.CancelTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, &rest)
	if err != nil {
		t.Fatalf("CancelTransaction() error = %v", err)
	}
	if final.Status != domain.StatusVoided || final.VoidedAmount != 10000 {
		t.Errorf("Expected Voided with 100.00 voided, got %s %s", final.Status, final.VoidedAmount)
	}
}

// dropFirstUpdate encaminha todas as requisições ao gateway, mas descarta a
// resposta do primeiro PUT como se o prazo tivesse expirado
func dropFirstUpdate(t *testing.T) (*cielotest.Gateway, *cielo.Client) {
	t.Helper()
	gw := cielotest.New(t, cielotest.WithClock(func() time.Time { return testNow }))
	inner := cielo.NewHTTPTransportWithClient(gw.HTTPClient())
	var dropped atomic.Bool
	transport := ports.TransportFunc(func(ctx context.Context, req ports.TransportRequest) (*ports.TransportResponse, error) {
		resp, err := inner.Send(ctx, req)
		if req.Method == http.MethodPut && dropped.CompareAndSwap(false, true) {
			return nil, context.DeadlineExceeded
		}
		return resp, err
	})
	client, err := gw.NewClient(cielo.WithTransport(transport), cielo.WithLogger(quietLogger()),
		cielo.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return gw, client
}

func TestPartialCancelRetryWithSameRequestID(t *testing.T) {
	gw, client := dropFirstUpdate(t)
	ctx := context.Background()

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(),
		cardTransaction(t, "pedido-r1", "100.00", card(cielo.SandboxCardAuthorized), domain.WithCapture(true)))
	if err != nil {
		t.Fatal(err)
	}
	id := created.Payment.PaymentID

	requestID := cielo.NewRequestID()
	amount := domain.MustParseAmount("30.00")
	_, err = client.CancelTransaction(ctx, requestID, id, &amount)
	var fault *cielo.TransportFault
	if !errors.As(err, &fault) || fault.Kind != cielo.FaultTimeout || !cielo.IsRetryable(err) {
		t.Fatalf("Expected retryable timeout, got %v", err)
	}

	retried, err := client.CancelTransaction(ctx, requestID, id, &amount)
	if err != nil {
		t.Fatalf("CancelTransaction() retry error = %v", err)
	}
	if retried.Status != domain.StatusPaymentConfirmed || retried.VoidedAmount != 3000 {
		t.Errorf("Expected PaymentConfirmed with 30.00 voided, got %s %s", retried.Status, retried.VoidedAmount)
	}
	if retried.ReturnCode != "6" {
		t.Errorf("Expected ReturnCode 6, got %s", retried.ReturnCode)
	}

	consulted, err := client.ConsultTransaction(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if consulted.Payment.VoidedAmount != retried.VoidedAmount {
		t.Errorf("Expected result to match gateway, got %s vs %s", retried.VoidedAmount, consulted.Payment.VoidedAmount)
	}
	if consulted.Payment.CancelableAmount() != 7000 {
		t.Errorf("Expected 70.00 still cancelable, got %s", consulted.Payment.CancelableAmount())
	}

	replayed := 0
	for _, r := range gw.Requests() {
		if r.Replayed {
			replayed++
		}
	}
	if replayed != 1 {
		t.Errorf("Expected the retry to be replayed once, got %d", replayed)
	}
	if gw.Executions() != 2 {
		t.Errorf("Expected create and one void applied, got %d", gw.Executions())
	}
}

func TestCaptureRetryConfirmedByConsult(t *testing.T) {
	gw, client := dropFirstUpdate(t)
	ctx := context.Background()

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(), cardTransaction(t, "pedido-r2", "100.00", card(cielo.SandboxCardAuthorized)))
	if err != nil {
		t.Fatal(err)
	}
	id := created.Payment.PaymentID

	requestID := cielo.NewRequestID()
	if _, err := client.CaptureTransaction(ctx, requestID, id, nil); !cielo.IsRetryable(err) {
		t.Fatalf("Expected retryable fault, got %v", err)
	}

	// A primeira tentativa foi aplicada: o pagamento já está capturado
	if _, err := client.CaptureTransaction(ctx, requestID, id, nil); !domain.IsIllegalTransition(err) {
		t.Errorf("Expected illegal transition on retry, got %v", err)
	}
	consulted, err := client.ConsultTransaction(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if consulted.Payment.Status != domain.StatusPaymentConfirmed || consulted.Payment.CapturedAmount != 10000 {
		t.Errorf("Expected PaymentConfirmed 100.00, got %s %s", consulted.Payment.Status, consulted.Payment.CapturedAmount)
	}
	if gw.Executions() != 2 {
		t.Errorf("Expected create and one capture applied, got %d", gw.Executions())
	}
}

func TestPartialCancelOfAuthorization(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(), cardTransaction(t, "pedido-5", "100.00", card(cielo.SandboxCardAuthorized)))
	if err != nil {
		t.Fatal(err)
	}
	amount := domain.MustParseAmount("10.00")
	if _, err := client.CancelTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, &amount); !domain.IsInvalidOperation(err) {
		t.Errorf("Expected invalid operation, got %v", err)
	}
}

func TestSandboxDenials(t *testing.T) {
	tests := []struct {
		name       string
		number     string
		returnCode string
	}{
		{"not authorized", cielo.SandboxCardDenied, cielo.ReturnCodeDenied},
		{"expired card", cielo.SandboxCardExpired, cielo.ReturnCodeExpiredCard},
		{"blocked card", cielo.SandboxCardBlocked, cielo.ReturnCodeBlockedCard},
		{"timeout", cielo.SandboxCardTimeout, cielo.ReturnCodeTimeout},
		{"canceled card", cielo.SandboxCardCanceled, cielo.ReturnCodeCanceledCard},
		{"card problems", cielo.SandboxCardProblems, cielo.ReturnCodeCardProblems},
	}

	_, client := newTestClient(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := client.CreateTransaction(context.Background(), cielo.NewRequestID(),
				cardTransaction(t, "pedido-denied", "10.00", card(tt.number)))
			if err != nil {
				t.Fatalf("Denial must be data, got error %v", err)
			}
			if !created.Payment.IsDenied() {
				t.Errorf("Expected Denied, got %s", created.Payment.Status)
			}
			if created.Payment.ReturnCode != tt.returnCode {
				t.Errorf("Expected ReturnCode %s, got %s", tt.returnCode, created.Payment.ReturnCode)
			}
			if !created.Payment.IsTerminal() {
				t.Error("Expected denied payment to be terminal")
			}
		})
	}
}

func TestExpiredCardRejected(t *testing.T) {
	gw, client := newTestClient(t)
	expired := domain.NewCreditCard(cielo.SandboxCardAuthorized, "Comprador Teste",
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), "123", domain.BrandVisa)

	_, err := client.CreateTransaction(context.Background(), cielo.NewRequestID(), cardTransaction(t, "pedido-6", "10.00", expired))
	var protoErr *cielo.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("Expected *ProtocolError, got %v", err)
	}
	if !cielo.HasErrorCode(err, cielo.ErrCodeCardExpirationInvalid) {
		t.Errorf("Expected code 126, got %v", protoErr.Codes())
	}
	if cielo.IsTransportFault(err) || domain.IsValidation(err) {
		t.Error("Gateway rejection must not be a transport fault or validation error")
	}
	if gw.Executions() != 0 {
		t.Errorf("Expected nothing created, got %d executions", gw.Executions())
	}
}

func TestValidationBeforeNetwork(t *testing.T) {
	gw, client := newTestClient(t)
	ctx := context.Background()

	bad := cardTransaction(t, "pedido-7", "10.00", card(cielo.SandboxCardAuthorized))
	bad.Payment.CreditCard.SecurityCode = "1"
	if _, err := client.CreateTransaction(ctx, cielo.NewRequestID(), bad); !domain.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}

	good := cardTransaction(t, "pedido-7", "10.00", card(cielo.SandboxCardAuthorized))
	if _, err := client.CreateTransaction(ctx, uuid.Nil, good); !domain.IsValidation(err) {
		t.Errorf("Expected validation error for missing RequestId, got %v", err)
	}
	if _, err := client.CaptureTransaction(ctx, cielo.NewRequestID(), uuid.Nil, nil); !domain.IsValidation(err) {
		t.Errorf("Expected validation error for missing PaymentId, got %v", err)
	}
	if _, err := client.DeactivateRecurrent(ctx, uuid.Nil, uuid.New()); !domain.IsValidation(err) {
		t.Errorf("Expected validation error for missing RequestId, got %v", err)
	}

	if n := len(gw.Requests()); n != 0 {
		t.Errorf("Expected no requests on the wire, got %d", n)
	}
}

func TestIdempotentCreate(t *testing.T) {
	gw, client := newTestClient(t)
	ctx := context.Background()
	requestID := cielo.NewRequestID()
	txn := cardTransaction(t, "pedido-8", "42.00", card(cielo.SandboxCardAuthorized))

	first, err := client.CreateTransaction(ctx, requestID, txn)
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.CreateTransaction(ctx, requestID, txn)
	if err != nil {
		t.Fatal(err)
	}

	if first.Payment.PaymentID != second.Payment.PaymentID {
		t.Errorf("Expected the same PaymentId on retry, got %s and %s", first.Payment.PaymentID, second.Payment.PaymentID)
	}
	if gw.Executions() != 1 {
		t.Errorf("Expected a single execution, got %d", gw.Executions())
	}

	ids, err := client.ConsultByMerchantOrderID(ctx, "pedido-8")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Errorf("Expected one payment for the order, got %d", len(ids))
	}

	third, err := client.CreateTransaction(ctx, cielo.NewRequestID(), txn)
	if err != nil {
		t.Fatal(err)
	}
	if third.Payment.PaymentID == first.Payment.PaymentID {
		t.Error("Expected a new RequestId to create a new payment")
	}
}

func TestIdempotencyWindowExpires(t *testing.T) {
	var offset atomic.Int64
	clock := func() time.Time { return testNow.Add(time.Duration(offset.Load())) }

	gw := cielotest.New(t, cielotest.WithClock(clock), cielotest.WithIdempotencyTTL(time.Minute))
	client, err := gw.NewClient(cielo.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	requestID := cielo.NewRequestID()
	txn := cardTransaction(t, "pedido-9", "10.00", card(cielo.SandboxCardAuthorized))

	first, err := client.CreateTransaction(ctx, requestID, txn)
	if err != nil {
		t.Fatal(err)
	}
	offset.Store(int64(2 * time.Minute))
	second, err := client.CreateTransaction(ctx, requestID, txn)
	if err != nil {
		t.Fatal(err)
	}
	if first.Payment.PaymentID == second.Payment.PaymentID {
		t.Error("Expected RequestId to be forgotten after the window")
	}
}

func TestConcurrentCreates(t *testing.T) {
	gw, client := newTestClient(t)
	const n = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[uuid.UUID]bool)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := client.CreateTransaction(context.Background(), cielo.NewRequestID(),
				domain.Transaction{
					MerchantOrderID: "pedido-concorrente",
					Customer:        domain.NewCustomer("Comprador Teste"),
					Payment:         domain.NewCreditCardPayment(1000, card(cielo.SandboxCardAuthorized)),
				})
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			ids[created.Payment.PaymentID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("CreateTransaction() error = %v", err)
	}
	if len(ids) != n {
		t.Errorf("Expected %d distinct payments, got %d", n, len(ids))
	}
	if gw.Executions() != n {
		t.Errorf("Expected %d executions, got %d", n, gw.Executions())
	}
}

func TestRecurrentScheduled(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()
	start := testNow.AddDate(0, 0, 7)

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(), cardTransaction(t, "pedido-10", "59.90", card(cielo.SandboxCardAuthorized),
		domain.WithRecurrentPayment(domain.NewRecurrentPayment(domain.IntervalMonthly, &start, nil))))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if created.Payment.Status != domain.StatusScheduled {
		t.Errorf("Expected Scheduled, got %s", created.Payment.Status)
	}
	rp := created.Payment.RecurrentPayment
	if rp == nil || rp.RecurrentPaymentID == uuid.Nil {
		t.Fatalf("Expected RecurrentPaymentId, got %+v", rp)
	}
	if !rp.Active() {
		t.Error("Expected schedule to be active")
	}

	consulted, err := client.ConsultRecurrent(ctx, rp.RecurrentPaymentID)
	if err != nil {
		t.Fatalf("ConsultRecurrent() error = %v", err)
	}
	if consulted.Status != domain.RecurrentStatusActive || consulted.Interval != domain.IntervalMonthly {
		t.Errorf("Expected Active Monthly, got %s %s", consulted.Status, consulted.Interval)
	}
	if consulted.NextRecurrency == nil || consulted.NextRecurrency.Format("2006-01-02") != start.Format("2006-01-02") {
		t.Errorf("Expected next recurrency %s, got %v", start.Format("2006-01-02"), consulted.NextRecurrency)
	}

	if _, err := client.CaptureTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, nil); !domain.IsIllegalTransition(err) {
		t.Errorf("Expected scheduled payment not to be capturable, got %v", err)
	}
}

func TestRecurrentAuthorizeNow(t *testing.T) {
	_, client := newTestClient(t)

	created, err := client.CreateTransaction(context.Background(), cielo.NewRequestID(), cardTransaction(t, "pedido-11", "59.90", card(cielo.SandboxCardAuthorized),
		domain.WithRecurrentPayment(domain.NewRecurrentPayment(domain.IntervalAnnual, nil, nil))))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if created.Payment.Status != domain.StatusAuthorized {
		t.Errorf("Expected Authorized, got %s", created.Payment.Status)
	}
	if created.Payment.RecurrentPayment == nil || created.Payment.RecurrentPayment.RecurrentPaymentID == uuid.Nil {
		t.Error("Expected RecurrentPaymentId")
	}
}

func createRecurrent(t *testing.T, client *cielo.Client) uuid.UUID {
	t.Helper()
	created, err := client.CreateTransaction(context.Background(), cielo.NewRequestID(), cardTransaction(t, "pedido-rec", "59.90", card(cielo.SandboxCardAuthorized),
		domain.WithRecurrentPayment(domain.NewRecurrentPayment(domain.IntervalMonthly, nil, nil))))
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return created.Payment.RecurrentPayment.RecurrentPaymentID
}

func TestDeactivateTwice(t *testing.T) {
	gw, client := newTestClient(t)
	ctx := context.Background()
	id := createRecurrent(t, client)

	for i := 0; i < 2; i++ {
		ok, err := client.DeactivateRecurrent(ctx, cielo.NewRequestID(), id)
		if err != nil {
			t.Fatalf("DeactivateRecurrent() #%d error = %v", i+1, err)
		}
		if !ok {
			t.Errorf("DeactivateRecurrent() #%d = false, want true", i+1)
		}
	}
	if n := countRequests(gw, http.MethodPut, "/1/RecurrentPayment/"+id.String()+"/Deactivate"); n != 1 {
		t.Errorf("Expected one deactivation on the wire, got %d", n)
	}

	consulted, err := client.ConsultRecurrent(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if consulted.Active() {
		t.Errorf("Expected inactive schedule, got %s", consulted.Status)
	}

	ok, err := client.ActivateRecurrent(ctx, cielo.NewRequestID(), id)
	if err != nil || !ok {
		t.Fatalf("ActivateRecurrent() = %v, %v", ok, err)
	}
	consulted, err = client.ConsultRecurrent(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if consulted.Status != domain.RecurrentStatusActive {
		t.Errorf("Expected Active after reactivation, got %s", consulted.Status)
	}

	ok, err = client.ActivateRecurrent(ctx, cielo.NewRequestID(), id)
	if err != nil || !ok {
		t.Errorf("Activating an active schedule should succeed, got %v, %v", ok, err)
	}
	if n := countRequests(gw, http.MethodPut, "/1/RecurrentPayment/"+id.String()+"/Reactivate"); n != 1 {
		t.Errorf("Expected one reactivation on the wire, got %d", n)
	}
}

func TestActivateRecurrentStates(t *testing.T) {
	gw, client := newTestClient(t)
	ctx := context.Background()

	expired := createRecurrent(t, client)
	gw.SetRecurrentStatus(expired, domain.RecurrentStatusDisabledExpiredCard)
	if ok, err := client.ActivateRecurrent(ctx, cielo.NewRequestID(), expired); err != nil || !ok {
		t.Errorf("Expected reactivation of a disabled schedule, got %v, %v", ok, err)
	}

	finished := createRecurrent(t, client)
	gw.SetRecurrentStatus(finished, domain.RecurrentStatusFinished)
	if _, err := client.ActivateRecurrent(ctx, cielo.NewRequestID(), finished); !domain.IsIllegalTransition(err) {
		t.Errorf("Expected illegal transition for finished schedule, got %v", err)
	}

	if _, err := client.ConsultRecurrent(ctx, uuid.New()); !cielo.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestBoletoAndTransfer(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()
	customer := domain.NewCustomer("Comprador Boleto").WithAddress(domain.Address{
		Street: "Rua Teste", Number: "123", ZipCode: "12345987",
		City: "Rio de Janeiro", State: "RJ", Country: "BRA",
	})

	boleto, err := domain.NewTransaction("pedido-boleto", customer, domain.NewBoletoPayment(
		domain.MustParseAmount("157.00"), domain.ProviderBradesco2, domain.Boleto{
			Number:         "123",
			Assignor:       "Empresa Teste",
			Instructions:   "Não pagar após o vencimento",
			ExpirationDate: testNow.AddDate(0, 0, 5),
		}))
	if err != nil {
		t.Fatal(err)
	}
	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(), boleto)
	if err != nil {
		t.Fatalf("CreateTransaction(boleto) error = %v", err)
	}
	if created.Payment.Status != domain.StatusAuthorized {
		t.Errorf("Expected boleto Authorized, got %s", created.Payment.Status)
	}
	if created.Payment.BarCodeNumber == "" || created.Payment.DigitableLine == "" || created.Payment.URL == "" {
		t.Errorf("Expected bar code, digitable line and URL, got %+v", created.Payment)
	}
	if _, err := client.CaptureTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, nil); !domain.IsIllegalTransition(err) {
		t.Errorf("Expected boleto not to be capturable, got %v", err)
	}

	transfer, err := domain.NewTransaction("pedido-transfer", domain.NewCustomer("Comprador"),
		domain.NewTransferPayment(domain.MustParseAmount("157.00"), domain.ProviderBradesco, "https://loja.example/retorno"))
	if err != nil {
		t.Fatal(err)
	}
	createdTransfer, err := client.CreateTransaction(ctx, cielo.NewRequestID(), transfer)
	if err != nil {
		t.Fatalf("CreateTransaction(transfer) error = %v", err)
	}
	if createdTransfer.Payment.Status != domain.StatusNotFinished || createdTransfer.Payment.URL == "" {
		t.Errorf("Expected NotFinished with redirect URL, got %s %q", createdTransfer.Payment.Status, createdTransfer.Payment.URL)
	}
}

func TestCardTokenization(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(),
		cardTransaction(t, "pedido-token", "10.00", card(cielo.SandboxCardAuthorized).WithSaveCard(true)))
	if err != nil {
		t.Fatal(err)
	}
	token := created.Payment.CreditCard.CardToken
	if token == uuid.Nil {
		t.Fatal("Expected CardToken")
	}

	again, err := client.CreateTransaction(ctx, cielo.NewRequestID(),
		cardTransaction(t, "pedido-token-2", "20.00", domain.NewTokenizedCard(token, domain.BrandVisa)))
	if err != nil {
		t.Fatalf("CreateTransaction(token) error = %v", err)
	}
	if again.Payment.Status != domain.StatusAuthorized {
		t.Errorf("Expected Authorized with token, got %s", again.Payment.Status)
	}

	_, err = client.CreateTransaction(ctx, cielo.NewRequestID(),
		cardTransaction(t, "pedido-token-3", "20.00", domain.NewTokenizedCard(uuid.New(), domain.BrandVisa)))
	var protoErr *cielo.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Errorf("Expected rejection for unknown token, got %v", err)
	}
}

func TestConsultLookups(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.ConsultTransaction(ctx, uuid.New()); !cielo.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if _, err := client.ConsultByMerchantOrderID(ctx, "inexistente"); !cielo.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if _, err := client.ConsultByMerchantOrderID(ctx, ""); !domain.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := client.CreateTransaction(ctx, cielo.NewRequestID(), cardTransaction(t, "pedido-multi", "10.00", card(cielo.SandboxCardAuthorized))); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := client.ConsultByMerchantOrderID(ctx, "pedido-multi")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("Expected 2 payments, got %d", len(ids))
	}
}

func TestUnauthorizedMerchant(t *testing.T) {
	gw := cielotest.New(t)
	client, err := cielo.NewClient(gw.Environment(), cielo.Merchant{ID: cielotest.MerchantID, Key: "errada"},
		cielo.WithTransport(cielo.NewHTTPTransportWithClient(gw.HTTPClient())), cielo.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.ConsultTransaction(context.Background(), uuid.New())
	if !cielo.IsUnauthorized(err) {
		t.Errorf("Expected unauthorized, got %v", err)
	}
}

func TestTransportFaults(t *testing.T) {
	txn := cardTransaction(t, "pedido-fault", "10.00", card(cielo.SandboxCardAuthorized))

	tests := []struct {
		name      string
		transport ports.TransportFunc
		wantKind  cielo.FaultKind
	}{
		{
			name: "no response",
			transport: func(ctx context.Context, req ports.TransportRequest) (*ports.TransportResponse, error) {
				return nil, errors.New("connection reset by peer")
			},
			wantKind: cielo.FaultConnection,
		},
		{
			name: "server error",
			transport: func(ctx context.Context, req ports.TransportRequest) (*ports.TransportResponse, error) {
				return &ports.TransportResponse{StatusCode: http.StatusServiceUnavailable}, nil
			},
			wantKind: cielo.FaultServer,
		},
		{
			name: "malformed success body",
			transport: func(ctx context.Context, req ports.TransportRequest) (*ports.TransportResponse, error) {
				return &ports.TransportResponse{StatusCode: http.StatusCreated, Body: []byte(`{"Payment":`)}, nil
			},
			wantKind: cielo.FaultMalformedResponse,
		},
		{
			name: "success without status",
			transport: func(ctx context.Context, req ports.TransportRequest) (*ports.TransportResponse, error) {
				return &ports.TransportResponse{StatusCode: http.StatusCreated, Body: []byte(`{"Payment":{"PaymentId":"` + uuid.NewString() + `"}}`)}, nil
			},
			wantKind: cielo.FaultMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := cielo.NewClient(cielo.Sandbox, cielo.Merchant{ID: "id", Key: "key"},
				cielo.WithTransport(tt.transport), cielo.WithLogger(quietLogger()))
			if err != nil {
				t.Fatal(err)
			}
			_, err = client.CreateTransaction(context.Background(), cielo.NewRequestID(), txn)
			var fault *cielo.TransportFault
			if !errors.As(err, &fault) {
				t.Fatalf("Expected *TransportFault, got %v", err)
			}
			if fault.Kind != tt.wantKind {
				t.Errorf("Expected %s, got %s", tt.wantKind, fault.Kind)
			}
			if !cielo.IsRetryable(err) {
				t.Error("Expected fault to be retryable")
			}
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	requestID := cielo.NewRequestID()
	var got ports.TransportRequest
	transport := ports.TransportFunc(func(ctx context.Context, req ports.TransportRequest) (*ports.TransportResponse, error) {
		got = req
		return nil, errors.New("stop")
	})
	client, err := cielo.NewClient(cielo.Sandbox, cielo.Merchant{ID: "merchant", Key: "secret"},
		cielo.WithTransport(transport), cielo.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	_, _ = client.CreateTransaction(context.Background(), requestID, cardTransaction(t, "pedido-h", "10.00", card(cielo.SandboxCardAuthorized)))

	if got.Method != http.MethodPost || got.URL != cielo.APIURLSandbox+"1/sales/" {
		t.Errorf("Unexpected request %s %s", got.Method, got.URL)
	}
	if got.Header.Get(cielo.HeaderMerchantID) != "merchant" || got.Header.Get(cielo.HeaderMerchantKey) != "secret" {
		t.Errorf("Missing merchant headers: %v", got.Header)
	}
	if got.Header.Get(cielo.HeaderRequestID) != requestID.String() {
		t.Errorf("Expected RequestId %s, got %s", requestID, got.Header.Get(cielo.HeaderRequestID))
	}
	if !strings.Contains(string(got.Body), `"CardNumber":"`+cielo.SandboxCardAuthorized+`"`) {
		t.Errorf("Expected card number in body, got %s", got.Body)
	}
	if !strings.Contains(string(got.Body), `"Amount":1000`) {
		t.Errorf("Expected amount in cents, got %s", got.Body)
	}
}

func TestCanceledContext(t *testing.T) {
	gw, client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateTransaction(ctx, cielo.NewRequestID(), cardTransaction(t, "pedido-ctx", "10.00", card(cielo.SandboxCardAuthorized)))
	var fault *cielo.TransportFault
	if !errors.As(err, &fault) || fault.Kind != cielo.FaultCanceled {
		t.Fatalf("Expected canceled fault, got %v", err)
	}
	if cielo.IsRetryable(err) {
		t.Error("Expected canceled wait not to be retryable")
	}
	if gw.Executions() != 0 {
		t.Errorf("Expected nothing executed, got %d", gw.Executions())
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := cielo.NewClient(cielo.Sandbox, cielo.Merchant{Key: "k"}); !domain.IsValidation(err) {
		t.Errorf("Expected validation error without MerchantId, got %v", err)
	}
	if _, err := cielo.NewClient(cielo.Sandbox, cielo.Merchant{ID: "m"}); !domain.IsValidation(err) {
		t.Errorf("Expected validation error without MerchantKey, got %v", err)
	}
}
