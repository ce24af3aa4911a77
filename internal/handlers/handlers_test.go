package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo"
	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo/cielotest"
	"github.com/magnani/cielo-ecommerce/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupServer(t *testing.T) (*cielo.Client, http.Handler, *NotificationDispatcher) {
	t.Helper()
	gw := cielotest.New(t)
	client, err := gw.NewClient(cielo.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	dispatcher := NewNotificationDispatcher(client, quietLogger())
	dispatcher.RegisterDefaults()
	notifications := cielo.NewNotificationHandler("s3cr3t", quietLogger())
	notifications.OnNotification = dispatcher.Dispatch

	return client, NewRouter(client, notifications, quietLogger()), dispatcher
}

func createPayment(t *testing.T, client *cielo.Client) domain.Transaction {
	t.Helper()
	card := domain.NewCreditCard(cielo.SandboxCardAuthorized, "Comprador Teste",
		time.Date(2030, time.December, 1, 0, 0, 0, 0, time.UTC), "123", domain.BrandVisa)
	txn, err := domain.NewTransaction("pedido-api", domain.NewCustomer("Comprador Teste"),
		domain.NewCreditCardPayment(domain.MustParseAmount("150.08"), card))
	if err != nil {
		t.Fatal(err)
	}
	created, err := client.CreateTransaction(context.Background(), cielo.NewRequestID(), txn)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return *created
}

func TestHealthCheck(t *testing.T) {
	_, router, _ := setupServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: Expected status 200, got %d", path, w.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["status"] != "healthy" {
			t.Errorf("%s: unexpected body %v (%v)", path, body, err)
		}
	}
}

func TestGetPayment(t *testing.T) {
	client, router, _ := setupServer(t)
	created := createPayment(t, client)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/"+created.Payment.PaymentID.String(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var view PaymentView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.Status != "Authorized" || view.StatusCode != 1 {
		t.Errorf("Expected Authorized (1), got %s (%d)", view.Status, view.StatusCode)
	}
	if view.Amount != "150.08" {
		t.Errorf("Expected amount 150.08, got %s", view.Amount)
	}
	if view.MerchantOrderID != "pedido-api" {
		t.Errorf("Expected pedido-api, got %s", view.MerchantOrderID)
	}
	if len(view.AllowedOperations) != 2 || view.AllowedOperations[0] != "capture" || view.AllowedOperations[1] != "cancel" {
		t.Errorf("Expected [capture cancel], got %v", view.AllowedOperations)
	}
	if bytes.Contains(w.Body.Bytes(), []byte(cielo.SandboxCardAuthorized)) {
		t.Error("Response leaked the card number")
	}
}

func TestGetPaymentErrors(t *testing.T) {
	_, router, _ := setupServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"invalid id", "/api/payments/abc", http.StatusBadRequest},
		{"unknown payment", "/api/payments/" + uuid.NewString(), http.StatusNotFound},
		{"nil id", "/api/payments/" + uuid.Nil.String(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("paymentId", "obrigatório"), http.StatusBadRequest},
		{&cielo.ProtocolError{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{&cielo.ProtocolError{StatusCode: http.StatusUnauthorized}, http.StatusBadGateway},
		{&cielo.TransportFault{Kind: cielo.FaultTimeout}, http.StatusServiceUnavailable},
		{errors.New("outro"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusForError(cielo.WrapAPIError("consult", tt.err)); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestNotificationEndpoint(t *testing.T) {
	client, router, dispatcher := setupServer(t)
	created := createPayment(t, client)

	var got domain.Notification
	dispatcher.RegisterHandler(domain.ChangePaymentStatus, func(ctx context.Context, n domain.Notification) error {
		got = n
		return dispatcher.PaymentChanged(ctx, n)
	})

	body := `{"PaymentId":"` + created.Payment.PaymentID.String() + `","ChangeType":1}`

	req := httptest.NewRequest(http.MethodPost, NotificationPath, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without secret, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, NotificationPath, bytes.NewBufferString(body))
	req.Header.Set(cielo.DefaultSecretHeader, "s3cr3t")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got.PaymentID != created.Payment.PaymentID {
		t.Errorf("Expected dispatch for %s, got %s", created.Payment.PaymentID, got.PaymentID)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, NotificationPath, nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestDispatcher(t *testing.T) {
	client, _, dispatcher := setupServer(t)
	ctx := context.Background()

	if err := dispatcher.Dispatch(ctx, domain.Notification{PaymentID: uuid.New(), ChangeType: domain.ChangePaymentStatus}); !cielo.IsNotFound(err) {
		t.Errorf("Expected not found for unknown payment, got %v", err)
	}

	created := createPayment(t, client)
	if err := dispatcher.Dispatch(ctx, domain.Notification{PaymentID: created.Payment.PaymentID, ChangeType: domain.ChangeChargeback}); err != nil {
		t.Errorf("Dispatch() error = %v", err)
	}

	empty := NewNotificationDispatcher(client, quietLogger())
	if err := empty.Dispatch(ctx, domain.Notification{PaymentID: uuid.New(), ChangeType: domain.ChangePaymentStatus}); err != nil {
		t.Errorf("Unhandled notification must not fail, got %v", err)
	}
}
