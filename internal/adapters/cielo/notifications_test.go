package cielo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postNotification(h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/cielo", bytes.NewBufferString(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNotificationHandler(t *testing.T) {
	paymentID := uuid.New()
	recurrentID := uuid.New()

	var gotPayment, gotRecurrent, gotAny []domain.Notification
	handler := NewNotificationHandler("", quietLogger())
	handler.OnPaymentStatusChange = func(ctx context.Context, n domain.Notification) error {
		gotPayment = append(gotPayment, n)
		return nil
	}
	handler.OnRecurrentChange = func(ctx context.Context, n domain.Notification) error {
		gotRecurrent = append(gotRecurrent, n)
		return nil
	}
	handler.OnNotification = func(ctx context.Context, n domain.Notification) error {
		gotAny = append(gotAny, n)
		return nil
	}

	t.Run("payment status change", func(t *testing.T) {
		w := postNotification(handler, `{"PaymentId":"`+paymentID.String()+`","ChangeType":1}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if len(gotPayment) != 1 || gotPayment[0].PaymentID != paymentID {
			t.Errorf("Expected payment callback for %s, got %v", paymentID, gotPayment)
		}
		if gotPayment[0].ChangeType != domain.ChangePaymentStatus {
			t.Errorf("Expected ChangeType 1, got %d", gotPayment[0].ChangeType)
		}
	})

	t.Run("recurrent status change", func(t *testing.T) {
		body := `{"PaymentId":"` + paymentID.String() + `","RecurrentPaymentId":"` + recurrentID.String() + `","ChangeType":4}`
		w := postNotification(handler, body, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if len(gotRecurrent) != 1 || gotRecurrent[0].RecurrentPaymentID != recurrentID {
			t.Errorf("Expected recurrent callback for %s, got %v", recurrentID, gotRecurrent)
		}
		if len(gotPayment) != 1 {
			t.Errorf("Recurrent notification must not reach the payment callback")
		}
	})

	t.Run("every valid notification reaches OnNotification", func(t *testing.T) {
		if len(gotAny) != 2 {
			t.Errorf("Expected 2 notifications, got %d", len(gotAny))
		}
	})

	invalid := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"empty body", ``},
		{"missing payment id", `{"ChangeType":1}`},
		{"recurrent without id", `{"PaymentId":"` + paymentID.String() + `","ChangeType":2}`},
		{"unknown change type", `{"PaymentId":"` + paymentID.String() + `","ChangeType":99}`},
		{"malformed id", `{"PaymentId":"abc","ChangeType":1}`},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			w := postNotification(handler, tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/notifications/cielo", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Code)
		}
	})
}

func TestNotificationHandlerSecret(t *testing.T) {
	called := false
	handler := NewNotificationHandler("s3cr3t", quietLogger())
	handler.OnPaymentStatusChange = func(ctx context.Context, n domain.Notification) error {
		called = true
		return nil
	}
	body := `{"PaymentId":"` + uuid.NewString() + `","ChangeType":1}`

	if w := postNotification(handler, body, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without secret, got %d", w.Code)
	}
	if w := postNotification(handler, body, map[string]string{DefaultSecretHeader: "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong secret, got %d", w.Code)
	}
	if called {
		t.Fatal("Callback must not run for unauthenticated notifications")
	}
	if w := postNotification(handler, body, map[string]string{DefaultSecretHeader: "s3cr3t"}); w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with secret, got %d", w.Code)
	}
	if !called {
		t.Error("Expected callback to run")
	}
}

func TestNotificationHandlerCallbackError(t *testing.T) {
	var reported error
	handler := NewNotificationHandler("", quietLogger())
	handler.OnPaymentStatusChange = func(ctx context.Context, n domain.Notification) error {
		return errors.New("banco indisponível")
	}
	handler.OnError = func(ctx context.Context, err error) {
		reported = err
	}

	w := postNotification(handler, `{"PaymentId":"`+uuid.NewString()+`","ChangeType":7}`, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 to avoid resends, got %d", w.Code)
	}
	if reported == nil {
		t.Error("Expected OnError to receive the callback error")
	}
}

type failingBody struct {
	closed bool
}

func (b *failingBody) Read([]byte) (int, error) { return 0, errors.New("conexão interrompida") }
func (b *failingBody) Close() error             { b.closed = true; return nil }

func TestNotificationHandlerClosesBodyOnReadError(t *testing.T) {
	body := &failingBody{}
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/cielo", body)
	w := httptest.NewRecorder()

	NewNotificationHandler("", quietLogger()).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if !body.closed {
		t.Error("Expected request body to be closed")
	}
}
