package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/magnani/cielo-ecommerce/internal/ports"
)

// NotificationPath é o endpoint cadastrado no painel da Cielo como URL de notificação
const NotificationPath = "/api/notifications/cielo"

// NewRouter cria o router chi com todas as rotas montadas.
// notifications recebe o post de notificação do gateway.
func NewRouter(gateway ports.PaymentGateway, notifications http.Handler, logger *slog.Logger) http.Handler {
	payments := NewPaymentHandler(gateway, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(payments.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", HealthCheck)
	r.Get("/api/health", HealthCheck)

	r.Method(http.MethodPost, NotificationPath, notifications)
	r.Get("/api/payments/{paymentId}", payments.GetPayment)

	return r
}

// requestLogger registra cada requisição no slog
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "requisição HTTP",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
