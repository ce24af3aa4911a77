// Package main é o ponto de entrada da API de notificações e consultas Cielo
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo"
	"github.com/magnani/cielo-ecommerce/internal/config"
	"github.com/magnani/cielo-ecommerce/internal/handlers"
	"github.com/magnani/cielo-ecommerce/internal/logging"
)

func main() {
	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		slog.Error("erro ao carregar configurações", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	client, err := cielo.NewClientFromConfig(&cfg.Cielo, logger)
	if err != nil {
		logger.Error("erro ao inicializar cliente Cielo", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("cliente Cielo inicializado",
		slog.String("env", cfg.Env),
		slog.String("cielo_env", client.Environment().Name),
		slog.Any("merchant", cielo.Merchant{ID: cfg.Cielo.MerchantID, Key: cfg.Cielo.MerchantKey}),
	)

	// Notificações: o post só informa o que mudou, o dispatcher consulta o recurso
	dispatcher := handlers.NewNotificationDispatcher(client, logger)
	dispatcher.RegisterDefaults()

	notifications := cielo.NewNotificationHandler(cfg.Notification.Secret, logger)
	notifications.OnNotification = dispatcher.Dispatch
	if cfg.Notification.Secret == "" {
		logger.Warn("NOTIFICATION_SECRET não configurado, notificações não serão autenticadas")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(client, notifications, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("servidor iniciado",
			slog.String("addr", server.Addr),
			slog.String("health", "/health"),
			slog.String("notifications", handlers.NotificationPath),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("erro ao iniciar servidor", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("erro ao encerrar servidor", slog.String("error", err.Error()))
	}
}
