package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gwangju-cafe/cafe-backend/internal/messaging"
	"github.com/gwangju-cafe/cafe-backend/internal/notifier"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	emailServiceURL := os.Getenv("EMAIL_SERVICE_URL")
	if emailServiceURL == "" {
		logger.Error("EMAIL_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")

	placedConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderPlaced, "cafe-notifier")
	defer func() { _ = placedConsumer.Close() }()

	statusConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderStatus, "cafe-notifier")
	defer func() { _ = statusConsumer.Close() }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	handler := notifier.NewHandler(emailServiceURL, httpClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting notifier", "brokers", brokers)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := placedConsumer.Consume(ctx, handler.HandleOrderPlaced); err != nil && ctx.Err() == nil {
			logger.Error("order placed consumer error", "error", err)
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		if err := statusConsumer.Consume(ctx, handler.HandleOrderStatus); err != nil && ctx.Err() == nil {
			logger.Error("order status consumer error", "error", err)
			cancel()
		}
	}()

	wg.Wait()
	logger.Info("consumers stopped")
}
