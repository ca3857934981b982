package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

// Handler turns order events into customer emails via the email
// service.
type Handler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

// HandleOrderPlaced sends the order receipt.
func (h *Handler) HandleOrderPlaced(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	if event.Email == "" {
		h.logger.Warn("order has no customer email, skipping receipt", "order_id", event.OrderID)
		return nil
	}

	if err := h.sendEmail(ctx, map[string]string{
		"to":      event.Email,
		"subject": "Your Gwangju Cafe receipt: " + event.OrderID,
		"body":    receiptBody(event),
	}); err != nil {
		h.logger.Error("failed to send receipt email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send receipt email: %w", err)
	}

	h.logger.Info("receipt sent", "order_id", event.OrderID)
	return nil
}

// HandleOrderStatus sends a progress update when staff move an order
// along.
func (h *Handler) HandleOrderStatus(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order status event: %w", err)
	}

	h.logger.Info("processing order status event", "order_id", event.OrderID, "status", event.Status)

	if event.Email == "" {
		h.logger.Warn("order has no customer email, skipping update", "order_id", event.OrderID)
		return nil
	}

	if err := h.sendEmail(ctx, map[string]string{
		"to":      event.Email,
		"subject": fmt.Sprintf("Order %s update: %s", event.OrderID, event.Status),
		"body":    statusBody(event),
	}); err != nil {
		h.logger.Error("failed to send status email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send status email: %w", err)
	}

	h.logger.Info("status update sent", "order_id", event.OrderID, "status", event.Status)
	return nil
}

func receiptBody(event domain.OrderPlacedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order!\n\nOrder %s\n\n", event.OrderID)
	for _, item := range event.Items {
		if item.Bonus {
			fmt.Fprintf(&b, "%dx %s (free)\n", item.Quantity, item.Display())
			continue
		}
		fmt.Fprintf(&b, "%dx %s - %d\n", item.Quantity, item.Display(), item.Subtotal())
	}
	fmt.Fprintf(&b, "\nTotal: %d pesos\n", event.FinalTotal)
	return b.String()
}

func statusBody(event domain.OrderStatusEvent) string {
	switch event.Status {
	case domain.OrderStatusPreparing:
		return fmt.Sprintf("Your order %s is now being prepared.", event.OrderID)
	case domain.OrderStatusOutForDelivery:
		return fmt.Sprintf("Your order %s is out for delivery.", event.OrderID)
	case domain.OrderStatusCompleted:
		return fmt.Sprintf("Your order %s has been delivered. Enjoy!", event.OrderID)
	case domain.OrderStatusReceived:
		return fmt.Sprintf("Thanks for confirming order %s. See you again soon!", event.OrderID)
	default:
		return fmt.Sprintf("Your order %s is now %s.", event.OrderID, event.Status)
	}
}

func (h *Handler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
