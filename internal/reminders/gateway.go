package reminders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayNotifier delivers reminders through a WhatsApp HTTP gateway.
// The gateway accepts POST /send with a JSON body {"phone": ..., "message": ...}
// and a bearer token.
type GatewayNotifier struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGatewayNotifier builds a notifier against the given gateway URL.
func NewGatewayNotifier(baseURL, token string) *GatewayNotifier {
	return &GatewayNotifier{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one message to the gateway.
func (n *GatewayNotifier) Send(ctx context.Context, phone string, message string) error {
	body, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, payload)
	}
	return nil
}

// LogNotifier writes reminders to the log instead of sending them. Used when
// no gateway is configured, so the rest of the pipeline still runs.
type LogNotifier struct {
	Logf func(phone, message string)
}

// Send records the message through Logf.
func (n *LogNotifier) Send(_ context.Context, phone string, message string) error {
	if n.Logf != nil {
		n.Logf(phone, message)
	}
	return nil
}
