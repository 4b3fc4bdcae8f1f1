// Package classify fires the post-ingestion tier-classification hook.
// Requests are best-effort: failures are logged and never surface into
// the upload outcome or block the dialog.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Client calls the external classification service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a classification client. timeout <= 0 defaults to 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ClassifyLead requests classification of one lead.
func (c *Client) ClassifyLead(ctx context.Context, tenantID, leadID string) error {
	payload, _ := json.Marshal(map[string]string{
		"lead_id":   leadID,
		"tenant_id": tenantID,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classify lead %s: %w", leadID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("classify lead %s: status %d", leadID, resp.StatusCode)
	}
	return nil
}

// Notifier adapts Client to the engine's fire-and-forget hook: one
// asynchronous request per created lead, failures logged only.
type Notifier struct {
	client *Client
}

// NewNotifier wraps a client for use as a reconcile.Notifier.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// LeadsCreated issues classification requests in a background goroutine
// and returns immediately.
func (n *Notifier) LeadsCreated(tenantID string, leadIDs []string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		failed := 0
		for _, id := range leadIDs {
			if err := n.client.ClassifyLead(ctx, tenantID, id); err != nil {
				failed++
				log.Printf("[classify] %v", err)
			}
		}
		if failed > 0 {
			log.Printf("[classify] tenant %s: %d/%d classification requests failed",
				tenantID, failed, len(leadIDs))
		}
	}()
}
