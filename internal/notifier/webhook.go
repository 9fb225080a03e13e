package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookNotifier posts messages to a chat webhook (Slack, Mattermost and
// Rocket.Chat all accept the {"text": ...} payload).
type WebhookNotifier struct {
	name   string
	url    string
	client *http.Client
}

func NewWebhookNotifier(name, url string) (*WebhookNotifier, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook notifier '%s' is missing a URL", name)
	}
	return &WebhookNotifier{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (wn *WebhookNotifier) Name() string {
	return wn.name
}

func (wn *WebhookNotifier) Send(text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, wn.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
