package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oncallhq/pager-api/internal/model"
)

// GatewayConfig points SMS and Voice dispatch at the telephony gateway.
type GatewayConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// CallbackBaseURL is the public base for ack callbacks; the ack token is
	// appended so an inbound reply can be matched to its attempt.
	CallbackBaseURL string `yaml:"callback_base_url"`
}

type smsDispatcher struct {
	cfg    GatewayConfig
	client *http.Client
}

// NewSMSDispatcher sends text pages through the telephony gateway's
// /v1/messages endpoint.
func NewSMSDispatcher(cfg GatewayConfig) Dispatcher {
	return &smsDispatcher{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *smsDispatcher) Channel() model.Channel {
	return model.ChannelSMS
}

func (d *smsDispatcher) Send(ctx context.Context, target *model.User, page *Page) error {
	if target.Phone == nil || *target.Phone == "" {
		return &NoContactError{Channel: model.ChannelSMS, Field: "phone number"}
	}

	body := map[string]interface{}{
		"to": *target.Phone,
		"text": fmt.Sprintf("%s - reply with code %s or visit %s/ack/%s to acknowledge.",
			page.Subject(), page.AckToken, d.cfg.CallbackBaseURL, page.AckToken),
	}
	return postGateway(ctx, d.client, d.cfg, "/v1/messages", body)
}

func postGateway(ctx context.Context, client *http.Client, cfg GatewayConfig, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call telephony gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telephony gateway returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
