package channel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/oncallhq/pager-api/internal/model"
)

type voiceDispatcher struct {
	cfg    GatewayConfig
	client *http.Client
}

// NewVoiceDispatcher places IVR calls through the telephony gateway's
// /v1/calls endpoint. The ack token rides in the IVR callback URL.
func NewVoiceDispatcher(cfg GatewayConfig) Dispatcher {
	return &voiceDispatcher{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *voiceDispatcher) Channel() model.Channel {
	return model.ChannelVoice
}

func (d *voiceDispatcher) Send(ctx context.Context, target *model.User, page *Page) error {
	if target.Phone == nil || *target.Phone == "" {
		return &NoContactError{Channel: model.ChannelVoice, Field: "phone number"}
	}

	body := map[string]interface{}{
		"to":           *target.Phone,
		"say":          fmt.Sprintf("You are being paged for %s. Press 1 to acknowledge.", page.AlertTitle),
		"callback_url": fmt.Sprintf("%s/ivr/%s", d.cfg.CallbackBaseURL, page.AckToken),
	}
	return postGateway(ctx, d.client, d.cfg, "/v1/calls", body)
}
