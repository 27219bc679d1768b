package channel

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/oncallhq/pager-api/internal/model"
)

// SlackConfig holds Slack API credentials.
type SlackConfig struct {
	Token string `yaml:"token"`
}

type slackDispatcher struct {
	client *slack.Client
}

// NewSlackDispatcher pages users by direct message via the Slack Web API.
func NewSlackDispatcher(cfg SlackConfig) Dispatcher {
	return &slackDispatcher{client: slack.New(cfg.Token)}
}

func (d *slackDispatcher) Channel() model.Channel {
	return model.ChannelSlack
}

func (d *slackDispatcher) Send(ctx context.Context, target *model.User, page *Page) error {
	if target.SlackUserID == nil || *target.SlackUserID == "" {
		return &NoContactError{Channel: model.ChannelSlack, Field: "slack user id"}
	}

	text := fmt.Sprintf("*%s*\nstep %d, attempt %d - acknowledge, resolve or snooze the alert to stop paging.",
		page.Subject(), page.StepOrder, page.AttemptNumber)

	_, _, err := d.client.PostMessageContext(ctx, *target.SlackUserID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}
