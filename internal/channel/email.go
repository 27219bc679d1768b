package channel

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/oncallhq/pager-api/internal/model"
)

// EmailConfig holds SMTP settings for the email dispatcher.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type emailDispatcher struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailDispatcher(cfg EmailConfig) Dispatcher {
	return &emailDispatcher{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (d *emailDispatcher) Channel() model.Channel {
	return model.ChannelEmail
}

func (d *emailDispatcher) Send(ctx context.Context, target *model.User, page *Page) error {
	if target.Email == nil || *target.Email == "" {
		return &NoContactError{Channel: model.ChannelEmail, Field: "email address"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", *target.Email)
	m.SetHeader("Subject", page.Subject())
	m.SetBody("text/plain", fmt.Sprintf(
		"You are being paged for alert %s (policy %q, step %d, attempt %d).\n"+
			"Acknowledge, resolve or snooze the alert to stop further pages.\n",
		page.AlertGroupID, page.PolicyName, page.StepOrder, page.AttemptNumber))

	if err := d.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
