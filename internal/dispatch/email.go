// File: internal/dispatch/email.go
package dispatch

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/models"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// EmailChannel delivers alerts over SMTP
type EmailChannel struct {
	config config.EmailConfig
	auth   smtp.Auth
	logger *logrus.Logger
}

// NewEmailChannel creates a new email channel
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}

	return &EmailChannel{
		config: cfg,
		auth:   auth,
		logger: utils.GetLogger(),
	}
}

// Name returns the channel identifier
func (c *EmailChannel) Name() string {
	return models.ChannelEmail
}

// Send delivers one alert email. The recipient token is resolved to an
// address by the mail gateway; urgent alerts carry a high-priority header.
func (c *EmailChannel) Send(ctx context.Context, recipient string, urgency models.Urgency, message string) error {
	subject := "Ticket Alert"
	if urgency == models.UrgencyHigh {
		subject = "URGENT: Ticket Alert"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("From: %s\r\n", c.config.From))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", recipient))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	if urgency == models.UrgencyHigh {
		builder.WriteString("X-Priority: 1\r\n")
	}
	builder.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	builder.WriteString("\r\n")
	builder.WriteString(message)
	builder.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", c.config.SMTPHost, c.config.SMTPPort)

	// net/smtp has no context support; honor cancellation before dialing
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := smtp.SendMail(addr, c.auth, c.config.From, []string{recipient}, []byte(builder.String())); err != nil {
		return utils.NewAppError(utils.ErrCodeDispatch, "Failed to send email", err.Error())
	}

	c.logger.Debug("Email alert sent", "recipient", recipient, "urgency", urgency)
	return nil
}
