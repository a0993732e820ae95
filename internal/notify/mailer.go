// Package notify sends transactional email through Amazon SES.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"
)

// Receipt describes a fulfilled credit purchase.
type Receipt struct {
	ToEmail   string
	ToName    string
	PlanName  string
	Credits   int
	Amount    string
	Currency  string
	Available int
}

// SESMailer sends email via SES. A mailer without a sender address is
// disabled and logs instead of sending.
type SESMailer struct {
	client      *sesv2.Client
	fromEmail   string
	fromName    string
	frontendURL string
	log         zerolog.Logger
}

// NewSESMailer loads the default AWS credential chain for region.
func NewSESMailer(ctx context.Context, region, fromEmail, fromName, frontendURL string, log zerolog.Logger) (*SESMailer, error) {
	m := &SESMailer{
		fromEmail:   fromEmail,
		fromName:    fromName,
		frontendURL: frontendURL,
		log:         log.With().Str("component", "mailer").Logger(),
	}
	if fromEmail == "" {
		m.log.Info().Msg("Email disabled: SES_FROM_EMAIL not configured")
		return m, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	m.client = sesv2.NewFromConfig(cfg)

	m.log.Info().Str("from", fromEmail).Str("region", region).Msg("Email enabled")
	return m, nil
}

// Enabled reports whether email is actually sent.
func (m *SESMailer) Enabled() bool {
	return m.client != nil
}

// SendReceipt emails a purchase confirmation.
func (m *SESMailer) SendReceipt(ctx context.Context, r Receipt) error {
	if !m.Enabled() {
		m.log.Debug().Str("to", r.ToEmail).Msg("Skipping receipt email (disabled)")
		return nil
	}

	subject := fmt.Sprintf("Your AutoExamChecker purchase: %s", r.PlanName)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p>Thank you for your purchase of the <strong>%s</strong>.</p>
	<p>%d test credit(s) were added to your account for %s %s. You now have <strong>%d</strong> test(s) available.</p>
	<p><a href="%s/dashboard">Go to your dashboard</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from AutoExamChecker. Please do not reply.</p>
</body>
</html>`, r.ToName, r.PlanName, r.Credits, r.Amount, r.Currency, r.Available, m.frontendURL)

	textBody := fmt.Sprintf(`Hi %s,

Thank you for your purchase of the %s.

%d test credit(s) were added to your account for %s %s.
You now have %d test(s) available.

%s/dashboard

---
This is an automated email from AutoExamChecker. Please do not reply.
`, r.ToName, r.PlanName, r.Credits, r.Amount, r.Currency, r.Available, m.frontendURL)

	return m.send(ctx, r.ToEmail, subject, htmlBody, textBody)
}

func (m *SESMailer) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := m.fromEmail
	if m.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("to", toEmail).Str("message_id", aws.ToString(out.MessageId)).Msg("Email sent")
	return nil
}
