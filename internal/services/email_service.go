package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/faycr/accounts/pkg/logger"
)

// EmailSender delivers transactional account emails. One attempt per call, no
// retry policy.
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, to, username, code string) error
	SendWelcomeEmail(ctx context.Context, to, username string) error
	TestConnection(ctx context.Context) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, fromName string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
		logger:      logger,
	}, nil
}

// SendVerificationEmail delivers the 6-digit code used to prove email ownership
func (s *AWSSESEmailService) SendVerificationEmail(ctx context.Context, to, username, code string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .code { font-size: 36px; font-weight: bold; color: #0066cc; letter-spacing: 8px; text-align: center; padding: 20px; border: 2px dashed #0066cc; border-radius: 8px; margin: 20px 0; }
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Verify Your Email Address</h1>
        </div>
        <p>Hi %s,</p>
        <p>Welcome! Enter the code below to complete your registration:</p>
        <div class="code">%s</div>
        <div class="warning">
            <strong>Security notice:</strong> this code expires in 15 minutes. Never share it with anyone.
        </div>
        <p>If you didn't create this account, you can ignore this email.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, username, code)

	textBody := fmt.Sprintf(`Verify Your Email Address

Hi %s,

Welcome! Enter the code below to complete your registration:

%s

This code expires in 15 minutes. Never share it with anyone.
If you didn't create this account, you can ignore this email.

This is an automated message. Please do not reply to this email.
`, username, code)

	return s.send(ctx, to, "Verify your email address", htmlBody, textBody)
}

// SendWelcomeEmail delivers a post-verification welcome note
func (s *AWSSESEmailService) SendWelcomeEmail(ctx context.Context, to, username string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; text-align: center; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Welcome aboard, %s!</h1>
        <p>Your account has been verified and is ready to use.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, username)

	textBody := fmt.Sprintf("Welcome aboard, %s! Your account has been verified and is ready to use.\n", username)

	return s.send(ctx, to, "Welcome! Your account is verified", htmlBody, textBody)
}

// TestConnection verifies the SES client can reach the service with the
// configured credentials.
func (s *AWSSESEmailService) TestConnection(ctx context.Context) error {
	_, err := s.sesClient.GetSendQuota(ctx, &ses.GetSendQuotaInput{})
	if err != nil {
		return fmt.Errorf("email service unreachable: %w", err)
	}
	return nil
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("email", pkglogger.SanitizedEmail(to)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
