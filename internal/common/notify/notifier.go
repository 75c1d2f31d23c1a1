// Package notify sends application lifecycle notifications over SES email and
// SNS SMS.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	"rentdesk/internal/common/config"
	stderrors "rentdesk/internal/common/errors"
	"rentdesk/internal/common/logger"
)

// Event identifies the lifecycle change being announced.
type Event string

const (
	EventApplicationSubmitted Event = "application_submitted"
	EventApplicationApproved  Event = "application_approved"
	EventApplicationDenied    Event = "application_denied"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Recipient is the contact target for a notification. Empty fields disable
// the corresponding channel.
type Recipient struct {
	Email string
	Phone string
}

// Message is the rendered notification content.
type Message struct {
	Subject string
	Body    string
}

// Result reports which channels delivered.
type Result struct {
	NotificationID string `json:"notificationId"`
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"`
}

var templates = map[Event]Message{
	EventApplicationSubmitted: {
		Subject: "Application received for {{propertyName}}",
		Body:    "Your application for {{propertyName}} was received and is pending review.",
	},
	EventApplicationApproved: {
		Subject: "Application approved for {{propertyName}}",
		Body:    "Congratulations! Your application for {{propertyName}} was approved. A lease is ready for you.",
	},
	EventApplicationDenied: {
		Subject: "Application update for {{propertyName}}",
		Body:    "Unfortunately your application for {{propertyName}} was not approved.",
	},
}

type Notifier struct {
	cfg       config.NotificationsConfig
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func New(ctx context.Context, cfg config.NotificationsConfig, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Notifier{
		cfg:       cfg,
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}, nil
}

// NewWithClients injects prebuilt SES/SNS clients, used by tests.
func NewWithClients(cfg config.NotificationsConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:       cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// Send delivers the event to the recipient on every enabled channel. A
// recipient with no reachable channel yields a Result with nothing sent, not
// an error.
func (n *Notifier) Send(ctx context.Context, event Event, rcpt Recipient, data map[string]interface{}) (*Result, error) {
	template, exists := templates[event]
	if !exists {
		return nil, fmt.Errorf("no template for event: %s", event)
	}

	subject := renderTemplate(template.Subject, data)
	body := renderTemplate(template.Body, data)

	result := &Result{
		NotificationID: uuid.New().String(),
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if n.cfg.Email.Enabled && rcpt.Email != "" {
		if err := n.sendEmail(ctx, rcpt.Email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": rcpt.Email,
				"event": string(event),
			})
			return result, stderrors.NewNotificationSendFailedError("email", err)
		}
		result.EmailSent = true
	}

	if n.cfg.SMS.Enabled && rcpt.Phone != "" {
		if err := n.sendSMS(ctx, rcpt.Phone, body); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": rcpt.Phone,
				"event": string(event),
			})
			return result, stderrors.NewNotificationSendFailedError("sms", err)
		}
		result.SMSSent = true
	}

	return result, nil
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
				Html: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func renderTemplate(template string, data map[string]interface{}) string {
	rendered := template
	for key, value := range data {
		placeholder := "{{" + key + "}}"
		rendered = strings.ReplaceAll(rendered, placeholder, fmt.Sprintf("%v", value))
	}
	return rendered
}
