// internal/notification/transport.go
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/resend/resend-go/v3"

	awsclient "usahud-crm/internal/common/aws"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/models"
)

// EmailSender delivers a rendered email and returns the provider message id.
type EmailSender interface {
	SendEmail(ctx context.Context, payload models.EmailPayload) (string, error)
}

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// ==========================
// Endpoint transport
// ==========================

type endpointResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// EndpointSender POSTs the payload to a single email endpoint such as /api/send-email.
type EndpointSender struct {
	client *httpclient.Client
	url    string
}

func NewEndpointSender(client *httpclient.Client, url string) *EndpointSender {
	return &EndpointSender{client: client, url: url}
}

func (s *EndpointSender) SendEmail(ctx context.Context, payload models.EmailPayload) (string, error) {
	var resp endpointResponse
	if err := s.client.PostJSON(ctx, s.url, nil, payload, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "email endpoint reported failure"
		}
		return "", errors.New(resp.Error)
	}
	return resp.MessageID, nil
}

// ==========================
// SES transport
// ==========================

// SESService is the subset of the SES client used here (mockable).
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESSender struct {
	client SESService
	from   string
}

func NewSESSender(client SESService, from string) *SESSender {
	return &SESSender{client: client, from: from}
}

func (s *SESSender) SendEmail(ctx context.Context, payload models.EmailPayload) (string, error) {
	input := awsclient.BuildEmailInput(s.from, payload.To, payload.Subject, payload.HTML, payload.Text)
	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// ==========================
// Resend transport
// ==========================

// ResendService matches resend.Client.Emails.
type ResendService interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendSender struct {
	emails  ResendService
	from    string
	replyTo string
}

// NewResendSender builds a sender on a real Resend client.
func NewResendSender(apiKey, from, replyTo string) *ResendSender {
	return NewResendSenderWithService(resend.NewClient(apiKey).Emails, from, replyTo)
}

func NewResendSenderWithService(emails ResendService, from, replyTo string) *ResendSender {
	return &ResendSender{emails: emails, from: from, replyTo: replyTo}
}

func (s *ResendSender) SendEmail(ctx context.Context, payload models.EmailPayload) (string, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{payload.To},
		Subject: payload.Subject,
		Html:    payload.HTML,
		Text:    payload.Text,
		ReplyTo: s.replyTo,
	}
	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	return sent.Id, nil
}

// ==========================
// SNS transport
// ==========================

// SNSService is the subset of the SNS client used here (mockable).
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSSender struct {
	client   SNSService
	senderID string
}

func NewSNSSender(client SNSService, senderID string) *SNSSender {
	return &SNSSender{client: client, senderID: senderID}
}

func (s *SNSSender) SendSMS(ctx context.Context, phone, message string) (string, error) {
	if phone == "" {
		return "", errors.New("phone number required")
	}
	out, err := s.client.Publish(ctx, awsclient.BuildSMSInput(phone, message, s.senderID))
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
