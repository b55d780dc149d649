// cmd/worker-manager/transports.go
package main

import (
	"context"
	"fmt"

	"usahud-crm/internal/common/aws"
	"usahud-crm/internal/common/config"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/notification"
)

type transportSet struct {
	email notification.EmailSender
	sms   notification.SMSSender
	relay notification.EmailSender
}

// buildTransports picks the email and SMS senders from config. Senders left
// unset stay nil interfaces so callers report them as not configured.
func buildTransports(ctx context.Context, cfg *config.Config, client *httpclient.Client) (transportSet, error) {
	var set transportSet
	integ := cfg.Integrations

	var ses *aws.SESClient
	if integ.AWS.SES.Enabled || cfg.Notifications.Email.Provider == "ses" {
		c, err := aws.NewSESClient(ctx, integ.AWS.Region)
		if err != nil {
			return set, fmt.Errorf("ses client: %w", err)
		}
		ses = c
	}

	from := cfg.Notifications.Email.FromEmail
	if integ.AWS.SES.FromEmail != "" {
		from = integ.AWS.SES.FromEmail
	}

	if cfg.Notifications.Email.Enabled {
		switch cfg.Notifications.Email.Provider {
		case "ses":
			set.email = notification.NewSESSender(ses, from)
		case "resend":
			if integ.Resend.APIKey == "" {
				return set, fmt.Errorf("resend provider selected without api key")
			}
			set.email = notification.NewResendSender(integ.Resend.APIKey, integ.Resend.From, integ.Resend.ReplyTo)
		case "endpoint", "":
			if cfg.Notifications.Email.Endpoint != "" {
				set.email = notification.NewEndpointSender(client, cfg.Notifications.Email.Endpoint)
			}
		default:
			return set, fmt.Errorf("unknown email provider %q", cfg.Notifications.Email.Provider)
		}
	}

	switch {
	case integ.Resend.APIKey != "":
		set.relay = notification.NewResendSender(integ.Resend.APIKey, integ.Resend.From, integ.Resend.ReplyTo)
	case ses != nil:
		set.relay = notification.NewSESSender(ses, from)
	}

	if integ.AWS.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, integ.AWS.Region)
		if err != nil {
			return set, fmt.Errorf("sns client: %w", err)
		}
		set.sms = notification.NewSNSSender(sns, integ.AWS.SNS.DefaultSMSSenderID)
	}

	return set, nil
}
