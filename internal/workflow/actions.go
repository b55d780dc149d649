// internal/workflow/actions.go
package workflow

import (
	"context"

	"usahud-crm/internal/matching"
	"usahud-crm/internal/models"
)

// Action tags with an implementation. Any other tag succeeds as a no-op.
const (
	ActionWelcomeEmail       = "send_welcome_email"
	ActionScheduleCall       = "schedule_call"
	ActionSMSReminder        = "send_sms_reminder"
	ActionAnalyzePreferences = "analyze_preferences"
	ActionFindProperties     = "find_properties"
	ActionShareProperties    = "share_properties"
	ActionFollowUp           = "follow_up"
)

const (
	defaultBudget      = 300000
	defaultMinBedrooms = 3
	shareTopN          = 5
)

// Messenger sends broker messages.
type Messenger interface {
	Send(ctx context.Context, channel string, msg models.Message) (models.SendResult, error)
}

// PropertyMatcher finds and shares properties.
type PropertyMatcher interface {
	FindMatchingProperties(ctx context.Context, prefs models.Preferences) (*models.MatchResult, error)
	ShareProperties(ctx context.Context, req matching.ShareRequest) (models.SendResult, error)
}

type actionFunc func(ctx context.Context, lead models.Lead, brokerID string) models.StepResult

func (e *Engine) actionFor(tag string) actionFunc {
	switch tag {
	case ActionWelcomeEmail:
		return e.sendWelcomeEmail
	case ActionScheduleCall:
		return e.scheduleDiscoveryCall
	case ActionSMSReminder:
		return e.sendSMSReminder
	case ActionAnalyzePreferences:
		return analyzePreferences
	case ActionFindProperties:
		return e.findProperties
	case ActionShareProperties:
		return e.shareProperties
	case ActionFollowUp:
		return e.sendFollowUp
	default:
		return func(context.Context, models.Lead, string) models.StepResult {
			return models.StepResult{Success: true, Message: "Step executed"}
		}
	}
}

func (e *Engine) sendWelcomeEmail(ctx context.Context, lead models.Lead, brokerID string) models.StepResult {
	return e.send(ctx, models.ChannelEmail, models.Message{
		To:      lead.Email,
		Subject: "Welcome to USA HUD Homes, " + lead.Name + "!",
		Content: "Hi " + lead.Name + ",\n\n" +
			"Thank you for your interest in HUD properties! I'm excited to help you find your perfect home.\n\n" +
			"I've reviewed your consultation request and I'd love to schedule a quick 15-minute call to understand your needs better.\n\n" +
			"Best regards,\nUSA HUD Homes",
		LeadID:   lead.ID,
		BrokerID: brokerID,
	})
}

func (e *Engine) scheduleDiscoveryCall(ctx context.Context, lead models.Lead, brokerID string) models.StepResult {
	return e.send(ctx, models.ChannelEmail, models.Message{
		To:      lead.Email,
		Subject: "Let's Schedule Your HUD Home Discovery Call",
		Content: "Hi " + lead.Name + ",\n\n" +
			"I wanted to follow up on your interest in HUD properties. I have some exciting options that match what you're looking for!\n\n" +
			"Could we schedule a brief 15-minute call?\n\n" +
			"Best regards,\nUSA HUD Homes",
		LeadID:   lead.ID,
		BrokerID: brokerID,
	})
}

func (e *Engine) sendSMSReminder(ctx context.Context, lead models.Lead, brokerID string) models.StepResult {
	if lead.Phone == "" {
		return models.StepResult{Success: false, Error: "No phone number available"}
	}
	return e.send(ctx, models.ChannelSMS, models.Message{
		To:       lead.Phone,
		Content:  "Hi " + lead.Name + "! Quick reminder about our call today to discuss HUD properties. Looking forward to it!",
		LeadID:   lead.ID,
		BrokerID: brokerID,
	})
}

func (e *Engine) sendFollowUp(ctx context.Context, lead models.Lead, brokerID string) models.StepResult {
	return e.send(ctx, models.ChannelEmail, models.Message{
		To:      lead.Email,
		Subject: "Following up on HUD properties",
		Content: "Hi " + lead.Name + ",\n\n" +
			"I wanted to check in and see if you had a chance to review the properties I sent over.\n\n" +
			"Do any of them interest you? I'd be happy to schedule showings or answer any questions.\n\n" +
			"Best regards,\nUSA HUD Homes",
		LeadID:   lead.ID,
		BrokerID: brokerID,
	})
}

func (e *Engine) send(ctx context.Context, channel string, msg models.Message) models.StepResult {
	if e.messenger == nil {
		return models.StepResult{Success: false, Error: "messaging not configured"}
	}
	res, err := e.messenger.Send(ctx, channel, msg)
	if err != nil {
		return models.StepResult{Success: false, Error: err.Error()}
	}
	return models.StepResult{
		Success: res.Success,
		Error:   res.Error,
		Data:    map[string]interface{}{"messageId": res.MessageID, "channel": channel},
	}
}

// LeadPreferences reads what a lead told us about the home they want.
// Property type defaults to Single Family.
func LeadPreferences(lead models.Lead) models.Preferences {
	prefs := models.Preferences{
		Budget:       lead.Budget,
		MinBedrooms:  lead.Bedrooms,
		Location:     lead.PreferredLocation,
		PropertyType: lead.PropertyType,
	}
	if prefs.Budget == 0 {
		prefs.Budget = lead.MaxPrice
	}
	if prefs.MinBedrooms == 0 {
		prefs.MinBedrooms = lead.MinBedrooms
	}
	if prefs.Location == "" {
		prefs.Location = lead.City
	}
	if prefs.PropertyType == "" {
		prefs.PropertyType = "Single Family"
	}
	return prefs
}

func analyzePreferences(_ context.Context, lead models.Lead, _ string) models.StepResult {
	return models.StepResult{
		Success: true,
		Data:    map[string]interface{}{"preferences": LeadPreferences(lead)},
	}
}

// searchPreferences fills budget and bedroom defaults for lead-driven searches.
func searchPreferences(lead models.Lead) models.Preferences {
	prefs := models.Preferences{
		Budget:       lead.Budget,
		MinBedrooms:  lead.Bedrooms,
		Location:     lead.PreferredLocation,
		PropertyType: lead.PropertyType,
	}
	if prefs.Budget == 0 {
		prefs.Budget = lead.MaxPrice
	}
	if prefs.Budget == 0 {
		prefs.Budget = defaultBudget
	}
	if prefs.MinBedrooms == 0 {
		prefs.MinBedrooms = defaultMinBedrooms
	}
	if prefs.Location == "" {
		prefs.Location = lead.City
	}
	return prefs
}

func (e *Engine) findProperties(ctx context.Context, lead models.Lead, _ string) models.StepResult {
	if e.matcher == nil {
		return models.StepResult{Success: false, Error: "property matching not configured"}
	}
	res, err := e.matcher.FindMatchingProperties(ctx, searchPreferences(lead))
	if err != nil {
		return models.StepResult{Success: false, Error: err.Error()}
	}
	ids := make([]string, 0, len(res.Properties))
	for _, p := range res.Properties {
		ids = append(ids, p.ID)
	}
	return models.StepResult{
		Success: true,
		Data:    map[string]interface{}{"propertyIds": ids, "totalFound": res.TotalFound},
	}
}

func (e *Engine) shareProperties(ctx context.Context, lead models.Lead, brokerID string) models.StepResult {
	if e.matcher == nil {
		return models.StepResult{Success: false, Error: "property matching not configured"}
	}
	res, err := e.matcher.FindMatchingProperties(ctx, searchPreferences(lead))
	if err != nil || len(res.Properties) == 0 {
		return models.StepResult{Success: false, Error: "No matching properties found"}
	}

	top := res.Properties
	if len(top) > shareTopN {
		top = top[:shareTopN]
	}
	props := make([]models.Property, 0, len(top))
	for _, p := range top {
		props = append(props, p.Property)
	}

	sent, err := e.matcher.ShareProperties(ctx, matching.ShareRequest{
		LeadID:      lead.ID,
		BrokerID:    brokerID,
		Properties:  props,
		Channel:     models.ChannelEmail,
		ClientEmail: lead.Email,
		ClientName:  lead.Name,
	})
	if err != nil {
		return models.StepResult{Success: false, Error: err.Error()}
	}
	return models.StepResult{
		Success: sent.Success,
		Error:   sent.Error,
		Data:    map[string]interface{}{"shared": len(props), "messageId": sent.MessageID},
	}
}
