// internal/workflow/presets.go
package workflow

import "usahud-crm/internal/models"

// Preset ids
const (
	InitialContact  = "initial_contact"
	PropertyMatch   = "property_match"
	NurtureCampaign = "nurture_campaign"
	ShowingProcess  = "showing_process"
	UnderContract   = "under_contract"
	PostClosing     = "post_closing"
)

// DefaultPresets returns the built-in workflow presets in display order.
// Step delays are hours.
func DefaultPresets() []models.WorkflowPreset {
	return []models.WorkflowPreset{
		{
			ID:          InitialContact,
			Name:        "Initial Contact & Qualification",
			Description: "First contact with new lead - qualify and understand needs",
			Icon:        "UserPlus",
			Steps: []models.WorkflowStep{
				{ID: "1", Action: ActionWelcomeEmail, Title: "Send Welcome Email", Description: "Introduce yourself and USA HUD Homes", Template: "welcome_email", Channel: models.ChannelEmail},
				{ID: "2", Action: ActionScheduleCall, Title: "Schedule Discovery Call", Description: "Book a 15-minute call to understand needs", Template: "discovery_call_request", Channel: models.ChannelEmail, Delay: 2},
				{ID: "3", Action: ActionSMSReminder, Title: "SMS Reminder", Description: "Text reminder before scheduled call", Template: "call_reminder_sms", Channel: models.ChannelSMS, Delay: 24},
			},
			AIPrompts: map[string]string{
				"qualification": "Analyze lead information and suggest qualification questions",
				"budget":        "Estimate budget range based on stated preferences",
				"timeline":      "Determine buying timeline urgency",
			},
		},
		{
			ID:          PropertyMatch,
			Name:        "Property Matching & Sharing",
			Description: "Find and share matching HUD properties",
			Icon:        "Home",
			Steps: []models.WorkflowStep{
				{ID: "1", Action: ActionAnalyzePreferences, Title: "Analyze Client Preferences", Description: "AI reviews client needs and budget", AIEnabled: true},
				{ID: "2", Action: ActionFindProperties, Title: "Find Matching Properties", Description: "Search HUD inventory for matches", AIEnabled: true},
				{ID: "3", Action: ActionShareProperties, Title: "Share Top 3-5 Properties", Description: "Send curated property list via email", Template: "property_recommendations", Channel: models.ChannelEmail},
				{ID: "4", Action: ActionFollowUp, Title: "Follow-Up", Description: "Check if they viewed properties", Template: "property_followup", Channel: models.ChannelSMS, Delay: 48},
			},
			AIPrompts: map[string]string{
				"matching":    "Match client preferences with available HUD properties",
				"description": "Generate compelling property descriptions highlighting HUD benefits",
				"comparison":  "Create comparison chart of recommended properties",
			},
		},
		{
			ID:          NurtureCampaign,
			Name:        "Long-Term Nurture",
			Description: "Stay top-of-mind with not-ready-yet leads",
			Icon:        "Calendar",
			Steps: []models.WorkflowStep{
				{ID: "1", Action: "send_market_update", Title: "Monthly Market Update", Description: "Share local HUD market insights", Template: "market_update", Channel: models.ChannelEmail, Recurring: "monthly"},
				{ID: "2", Action: "share_success_story", Title: "Success Story", Description: "Share recent HUD home buyer success", Template: "success_story", Channel: models.ChannelEmail, Delay: 15},
				{ID: "3", Action: "check_in", Title: "Personal Check-In", Description: "Quick text to see if timing has changed", Template: "check_in_sms", Channel: models.ChannelSMS, Delay: 30},
			},
			AIPrompts: map[string]string{
				"content": "Generate personalized market insights based on client location",
				"timing":  "Suggest optimal contact timing based on engagement history",
			},
		},
		{
			ID:          ShowingProcess,
			Name:        "Property Showing & Offer",
			Description: "Guide client through viewing and bidding",
			Icon:        "Eye",
			Steps: []models.WorkflowStep{
				{ID: "1", Action: "schedule_showing", Title: "Schedule Property Showing", Description: "Coordinate viewing appointment", Template: "showing_confirmation", Channel: models.ChannelEmail},
				{ID: "2", Action: "send_showing_prep", Title: "Showing Preparation Guide", Description: "What to look for in HUD homes", Template: "showing_prep", Channel: models.ChannelEmail, Delay: 24},
				{ID: "3", Action: "post_showing_followup", Title: "Post-Showing Follow-Up", Description: "Get feedback and discuss next steps", Template: "post_showing", Channel: models.ChannelSMS, Delay: 2},
				{ID: "4", Action: "offer_guidance", Title: "Offer Strategy Guidance", Description: "AI-powered bidding strategy", AIEnabled: true},
			},
			AIPrompts: map[string]string{
				"strategy":   "Analyze property data and suggest competitive offer strategy",
				"inspection": "Generate inspection checklist for this specific property",
				"financing":  "Recommend FHA 203(k) if repairs needed",
			},
		},
		{
			ID:          UnderContract,
			Name:        "Under Contract Management",
			Description: "Guide client through closing process",
			Icon:        "FileText",
			Steps: []models.WorkflowStep{
				{ID: "1", Action: "send_congratulations", Title: "Congratulations Message", Description: "Celebrate offer acceptance", Template: "offer_accepted", Channel: models.ChannelEmail},
				{ID: "2", Action: "closing_timeline", Title: "Closing Timeline", Description: "Share step-by-step closing process", Template: "closing_timeline", Channel: models.ChannelEmail, Delay: 24},
				{ID: "3", Action: "weekly_updates", Title: "Weekly Progress Updates", Description: "Keep client informed of progress", Template: "progress_update", Channel: models.ChannelSMS, Recurring: "weekly"},
				{ID: "4", Action: "pre_closing_checklist", Title: "Pre-Closing Checklist", Description: "Final items before closing day", Template: "pre_closing", Channel: models.ChannelEmail, Delay: 72},
			},
			AIPrompts: map[string]string{
				"timeline":  "Generate personalized closing timeline with key dates",
				"documents": "Explain required documents in simple terms",
				"issues":    "Suggest solutions for common closing issues",
			},
		},
		{
			ID:          PostClosing,
			Name:        "Post-Closing Care",
			Description: "Build long-term relationship and referrals",
			Icon:        "Heart",
			Steps: []models.WorkflowStep{
				{ID: "1", Action: "closing_gift", Title: "Closing Day Congratulations", Description: "Celebrate their new home", Template: "closing_congratulations", Channel: models.ChannelEmail},
				{ID: "2", Action: "request_review", Title: "Request Review", Description: "Ask for Google/Facebook review", Template: "review_request", Channel: models.ChannelEmail, Delay: 7},
				{ID: "3", Action: "referral_request", Title: "Referral Request", Description: "Ask if they know anyone looking", Template: "referral_request", Channel: models.ChannelSMS, Delay: 30},
				{ID: "4", Action: "anniversary", Title: "Home Anniversary", Description: "Celebrate 1-year anniversary", Template: "home_anniversary", Channel: models.ChannelEmail, Delay: 365},
			},
			AIPrompts: map[string]string{
				"personalization": "Generate personalized message referencing their specific home",
				"referrals":       "Suggest referral incentive based on local market",
				"maintenance":     "Provide seasonal home maintenance tips",
			},
		},
	}
}

// Catalog indexes presets by id while keeping display order.
type Catalog struct {
	order []string
	byID  map[string]models.WorkflowPreset
}

// NewCatalog builds a catalog. Later presets with a repeated id replace
// earlier ones in place.
func NewCatalog(presets ...models.WorkflowPreset) *Catalog {
	c := &Catalog{byID: make(map[string]models.WorkflowPreset, len(presets))}
	for _, p := range presets {
		if _, ok := c.byID[p.ID]; !ok {
			c.order = append(c.order, p.ID)
		}
		c.byID[p.ID] = p
	}
	return c
}

func (c *Catalog) Get(id string) (models.WorkflowPreset, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) List() []models.WorkflowPreset {
	out := make([]models.WorkflowPreset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
