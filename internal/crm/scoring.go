// internal/crm/scoring.go
package crm

import (
	"time"

	"usahud-crm/internal/models"
	"usahud-crm/internal/notification"
)

// CalculateLeadScore rates a lead from 0 to 100 on engagement, recency,
// property interest and contact completeness.
func CalculateLeadScore(l models.Lead, now time.Time) int {
	score := 50

	engagement := len(l.Interactions) * 5
	if engagement > 30 {
		engagement = 30
	}
	score += engagement

	if created, err := models.ParseTimestamp(l.CreatedAt); err == nil {
		days := now.Sub(created).Hours() / 24
		switch {
		case days < 1:
			score += 20
		case days < 7:
			score += 10
		case days > 30:
			score -= 10
		}
	}

	if l.PropertyID != "" {
		score += 15
	}
	switch l.ConsultationType {
	case "financing":
		score += 10
	case "bidding":
		score += 15
	}

	if l.Phone != "" {
		score += 10
	}
	if l.Email != "" {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func priorityFor(in models.LeadInput) models.Priority {
	return notification.ClassifyPriority(in.ConsultationType, in.PropertyID)
}

// StatusStep describes a pipeline stage and what usually follows it.
type StatusStep struct {
	Status      string   `json:"status"`
	Label       string   `json:"label"`
	NextSteps   []string `json:"nextSteps"`
	AutoActions []string `json:"autoActions"`
}

var statusWorkflow = map[string]StatusStep{
	"pending":           {Label: "New Lead", NextSteps: []string{"contacted", "qualified"}, AutoActions: []string{"send_welcome_email", "assign_to_agent"}},
	"contacted":         {Label: "Contacted", NextSteps: []string{"qualified", "not_interested"}, AutoActions: []string{"schedule_follow_up"}},
	"qualified":         {Label: "Qualified", NextSteps: []string{"proposal", "viewing_scheduled"}, AutoActions: []string{"send_property_matches"}},
	"proposal":          {Label: "Proposal Sent", NextSteps: []string{"closed", "negotiating"}, AutoActions: []string{"schedule_follow_up_call"}},
	"viewing_scheduled": {Label: "Viewing Scheduled", NextSteps: []string{"proposal", "qualified"}, AutoActions: []string{"send_viewing_reminder"}},
	"negotiating":       {Label: "Negotiating", NextSteps: []string{"closed", "lost"}, AutoActions: []string{"prepare_contracts"}},
	"closed":            {Label: "Closed Won", NextSteps: []string{}, AutoActions: []string{"send_congratulations", "request_review"}},
	"lost":              {Label: "Closed Lost", NextSteps: []string{}, AutoActions: []string{"send_feedback_request"}},
	"not_interested":    {Label: "Not Interested", NextSteps: []string{}, AutoActions: []string{"add_to_nurture_campaign"}},
	"referred":          {Label: "Referred", NextSteps: []string{}, AutoActions: []string{"notify_referring_broker"}},
}

// StatusWorkflow looks up a pipeline stage. The table is advisory: status
// writes are never validated against it.
func StatusWorkflow(status string) (StatusStep, bool) {
	step, ok := statusWorkflow[status]
	step.Status = status
	return step, ok
}
