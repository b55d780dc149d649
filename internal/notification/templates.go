// internal/notification/templates.go
package notification

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"usahud-crm/internal/models"
)

const signature = `Lightkeeper Realty - Registered HUD Buyer's Agency
Marc Spencer: (910) 363-6147`

const htmlFooter = `<div style="background:#1e293b;color:#fff;padding:15px;text-align:center">
<p>{{system}}</p>
<p>Lightkeeper Realty - Registered HUD Buyer's Agency</p>
<p>Marc Spencer: (910) 363-6147</p>
</div>`

type template struct {
	Subject string
	HTML    string
	Text    string
}

var templates = map[models.Event]template{
	models.EventNewCustomer: {
		Subject: "🏠 New Customer Registration - {{name}}",
		HTML: `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>New Customer Registration</title></head>
<body style="font-family:Arial,sans-serif;color:#333">
<div style="max-width:600px;margin:0 auto;padding:20px">
<div style="background:#2563eb;color:#fff;padding:20px;text-align:center"><h1>🏠 USAhudHomes.com</h1><h2>New Customer Registration</h2></div>
<div style="background:#fef2f2;padding:15px;border-left:4px solid #dc2626">
<h3>⏰ Action Required - Follow up within 2 hours</h3>
<p>A new customer has registered on USAhudHomes.com and is expecting your response within 2 hours as promised on the website.</p>
</div>
<div style="background:#fff;padding:15px;border-left:4px solid #2563eb">
<h3>👤 Customer Information</h3>
<p><strong>Name:</strong> {{name}}</p>
<p><strong>Email:</strong> <a href="mailto:{{email}}">{{email}}</a></p>
<p><strong>Phone:</strong> <a href="tel:{{phone}}">{{phone}}</a></p>
<p><strong>State of Interest:</strong> {{state}}</p>
<p><strong>Property Interest:</strong> {{property}}</p>
<p><strong>Registration Date:</strong> {{date}}</p>
<p><strong>Customer ID:</strong> {{id}}</p>
</div>
<p style="text-align:center"><a href="tel:{{phone}}">📞 Call Customer Now</a></p>
` + htmlFooter + `
</div></body></html>`,
		Text: `🏠 USAhudHomes.com - New Customer Registration

⏰ ACTION REQUIRED - Follow up within 2 hours

👤 Customer Details:
- Name: {{name}}
- Email: {{email}}
- Phone: {{phone}}
- State of Interest: {{state}}
- Property Interest: {{property}}
- Registration Date: {{date}}
- Customer ID: {{id}}

📞 Recommended Next Steps:
1. Call the customer within 2 hours
2. Send a welcome email with your contact information
3. Schedule a consultation if they're interested in a specific property
4. Add them to your CRM system

` + signature,
	},

	models.EventNewConsultation: {
		Subject: "{{icon}} New Consultation Request - {{name}} ({{PRIORITY}} Priority)",
		HTML: `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>New Consultation Request</title></head>
<body style="font-family:Arial,sans-serif;color:#333">
<div style="max-width:600px;margin:0 auto;padding:20px">
<div style="background:{{color}};color:#fff;padding:20px;text-align:center"><h1>🏠 USAhudHomes.com</h1><h2>New Consultation Request</h2><span>{{PRIORITY}} PRIORITY</span></div>
<div style="background:#fef2f2;padding:15px;border-left:4px solid #dc2626">
<h3>⏰ {{urgency}}</h3>
<p>A new consultation request has been submitted with {{priority}} priority.</p>
</div>
<div style="background:#fff;padding:15px;border-left:4px solid {{color}}">
<h3>👤 Client Information</h3>
<p><strong>Name:</strong> {{name}}</p>
<p><strong>Email:</strong> <a href="mailto:{{email}}">{{email}}</a></p>
<p><strong>Phone:</strong> <a href="tel:{{phone}}">{{phone}}</a></p>
<p><strong>Consultation Type:</strong> {{consultationType}}</p>
<p><strong>Property:</strong> {{property}}</p>
<p><strong>Priority:</strong> <span style="color:{{color}};font-weight:bold">{{PRIORITY}}</span></p>
<p><strong>Request Date:</strong> {{date}}</p>
<p><strong>Consultation ID:</strong> {{id}}</p>
</div>
{{messageHTML}}
<p style="text-align:center"><a href="tel:{{phone}}">📞 Call Client Now</a></p>
` + htmlFooter + `
</div></body></html>`,
		Text: `🏠 USAhudHomes.com - New Consultation Request

⏰ {{urgency}}

New consultation request received with {{PRIORITY}} priority:

👤 Client Details:
- Name: {{name}}
- Email: {{email}}
- Phone: {{phone}}
- Consultation Type: {{consultationType}}
- Property: {{property}}
- Priority: {{PRIORITY}}
- Request Date: {{date}}
- Consultation ID: {{id}}

{{messageText}}

{{closing}}

` + signature,
	},

	models.EventNewLead: {
		Subject: "🎯 New Lead Captured - {{name}}",
		HTML: `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>New Lead Captured</title></head>
<body style="font-family:Arial,sans-serif;color:#333">
<div style="max-width:600px;margin:0 auto;padding:20px">
<div style="background:#059669;color:#fff;padding:20px;text-align:center"><h1>🏠 USAhudHomes.com</h1><h2>New Lead Captured</h2></div>
<div style="background:#fff;padding:15px;border-left:4px solid #059669">
<h3>🎯 Lead Information</h3>
<p><strong>Name:</strong> {{name}}</p>
<p><strong>Email:</strong> <a href="mailto:{{email}}">{{email}}</a></p>
<p><strong>Phone:</strong> <a href="tel:{{phone}}">{{phone}}</a></p>
<p><strong>State of Interest:</strong> {{state}}</p>
<p><strong>Property Case #:</strong> {{property}}</p>
<p><strong>Lead Date:</strong> {{date}}</p>
<p><strong>Lead ID:</strong> {{id}}</p>
</div>
<p style="text-align:center"><a href="tel:{{phone}}">📞 Call Lead Now</a></p>
` + htmlFooter + `
</div></body></html>`,
		Text: `🏠 USAhudHomes.com - New Lead Captured

🎯 Lead Details:
- Name: {{name}}
- Email: {{email}}
- Phone: {{phone}}
- State of Interest: {{state}}
- Property Case #: {{property}}
- Lead Date: {{date}}
- Lead ID: {{id}}

Please follow up within 2 hours as promised.

` + signature,
	},

	models.EventAgentVerification: {
		Subject: "✅ Verify Your Email - USA HUD Homes Agent Application",
		HTML: `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Verify Your Email</title></head>
<body style="font-family:Arial,sans-serif;color:#333">
<div style="max-width:600px;margin:0 auto;padding:20px">
<h1>🏠 USA HUD Homes</h1><h2>Verify Your Email Address</h2>
<h3>Hi {{firstName}},</h3>
<p>Thank you for applying to become a USA HUD Homes partner agent!</p>
<p>To complete your application, please verify your email address by clicking the button below:</p>
<p style="text-align:center"><a href="{{verificationUrl}}">✅ Verify Email Address</a></p>
<p><strong>⏰ Important:</strong> This verification link will expire in 24 hours.</p>
<p>Copy and paste this link into your browser:</p>
<p style="word-break:break-all">{{verificationUrl}}</p>
<p style="font-size:12px;color:#94a3b8">If you didn't apply to become an agent, please ignore this email.</p>
</div></body></html>`,
		Text: `🏠 USA HUD Homes - Verify Your Email Address

Hi {{firstName}},

Thank you for applying to become a USA HUD Homes partner agent!

To complete your application, please verify your email address by visiting:
{{verificationUrl}}

⏰ Important: This verification link will expire in 24 hours.

📋 What Happens Next?
1. Click the verification link above
2. Your application will move to "Under Review"
3. Our team will review your application within 1-2 business days
4. You'll receive an email with the decision

If you didn't apply to become an agent, please ignore this email.

USA HUD Homes Team
` + signature,
	},

	models.EventAgentApproval: {
		Subject: "🎉 Congratulations! Your Agent Application Has Been Approved",
		HTML: `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Application Approved!</title></head>
<body style="font-family:Arial,sans-serif;color:#333">
<div style="max-width:600px;margin:0 auto;padding:20px">
<h1>🎉 Congratulations!</h1><h2>Your Application Has Been Approved</h2>
<h3>✅ Welcome to USA HUD Homes, {{firstName}}!</h3>
<p>We're excited to have you join our network of professional real estate agents specializing in HUD homes.</p>
<h3>🔑 Your Login Credentials</h3>
<p><strong>Email:</strong> {{email}}</p>
<p><strong>Password:</strong> {{temporaryPassword}}</p>
<p><strong>⚠️ Important:</strong> Please change your password after your first login.</p>
<p style="text-align:center"><a href="{{dashboardUrl}}">🚀 Access Your Dashboard</a></p>
<h3>💼 Your Coverage</h3>
<p><strong>States:</strong> {{states}}</p>
<p><strong>Specialties:</strong> {{specialties}}</p>
<p><strong>Referral Fee:</strong> {{referralFee}}%</p>
</div></body></html>`,
		Text: `🎉 Congratulations! Your Application Has Been Approved

Welcome to USA HUD Homes, {{firstName}}!

🔑 Your Login Credentials:
- Email: {{email}}
- Password: {{temporaryPassword}}

⚠️ Please change your password after your first login.

Access your dashboard: {{dashboardUrl}}

💼 Your Coverage:
- States: {{states}}
- Specialties: {{specialties}}
- Referral Fee: {{referralFee}}%

USA HUD Homes Team
` + signature,
	},

	models.EventAgentRejection: {
		Subject: "Update on Your Agent Application - USA HUD Homes",
		HTML: `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Application Update</title></head>
<body style="font-family:Arial,sans-serif;color:#333">
<div style="max-width:600px;margin:0 auto;padding:20px">
<h1>🏠 USA HUD Homes</h1><h2>Application Update</h2>
<p>Hi {{firstName}},</p>
<p>Thank you for your interest in becoming a USA HUD Homes partner agent. After careful review, we are unable to approve your application at this time.</p>
<p><strong>Reason:</strong> {{reason}}</p>
<p>You are welcome to reapply in the future. If you have questions, please contact Marc Spencer at (910) 363-6147.</p>
</div></body></html>`,
		Text: `USA HUD Homes - Application Update

Hi {{firstName}},

Thank you for your interest in becoming a USA HUD Homes partner agent. After careful review, we are unable to approve your application at this time.

Reason: {{reason}}

You are welcome to reapply in the future.

USA HUD Homes Team
` + signature,
	},

	models.EventConsultationAlert: {
		Subject: "New HUD Inquiry: {{name}}",
		Text: `NEW HUD INQUIRY

Name: {{name}}
Phone: {{phone}}
Email: {{email}}
Property: {{property}}
Case: {{caseNumber}}
State: {{state}}
Message: {{message}}

Call: tel:{{phoneDigits}}
Text: sms:{{phoneDigits}}

Dashboard: {{dashboardUrl}}`,
	},
}

// Render fills the event template with data. Values are inserted verbatim.
func Render(event models.Event, data map[string]interface{}) (models.RenderedEmail, error) {
	tmpl, ok := templates[event]
	if !ok {
		return models.RenderedEmail{}, fmt.Errorf("no template for event %q", event)
	}
	return models.RenderedEmail{
		Subject: renderTemplate(tmpl.Subject, data),
		HTML:    renderTemplate(tmpl.HTML, data),
		Text:    strings.TrimSpace(renderTemplate(tmpl.Text, data)),
	}, nil
}

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// renderTemplate replaces {{key}} placeholders in one pass over tmpl.
// Unknown keys render empty; inserted values are never rescanned.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		switch val := data[m[2:len(m)-2]].(type) {
		case string:
			return val
		case nil:
			return ""
		default:
			return fmt.Sprintf("%v", val)
		}
	})
}

func formatDate(rfc3339 string, now time.Time) string {
	t, err := models.ParseTimestamp(rfc3339)
	if err != nil {
		t = now
	}
	return t.Format("Jan 2, 2006 3:04 PM MST")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// CustomerData builds template data for a registration.
func CustomerData(c models.Customer, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"system":   "USAhudHomes.com Customer Management System",
		"id":       c.ID,
		"name":     c.Name,
		"email":    c.Email,
		"phone":    c.Phone,
		"state":    orDefault(c.State, "Not specified"),
		"property": orDefault(c.PropertyID, "General inquiry"),
		"date":     formatDate(c.CreatedAt, now),
	}
}

// ConsultationData builds template data for a consultation request.
func ConsultationData(c models.Consultation, priority models.Priority, now time.Time) map[string]interface{} {
	icon, color := "📋", "#2563eb"
	urgency := "Please respond within 2 hours"
	closing := "Please respond within 2 hours as promised."
	switch priority {
	case models.PriorityHigh:
		icon, color = "🚨", "#dc2626"
		urgency = "URGENT - Respond immediately!"
		closing = "🚨 HIGH PRIORITY - Please respond immediately!"
	case models.PriorityMedium:
		icon, color = "⚡", "#f59e0b"
	}

	data := map[string]interface{}{
		"system":           "USAhudHomes.com Consultation System",
		"id":               c.ID,
		"name":             c.Name,
		"email":            c.Email,
		"phone":            c.Phone,
		"consultationType": c.ConsultationType,
		"property":         orDefault(c.PropertyID, "General consultation"),
		"priority":         string(priority),
		"PRIORITY":         strings.ToUpper(string(priority)),
		"icon":             icon,
		"color":            color,
		"urgency":          urgency,
		"closing":          closing,
		"date":             formatDate(c.CreatedAt, now),
	}
	if c.Message != "" {
		data["messageHTML"] = `<div style="background:#fff;padding:15px"><h3>💬 Client Message</h3><p>"` + c.Message + `"</p></div>`
		data["messageText"] = `💬 Client Message: "` + c.Message + `"`
	}
	return data
}

// LeadData builds template data for a captured lead.
func LeadData(l models.Lead, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"system":   "USAhudHomes.com Lead Management System",
		"id":       l.ID,
		"name":     l.Name,
		"email":    l.Email,
		"phone":    l.Phone,
		"state":    orDefault(l.State, "Not specified"),
		"property": orDefault(l.PropertyID, "Not specified"),
		"date":     formatDate(l.CreatedAt, now),
	}
}

// VerificationData builds the agent verification email data.
func VerificationData(app models.AgentApplication, verificationURL string) map[string]interface{} {
	return map[string]interface{}{
		"firstName":       app.FirstName,
		"email":           app.Email,
		"verificationUrl": verificationURL,
	}
}

// ApprovalData builds the agent approval email data.
func ApprovalData(app models.AgentApplication, temporaryPassword, dashboardURL string) map[string]interface{} {
	fee := app.ReferralFeePercentage
	if fee == 0 {
		fee = 25
	}
	return map[string]interface{}{
		"firstName":         app.FirstName,
		"email":             app.Email,
		"temporaryPassword": orDefault(temporaryPassword, "Check your email"),
		"dashboardUrl":      dashboardURL,
		"states":            orDefault(strings.Join(app.StatesCovered, ", "), "Not specified"),
		"specialties":       orDefault(strings.Join(app.Specialties, ", "), "Not specified"),
		"referralFee":       fmt.Sprintf("%g", fee),
	}
}

// RejectionData builds the agent rejection email data.
func RejectionData(app models.AgentApplication, reason string) map[string]interface{} {
	return map[string]interface{}{
		"firstName": app.FirstName,
		"reason":    orDefault(reason, "Not specified"),
	}
}

// AlertData builds the short broker alert sent to the SMS gateway mailbox.
func AlertData(c models.Consultation, caseNumber, propertyAddress, dashboardURL string) map[string]interface{} {
	return map[string]interface{}{
		"name":         c.Name,
		"phone":        orDefault(c.Phone, "Not provided"),
		"email":        c.Email,
		"property":     orDefault(propertyAddress, "Not specified"),
		"caseNumber":   orDefault(caseNumber, "N/A"),
		"state":        orDefault(c.State, "N/A"),
		"message":      orDefault(c.Message, "None"),
		"phoneDigits":  digitsOnly(c.Phone),
		"dashboardUrl": dashboardURL,
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
