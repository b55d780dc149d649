// internal/models/agent.go
package models

import "time"

// Agent application statuses
const (
	ApplicationPending     = "pending"
	ApplicationUnderReview = "under_review"
	ApplicationApproved    = "approved"
	ApplicationRejected    = "rejected"
)

type AgentApplication struct {
	ID                     string     `json:"id"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	Email                  string     `json:"email"`
	Phone                  string     `json:"phone"`
	Company                string     `json:"company,omitempty"`
	LicenseNumber          string     `json:"license_number"`
	LicenseState           string     `json:"license_state"`
	YearsExperience        int        `json:"years_experience"`
	Bio                    string     `json:"bio,omitempty"`
	StatesCovered          []string   `json:"states_covered"`
	Specialties            []string   `json:"specialties"`
	ReferralFeePercentage  float64    `json:"referral_fee_percentage"`
	AgreedToTerms          bool       `json:"agreed_to_terms"`
	TermsAgreedAt          *time.Time `json:"terms_agreed_at,omitempty"`
	TermsVersion           string     `json:"terms_version"`
	AgentSignature         string     `json:"agent_signature,omitempty"`
	AgentIPAddress         string     `json:"agent_ip_address,omitempty"`
	EmailVerificationToken string     `json:"-"`
	VerificationSentAt     *time.Time `json:"-"`
	EmailVerified          bool       `json:"email_verified"`
	EmailVerifiedAt        *time.Time `json:"email_verified_at,omitempty"`
	Status                 string     `json:"status"`
	ReviewedBy             string     `json:"reviewed_by,omitempty"`
	ReviewedAt             *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason        string     `json:"rejection_reason,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

// FullName joins first and last name.
func (a AgentApplication) FullName() string {
	return a.FirstName + " " + a.LastName
}

// ApplicationInput is the public application form.
type ApplicationInput struct {
	FirstName             string   `json:"first_name"`
	LastName              string   `json:"last_name"`
	Email                 string   `json:"email"`
	Phone                 string   `json:"phone"`
	Company               string   `json:"company,omitempty"`
	LicenseNumber         string   `json:"license_number"`
	LicenseState          string   `json:"license_state"`
	YearsExperience       int      `json:"years_experience"`
	Bio                   string   `json:"bio,omitempty"`
	StatesCovered         []string `json:"states_covered"`
	Specialties           []string `json:"specialties,omitempty"`
	ReferralFeePercentage float64  `json:"referral_fee_percentage,omitempty"`
	AgreedToTerms         bool     `json:"agreed_to_terms"`
	AgentSignature        string   `json:"agent_signature,omitempty"`
	AgentIPAddress        string   `json:"agent_ip_address,omitempty"`
}

type Agent struct {
	ID                    string    `json:"id"`
	ApplicationID         string    `json:"application_id"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	Company               string    `json:"company,omitempty"`
	LicenseNumber         string    `json:"license_number"`
	LicenseState          string    `json:"license_state"`
	StatesCovered         []string  `json:"states_covered"`
	Specialties           []string  `json:"specialties"`
	ReferralFeePercentage float64   `json:"referral_fee_percentage"`
	ReferralAgreementID   string    `json:"referral_agreement_id,omitempty"`
	IsAdmin               bool      `json:"is_admin"`
	IsActive              bool      `json:"is_active"`
	OnboardingCompleted   bool      `json:"onboarding_completed"`
	CreatedAt             time.Time `json:"created_at"`
}

type ReferralAgreement struct {
	ID                    string     `json:"id"`
	AgentID               string     `json:"agent_id"`
	ApplicationID         string     `json:"application_id"`
	ReferralFeePercentage float64    `json:"referral_fee_percentage"`
	StatesCovered         []string   `json:"states_covered"`
	AgreementVersion      string     `json:"agreement_version"`
	AgreementText         string     `json:"agreement_text"`
	AgentSignature        string     `json:"agent_signature,omitempty"`
	AgentIPAddress        string     `json:"agent_ip_address,omitempty"`
	SignedAt              *time.Time `json:"signed_at,omitempty"`
	Status                string     `json:"status"`
	EffectiveDate         string     `json:"effective_date"`
}

// Approval is what an admin gets back after approving an application.
type Approval struct {
	Agent             Agent             `json:"agent"`
	Agreement         ReferralAgreement `json:"agreement"`
	TemporaryPassword string            `json:"-"`
	EmailSent         bool              `json:"emailSent"`
}
