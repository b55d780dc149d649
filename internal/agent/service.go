// internal/agent/service.go
package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/common/validation"
	"usahud-crm/internal/models"
)

const (
	// TokenTTL is how long a verification link stays valid. A link is still
	// accepted at exactly TokenTTL.
	TokenTTL = 24 * time.Hour

	termsVersion       = "v1.0"
	defaultReferralFee = 25.0
)

// Verification log actions
const (
	ActionSubmitted        = "application_submitted"
	ActionVerificationSent = "verification_email_sent"
	ActionEmailVerified    = "email_verified"
	ActionApproved         = "approved"
	ActionRejected         = "rejected"
)

// Mailer sends the agent lifecycle emails.
type Mailer interface {
	SendAgentVerification(ctx context.Context, app models.AgentApplication, token string) models.NotificationResult
	SendAgentApproval(ctx context.Context, app models.AgentApplication, temporaryPassword string) models.NotificationResult
	SendAgentRejection(ctx context.Context, app models.AgentApplication, reason string) models.NotificationResult
}

// Service manages agent applications in Postgres.
type Service struct {
	db       *sql.DB
	mailer   Mailer
	logger   logger.Logger
	now      func() time.Time
	newToken func() string
	password func() string
}

func NewService(db *sql.DB, mailer Mailer, log logger.Logger) *Service {
	return &Service{
		db:       db,
		mailer:   mailer,
		logger:   log.WithFields(map[string]interface{}{"component": "agent"}),
		now:      time.Now,
		newToken: newToken,
		password: temporaryPassword,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func temporaryPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Submit validates and stores a new application, then sends the
// verification email. A failed email does not fail the submission.
func (s *Service) Submit(ctx context.Context, in models.ApplicationInput) (*models.AgentApplication, error) {
	result, err := validation.Validate(validation.SchemaAgentApplication, in)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, apperrors.NewApplicationValidationFailedError(result.Summary())
	}

	now := s.now().UTC()
	app := models.AgentApplication{
		ID:                     uuid.NewString(),
		FirstName:              in.FirstName,
		LastName:               in.LastName,
		Email:                  strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:                  in.Phone,
		Company:                in.Company,
		LicenseNumber:          in.LicenseNumber,
		LicenseState:           in.LicenseState,
		YearsExperience:        in.YearsExperience,
		Bio:                    in.Bio,
		StatesCovered:          in.StatesCovered,
		Specialties:            in.Specialties,
		ReferralFeePercentage:  in.ReferralFeePercentage,
		AgreedToTerms:          in.AgreedToTerms,
		TermsAgreedAt:          &now,
		TermsVersion:           termsVersion,
		AgentSignature:         in.AgentSignature,
		AgentIPAddress:         in.AgentIPAddress,
		EmailVerificationToken: s.newToken(),
		VerificationSentAt:     &now,
		Status:                 models.ApplicationPending,
		CreatedAt:              now,
	}
	if app.ReferralFeePercentage == 0 {
		app.ReferralFeePercentage = defaultReferralFee
	}
	if app.Specialties == nil {
		app.Specialties = []string{}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_applications (
			id, first_name, last_name, email, phone, company, license_number, license_state,
			years_experience, bio, states_covered, specialties, referral_fee_percentage,
			agreed_to_terms, terms_agreed_at, terms_version, agent_signature, agent_ip_address,
			email_verification_token, verification_sent_at, email_verified, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, false, $21, $22)`,
		app.ID, app.FirstName, app.LastName, app.Email, app.Phone, nullString(app.Company),
		app.LicenseNumber, app.LicenseState, app.YearsExperience, nullString(app.Bio),
		pq.Array(app.StatesCovered), pq.Array(app.Specialties), app.ReferralFeePercentage,
		app.AgreedToTerms, now, app.TermsVersion, nullString(app.AgentSignature), nullString(app.AgentIPAddress),
		app.EmailVerificationToken, now, app.Status, now,
	)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err).WithMetadata("table", "agent_applications")
	}

	s.logAction(ctx, app.ID, "", ActionSubmitted, "Application submitted by agent", "")
	s.sendVerification(ctx, app)

	s.logger.Info("Agent application submitted", map[string]interface{}{
		"applicationId": app.ID,
		"licenseState":  app.LicenseState,
	})
	return &app, nil
}

func (s *Service) sendVerification(ctx context.Context, app models.AgentApplication) {
	res := s.mailer.SendAgentVerification(ctx, app, app.EmailVerificationToken)
	if !res.Success {
		s.logger.Warn("Verification email failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         res.Error,
		})
		return
	}
	s.logAction(ctx, app.ID, "", ActionVerificationSent, "Verification email sent to "+app.Email, "")
}

// VerifyEmail accepts a verification token and moves the application to
// under_review.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*models.AgentApplication, error) {
	if token == "" {
		return nil, apperrors.NewInvalidTokenError()
	}
	app, err := s.queryOne(ctx, "verify_email",
		"WHERE email_verification_token = $1 AND email_verified = false", token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewInvalidTokenError()
	}
	if err != nil {
		return nil, err
	}

	issued := app.CreatedAt
	if app.VerificationSentAt != nil {
		issued = *app.VerificationSentAt
	}
	now := s.now().UTC()
	if now.Sub(issued) > TokenTTL {
		return nil, apperrors.NewTokenExpiredError()
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE agent_applications
		SET email_verified = true, email_verified_at = $2, email_verification_token = NULL, status = $3
		WHERE id = $1`,
		app.ID, now, models.ApplicationUnderReview)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("verify_email", err)
	}

	app.EmailVerified = true
	app.EmailVerifiedAt = &now
	app.EmailVerificationToken = ""
	app.Status = models.ApplicationUnderReview

	s.logAction(ctx, app.ID, "", ActionEmailVerified, "Email address verified successfully", "")
	s.logger.Info("New application ready for review", map[string]interface{}{"applicationId": app.ID})
	return app, nil
}

// ResendVerification issues a fresh token for a pending, unverified
// application and emails it.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	app, err := s.queryOne(ctx, "resend_verification",
		"WHERE email = $1 AND email_verified = false AND status = $2", email, models.ApplicationPending)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewApplicationNotFoundError(email)
	}
	if err != nil {
		return err
	}

	now := s.now().UTC()
	app.EmailVerificationToken = s.newToken()
	app.VerificationSentAt = &now
	_, err = s.db.ExecContext(ctx,
		"UPDATE agent_applications SET email_verification_token = $2, verification_sent_at = $3 WHERE id = $1",
		app.ID, app.EmailVerificationToken, now)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("resend_verification", err)
	}

	s.sendVerification(ctx, *app)
	return nil
}

// Get returns one application.
func (s *Service) Get(ctx context.Context, id string) (*models.AgentApplication, error) {
	app, err := s.queryOne(ctx, "get_application", "WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewApplicationNotFoundError(id)
	}
	return app, err
}

// Pending lists applications awaiting review, newest first.
func (s *Service) Pending(ctx context.Context) ([]models.AgentApplication, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+applicationColumns+" FROM agent_applications WHERE status = ANY($1) ORDER BY created_at DESC",
		pq.Array([]string{models.ApplicationPending, models.ApplicationUnderReview}))
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("pending_applications", err)
	}
	defer rows.Close()

	out := []models.AgentApplication{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("pending_applications", err)
		}
		out = append(out, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("pending_applications", err)
	}
	return out, nil
}

// Approve creates the agent and its referral agreement in one transaction,
// then emails the agent a temporary password.
func (s *Service) Approve(ctx context.Context, id, adminID string) (*models.Approval, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status == models.ApplicationApproved || app.Status == models.ApplicationRejected {
		return nil, apperrors.NewBusinessRuleError("Application already reviewed", app.Status)
	}

	password := s.password()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash temporary password: %w", err)
	}

	now := s.now().UTC()
	agent := models.Agent{
		ID:                    uuid.NewString(),
		ApplicationID:         app.ID,
		FirstName:             app.FirstName,
		LastName:              app.LastName,
		Email:                 app.Email,
		Phone:                 app.Phone,
		Company:               app.Company,
		LicenseNumber:         app.LicenseNumber,
		LicenseState:          app.LicenseState,
		StatesCovered:         app.StatesCovered,
		Specialties:           app.Specialties,
		ReferralFeePercentage: app.ReferralFeePercentage,
		IsActive:              true,
		OnboardingCompleted:   true,
		CreatedAt:             now,
	}
	agreement := models.ReferralAgreement{
		ID:                    uuid.NewString(),
		AgentID:               agent.ID,
		ApplicationID:         app.ID,
		ReferralFeePercentage: app.ReferralFeePercentage,
		StatesCovered:         app.StatesCovered,
		AgreementVersion:      app.TermsVersion,
		AgreementText:         agreementText(*app),
		AgentSignature:        app.FullName(),
		AgentIPAddress:        app.AgentIPAddress,
		SignedAt:              app.TermsAgreedAt,
		Status:                "active",
		EffectiveDate:         now.Format("2006-01-02"),
	}
	agent.ReferralAgreementID = agreement.ID

	if err := s.approveTx(ctx, app, agent, agreement, string(hash), adminID, now); err != nil {
		return nil, err
	}

	app.Status = models.ApplicationApproved
	app.ReviewedBy = adminID
	app.ReviewedAt = &now

	res := s.mailer.SendAgentApproval(ctx, *app, password)
	if !res.Success {
		s.logger.Warn("Approval email failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         res.Error,
		})
	}

	s.logger.Info("Agent application approved", map[string]interface{}{
		"applicationId": app.ID,
		"agentId":       agent.ID,
		"adminId":       adminID,
	})
	return &models.Approval{
		Agent:             agent,
		Agreement:         agreement,
		TemporaryPassword: password,
		EmailSent:         res.Success,
	}, nil
}

func (s *Service) approveTx(ctx context.Context, app *models.AgentApplication, agent models.Agent, agreement models.ReferralAgreement, hash, adminID string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO agents (
			id, application_id, first_name, last_name, email, phone, company, license_number,
			license_state, states_covered, specialties, referral_fee_percentage, password_hash,
			is_admin, is_active, onboarding_completed, onboarding_completed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false, true, true, $14, $14)`,
		agent.ID, agent.ApplicationID, agent.FirstName, agent.LastName, agent.Email, agent.Phone,
		nullString(agent.Company), agent.LicenseNumber, agent.LicenseState,
		pq.Array(agent.StatesCovered), pq.Array(agent.Specialties), agent.ReferralFeePercentage, hash, now)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("table", "agents")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO referral_agreements (
			id, agent_id, application_id, referral_fee_percentage, states_covered, agreement_version,
			agreement_text, agent_signature, agent_ip_address, signed_at, status, effective_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		agreement.ID, agreement.AgentID, agreement.ApplicationID, agreement.ReferralFeePercentage,
		pq.Array(agreement.StatesCovered), agreement.AgreementVersion, agreement.AgreementText,
		agreement.AgentSignature, nullString(agreement.AgentIPAddress), agreement.SignedAt,
		agreement.Status, agreement.EffectiveDate)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("table", "referral_agreements")
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE agents SET referral_agreement_id = $2 WHERE id = $1", agent.ID, agreement.ID); err != nil {
		return apperrors.NewQueryExecutionFailedError("link_agreement", err)
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE agent_applications SET status = $2, reviewed_by = $3, reviewed_at = $4 WHERE id = $1",
		app.ID, models.ApplicationApproved, adminID, now); err != nil {
		return apperrors.NewQueryExecutionFailedError("approve_application", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("table", "agents")
	}

	// Written after commit; an audit failure never rolls back the approval.
	s.logAction(ctx, app.ID, agent.ID, ActionApproved, "Application approved by admin", adminID)
	return nil
}

// Reject marks the application rejected and emails the reason.
func (s *Service) Reject(ctx context.Context, id, adminID, reason string) (*models.AgentApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		UPDATE agent_applications
		SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5
		WHERE id = $1`,
		id, models.ApplicationRejected, adminID, now, reason)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("reject_application", err)
	}

	app.Status = models.ApplicationRejected
	app.ReviewedBy = adminID
	app.ReviewedAt = &now
	app.RejectionReason = reason

	s.logAction(ctx, id, "", ActionRejected, "Application rejected: "+reason, adminID)
	if res := s.mailer.SendAgentRejection(ctx, *app, reason); !res.Success {
		s.logger.Warn("Rejection email failed", map[string]interface{}{
			"applicationId": id,
			"error":         res.Error,
		})
	}
	return app, nil
}

// logAction writes an audit row. Failures are logged only.
func (s *Service) logAction(ctx context.Context, applicationID, agentID, action, notes, performedBy string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_verification_logs (id, application_id, agent_id, action_type, performed_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), applicationID, nullString(agentID), action, nullString(performedBy), notes, s.now().UTC())
	if err != nil {
		s.logger.Warn("Verification log insert failed", map[string]interface{}{
			"applicationId": applicationID,
			"action":        action,
			"error":         err.Error(),
		})
	}
}

func agreementText(app models.AgentApplication) string {
	return fmt.Sprintf(
		"USA HUD Homes Referral Agreement %s between USA HUD Homes and %s (license %s, %s). "+
			"Referral fee: %.0f%% of the buyer-side commission on closed transactions. States covered: %s.",
		app.TermsVersion, app.FullName(), app.LicenseNumber, app.LicenseState,
		app.ReferralFeePercentage, strings.Join(app.StatesCovered, ", "))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
