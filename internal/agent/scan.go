// internal/agent/scan.go
package agent

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

const applicationColumns = `id, first_name, last_name, email, phone, company, license_number, license_state,
		years_experience, bio, states_covered, specialties, referral_fee_percentage, agreed_to_terms,
		terms_agreed_at, terms_version, agent_signature, agent_ip_address, email_verification_token,
		verification_sent_at, email_verified, email_verified_at, status, reviewed_by, reviewed_at,
		rejection_reason, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

// queryOne returns sql.ErrNoRows unwrapped so callers can map it to a domain code.
func (s *Service) queryOne(ctx context.Context, queryType, where string, args ...interface{}) (*models.AgentApplication, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+applicationColumns+" FROM agent_applications "+where, args...)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(queryType, err)
	}
	return app, nil
}

func scanApplication(row scanner) (*models.AgentApplication, error) {
	var (
		app                                     models.AgentApplication
		company, bio, signature, ip, token      sql.NullString
		reviewedBy, rejection                   sql.NullString
		termsAt, sentAt, verifiedAt, reviewedAt sql.NullTime
	)
	err := row.Scan(
		&app.ID, &app.FirstName, &app.LastName, &app.Email, &app.Phone, &company, &app.LicenseNumber, &app.LicenseState,
		&app.YearsExperience, &bio, pq.Array(&app.StatesCovered), pq.Array(&app.Specialties), &app.ReferralFeePercentage, &app.AgreedToTerms,
		&termsAt, &app.TermsVersion, &signature, &ip, &token,
		&sentAt, &app.EmailVerified, &verifiedAt, &app.Status, &reviewedBy, &reviewedAt,
		&rejection, &app.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.Company, app.Bio = company.String, bio.String
	app.AgentSignature, app.AgentIPAddress = signature.String, ip.String
	app.EmailVerificationToken = token.String
	app.ReviewedBy, app.RejectionReason = reviewedBy.String, rejection.String
	app.TermsAgreedAt = timePtr(termsAt)
	app.VerificationSentAt = timePtr(sentAt)
	app.EmailVerifiedAt = timePtr(verifiedAt)
	app.ReviewedAt = timePtr(reviewedAt)
	return &app, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
