// internal/hud/importer.go
package hud

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"strings"
	"time"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
)

const upsertPropertySQL = `INSERT INTO properties (id, case_number, address, city, state, zip_code, county,
		list_price, bedrooms, bathrooms, status, listing_period, listing_source, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
	ON CONFLICT (case_number) DO UPDATE SET
		address = EXCLUDED.address,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		zip_code = EXCLUDED.zip_code,
		county = EXCLUDED.county,
		list_price = EXCLUDED.list_price,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		status = EXCLUDED.status,
		listing_period = EXCLUDED.listing_period,
		updated_at = EXCLUDED.updated_at`

const (
	existingStatusSQL    = `SELECT case_number, status FROM properties WHERE state = $1`
	markUnderContractSQL = `UPDATE properties SET status = $2, updated_at = $3 WHERE case_number = $1`
)

// Indexer writes a property into the search index.
type Indexer interface {
	IndexProperty(ctx context.Context, p models.Property) error
}

// ImportStats summarizes one import run.
type ImportStats struct {
	State               string `json:"state,omitempty"`
	TotalScraped        int    `json:"totalScraped"`
	NewProperties       int    `json:"newProperties"`
	UpdatedProperties   int    `json:"updatedProperties"`
	RestoredProperties  int    `json:"restoredProperties"`
	MarkedUnderContract int    `json:"markedUnderContract"`
	Errors              int    `json:"errors"`
	DryRun              bool   `json:"dryRun"`
}

// Importer upserts scraped listings into Postgres and the search index.
type Importer struct {
	db     *sql.DB
	index  Indexer
	dryRun bool
	logger logger.Logger
	now    func() time.Time
}

func NewImporter(db *sql.DB, index Indexer, log logger.Logger) *Importer {
	return &Importer{
		db:     db,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "hud-importer"}),
		now:    time.Now,
	}
}

// WithDryRun makes Import count changes without writing them.
func (im *Importer) WithDryRun(dryRun bool) *Importer {
	im.dryRun = dryRun
	return im
}

// NormalizeBathrooms reads a fractional part of exactly .1 as a half bath.
func NormalizeBathrooms(v float64) float64 {
	whole := math.Floor(v)
	if math.Abs((v-whole)-0.1) < 1e-9 {
		return whole + 0.5
	}
	return v
}

// Import stores props. With a non-empty state, listings of that state that
// are missing from props are marked under contract, and listings that
// reappear after being under contract become available again.
func (im *Importer) Import(ctx context.Context, state string, props []models.Property) (*ImportStats, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	stats := &ImportStats{State: state, TotalScraped: len(props), DryRun: im.dryRun}

	existing := map[string]string{}
	if state != "" {
		var err error
		if existing, err = im.existingStatuses(ctx, state); err != nil {
			return nil, err
		}
	}

	now := im.now().UTC()
	seen := make(map[string]bool, len(props))

	for _, p := range props {
		if p.CaseNumber == "" {
			stats.Errors++
			continue
		}
		seen[p.CaseNumber] = true
		p.Bathrooms = NormalizeBathrooms(p.Bathrooms)
		if p.ID == "" {
			p.ID = p.CaseNumber
		}

		prev, found := existing[p.CaseNumber]
		switch {
		case !found:
			p.Status = StatusAvailable
			stats.NewProperties++
		case strings.EqualFold(prev, StatusUnderContract):
			p.Status = StatusAvailable
			stats.RestoredProperties++
			stats.UpdatedProperties++
		default:
			if p.Status == "" {
				p.Status = prev
			}
			stats.UpdatedProperties++
		}

		if im.dryRun {
			continue
		}
		if err := im.upsert(ctx, p, now); err != nil {
			im.logger.Error("Property upsert failed", map[string]interface{}{
				"caseNumber": p.CaseNumber,
				"error":      err.Error(),
			})
			stats.Errors++
			continue
		}
		if im.index != nil {
			if err := im.index.IndexProperty(ctx, p); err != nil {
				im.logger.Warn("Property indexing failed", map[string]interface{}{
					"caseNumber": p.CaseNumber,
					"error":      err.Error(),
				})
				stats.Errors++
			}
		}
	}

	missing := make([]string, 0, len(existing))
	for caseNumber, status := range existing {
		if !seen[caseNumber] && !strings.EqualFold(status, StatusUnderContract) {
			missing = append(missing, caseNumber)
		}
	}
	sort.Strings(missing)

	for _, caseNumber := range missing {
		stats.MarkedUnderContract++
		if im.dryRun {
			continue
		}
		if _, err := im.db.ExecContext(ctx, markUnderContractSQL, caseNumber, StatusUnderContract, now); err != nil {
			im.logger.Error("Mark under contract failed", map[string]interface{}{
				"caseNumber": caseNumber,
				"error":      err.Error(),
			})
			stats.Errors++
		}
	}

	im.logger.Info("Import finished", map[string]interface{}{
		"state":               state,
		"totalScraped":        stats.TotalScraped,
		"newProperties":       stats.NewProperties,
		"updatedProperties":   stats.UpdatedProperties,
		"restoredProperties":  stats.RestoredProperties,
		"markedUnderContract": stats.MarkedUnderContract,
		"errors":              stats.Errors,
		"dryRun":              im.dryRun,
	})
	return stats, nil
}

func (im *Importer) existingStatuses(ctx context.Context, state string) (map[string]string, error) {
	rows, err := im.db.QueryContext(ctx, existingStatusSQL, state)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("existing_properties", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var caseNumber, status string
		if err := rows.Scan(&caseNumber, &status); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("existing_properties", err)
		}
		out[caseNumber] = status
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("existing_properties", err)
	}
	return out, nil
}

func (im *Importer) upsert(ctx context.Context, p models.Property, now time.Time) error {
	_, err := im.db.ExecContext(ctx, upsertPropertySQL,
		p.ID,
		p.CaseNumber,
		p.Address,
		p.City,
		p.State,
		nullString(p.ZipCode),
		nullString(p.County),
		p.ListPrice,
		p.Bedrooms,
		p.Bathrooms,
		p.Status,
		nullString(p.ListingPeriod),
		listingSource,
		now,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("table", "properties")
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
