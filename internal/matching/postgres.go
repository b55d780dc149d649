// internal/matching/postgres.go
package matching

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

const propertyColumns = `id, case_number, address, city, state, zip_code, county, list_price,
		estimated_value, bedrooms, bathrooms, sqft, year_built, property_type, status,
		images, description, listing_period, fha_insurable, listing_source, created_at`

// PostgresSource queries the properties table.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// buildSearchQuery renders the filtered, price-ordered property query.
func buildSearchQuery(prefs models.Preferences, limit int) (string, []interface{}) {
	var (
		where = []string{"LOWER(status) = $1"}
		args  = []interface{}{StatusAvailable}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if prefs.MinPrice > 0 {
		add("list_price >= $%d", prefs.MinPrice)
	}
	if ceiling := maxPrice(prefs); ceiling > 0 {
		add("list_price <= $%d", ceiling)
	}
	if prefs.MinBedrooms > 0 {
		add("bedrooms >= $%d", prefs.MinBedrooms)
	}
	if prefs.MaxBedrooms > 0 {
		add("bedrooms <= $%d", prefs.MaxBedrooms)
	}
	if prefs.MinBathrooms > 0 {
		add("bathrooms >= $%d", prefs.MinBathrooms)
	}
	if loc := strings.TrimSpace(prefs.Location); loc != "" {
		add("city ILIKE $%d", "%"+loc+"%")
	}
	if prefs.PropertyType != "" {
		add("property_type = $%d", prefs.PropertyType)
	}

	args = append(args, limit)
	query := fmt.Sprintf("SELECT %s FROM properties WHERE %s ORDER BY list_price ASC LIMIT $%d",
		propertyColumns, strings.Join(where, " AND "), len(args))
	return query, args
}

func (s *PostgresSource) Search(ctx context.Context, prefs models.Preferences, limit int) ([]models.Property, error) {
	query, args := buildSearchQuery(prefs, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPropertyQueryFailedError(err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

func (s *PostgresSource) GetByIDs(ctx context.Context, ids []string) ([]models.Property, error) {
	if len(ids) == 0 {
		return []models.Property{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+propertyColumns+" FROM properties WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, apperrors.NewPropertyQueryFailedError(err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

func scanProperties(rows *sql.Rows) ([]models.Property, error) {
	out := []models.Property{}
	for rows.Next() {
		var (
			p                                        models.Property
			zip, county, propType, desc, period, src sql.NullString
			estimated, baths                         sql.NullFloat64
			beds, sqft, yearBuilt                    sql.NullInt64
			fha                                      sql.NullBool
			images                                   []byte
			createdAt                                time.Time
		)
		err := rows.Scan(
			&p.ID, &p.CaseNumber, &p.Address, &p.City, &p.State, &zip, &county, &p.ListPrice,
			&estimated, &beds, &baths, &sqft, &yearBuilt, &propType, &p.Status,
			&images, &desc, &period, &fha, &src, &createdAt,
		)
		if err != nil {
			return nil, apperrors.NewPropertyQueryFailedError(err)
		}

		p.ZipCode, p.County, p.PropertyType = zip.String, county.String, propType.String
		p.Description, p.ListingPeriod, p.ListingSource = desc.String, period.String, src.String
		p.EstimatedValue, p.Bathrooms = estimated.Float64, baths.Float64
		p.Bedrooms, p.Sqft, p.YearBuilt = int(beds.Int64), int(sqft.Int64), int(yearBuilt.Int64)
		p.FHAInsurable = fha.Bool
		p.CreatedAt = models.Timestamp(createdAt)
		if len(images) > 0 {
			if err := json.Unmarshal(images, &p.Images); err != nil {
				p.Images = nil
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPropertyQueryFailedError(err)
	}
	return out, nil
}
