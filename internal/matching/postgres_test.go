// internal/matching/postgres_test.go
package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

var propertyCols = []string{
	"id", "case_number", "address", "city", "state", "zip_code", "county", "list_price",
	"estimated_value", "bedrooms", "bathrooms", "sqft", "year_built", "property_type", "status",
	"images", "description", "listing_period", "fha_insurable", "listing_source", "created_at",
}

func TestBuildSearchQuery(t *testing.T) {
	t.Run("status only", func(t *testing.T) {
		query, args := buildSearchQuery(models.Preferences{}, 20)
		assert.Contains(t, query, "WHERE LOWER(status) = $1 ORDER BY list_price ASC LIMIT $2")
		assert.Equal(t, []interface{}{"available", 20}, args)
	})

	t.Run("every filter", func(t *testing.T) {
		query, args := buildSearchQuery(models.Preferences{
			MinPrice: 50000, Budget: 150000, MinBedrooms: 2, MaxBedrooms: 4,
			MinBathrooms: 1.5, Location: " Tampa ", PropertyType: "Condo",
		}, 20)
		assert.Contains(t, query, "list_price >= $2 AND list_price <= $3 AND bedrooms >= $4 AND bedrooms <= $5")
		assert.Contains(t, query, "bathrooms >= $6 AND city ILIKE $7 AND property_type = $8")
		assert.Contains(t, query, "LIMIT $9")
		assert.Equal(t, []interface{}{"available", 50000.0, 150000.0, 2, 4, 1.5, "%Tampa%", "Condo", 20}, args)
	})

	t.Run("max price wins over budget", func(t *testing.T) {
		_, args := buildSearchQuery(models.Preferences{Budget: 100000, MaxPrice: 90000}, 5)
		assert.Equal(t, []interface{}{"available", 90000.0, 5}, args)
	})
}

func TestPostgresSource_Search(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	prefs := models.Preferences{Budget: 150000, Location: "Tampa"}
	query, _ := buildSearchQuery(prefs, 20)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(query).
		WithArgs("available", 150000.0, "%Tampa%", 20).
		WillReturnRows(sqlmock.NewRows(propertyCols).AddRow(
			"p1", "093-123456", "1 Main St", "Tampa", "FL", "33601", nil, 140000.0,
			175000.0, int64(3), 2.5, int64(1800), nil, "Single Family", "Available",
			[]byte(`["https://img/1.jpg"]`), nil, "Extended", true, "hudhomestore", created,
		))

	props, err := NewPostgresSource(db).Search(context.Background(), prefs, 20)
	require.NoError(t, err)
	require.Len(t, props, 1)

	p := props[0]
	assert.Equal(t, "093-123456", p.CaseNumber)
	assert.Equal(t, 2.5, p.Bathrooms)
	assert.Equal(t, 1800, p.Sqft)
	assert.Equal(t, 0, p.YearBuilt)
	assert.Equal(t, "", p.County)
	assert.Equal(t, models.Images{"https://img/1.jpg"}, p.Images)
	assert.True(t, p.FHAInsurable)
	assert.Equal(t, "2026-01-02T03:04:05.000Z", p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

	_, err = NewPostgresSource(db).Search(context.Background(), models.Preferences{}, 20)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePropertyQueryFailed))
}

func TestPostgresSource_GetByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(propertyCols).AddRow(
			"p2", "093-000001", "2 Oak Ave", "Orlando", "FL", nil, nil, 99000.0,
			nil, int64(2), 1.0, nil, int64(1985), nil, "available",
			nil, nil, nil, nil, nil, time.Now(),
		))

	src := NewPostgresSource(db)
	props, err := src.GetByIDs(context.Background(), []string{"p2"})
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, 1985, props[0].YearBuilt)
	assert.Nil(t, props[0].Images)

	empty, err := src.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
