// internal/workers/matching/calculate-match-score/handler_test.go
package calculatematchscore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
)

func testProperties() []models.Property {
	return []models.Property{
		{ID: "p-far", City: "Austin", State: "TX", ListPrice: 400000, Bedrooms: 1, Bathrooms: 1},
		{ID: "p-exact", City: "Charlotte", State: "NC", ListPrice: 150000, Bedrooms: 3, Bathrooms: 2, PropertyType: "single_family"},
		{ID: "p-close", City: "Raleigh", State: "NC", ListPrice: 165000, Bedrooms: 3, Bathrooms: 1.5},
	}
}

func testPreferences() models.Preferences {
	return models.Preferences{
		Budget:       150000,
		MinBedrooms:  3,
		MinBathrooms: 2,
		Location:     "NC",
		PropertyType: "single_family",
	}
}

func TestHandler_Execute_RanksByScore(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Properties:  testProperties(),
		Preferences: testPreferences(),
	})

	require.NoError(t, err)
	require.Len(t, out.Matches, 3)
	assert.Equal(t, 3, out.TotalScored)
	assert.Equal(t, "p-exact", out.Matches[0].ID)
	assert.Equal(t, "p-close", out.Matches[1].ID)
	assert.Equal(t, "p-far", out.Matches[2].ID)
	assert.Equal(t, 100.0, out.TopScore)

	assert.Equal(t, models.ScoreBreakdown{Price: 30, Bedrooms: 20, Bathrooms: 15, Location: 20, Type: 15}, out.Matches[0].Breakdown)
}

func TestHandler_Execute_MinScoreFilters(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{
		Properties:  testProperties(),
		Preferences: testPreferences(),
		MinScore:    60,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, out.TotalScored)
	for _, m := range out.Matches {
		assert.GreaterOrEqual(t, m.MatchScore, 60.0)
	}
	assert.Len(t, out.Matches, 2)
}

func TestHandler_Execute_MaxResults(t *testing.T) {
	cfg := LoadConfig()
	cfg.MaxResults = 1
	h := NewHandler(cfg, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{
		Properties:  testProperties(),
		Preferences: testPreferences(),
	})

	require.NoError(t, err)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, "p-exact", out.Matches[0].ID)
}

func TestHandler_Execute_EdgeCases(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewNoOpLogger())

	t.Run("no properties", func(t *testing.T) {
		out, err := h.Execute(context.Background(), &Input{Preferences: testPreferences()})

		require.NoError(t, err)
		assert.Empty(t, out.Matches)
		assert.Zero(t, out.TopScore)
	})

	t.Run("no preferences scores zero", func(t *testing.T) {
		out, err := h.Execute(context.Background(), &Input{Properties: testProperties()})

		require.NoError(t, err)
		assert.Len(t, out.Matches, 3)
		assert.Zero(t, out.TopScore)
	})

	t.Run("min score out of range", func(t *testing.T) {
		out, err := h.Execute(context.Background(), &Input{Properties: testProperties(), MinScore: 101})

		assert.Nil(t, out)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	})
}
