// internal/workers/matching/search-properties/handler_test.go
package searchproperties

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/models"
)

const searchHits = `{
	"hits": {"total": {"value": 3}, "hits": [
		{"_source": {"id": "p1", "case_number": "381-100001", "city": "Charlotte", "state": "NC", "list_price": 95000, "bedrooms": 2, "bathrooms": 1, "status": "available"}},
		{"_source": {"id": "p2", "case_number": "381-100002", "city": "Charlotte", "state": "NC", "list_price": 120000, "bedrooms": 3, "bathrooms": 2, "status": "available"}},
		{"_source": {"id": "p3", "case_number": "381-100003", "city": "Durham", "state": "NC", "list_price": 140000, "bedrooms": 4, "bathrooms": 2.5, "status": "available"}}
	]}
}`

func setupSource(t *testing.T, status int, body string, captured *map[string]interface{}) *matching.SearchSource {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, captured)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return matching.NewSearchSource(client, "properties")
}

func TestHandler_Execute_SearchScoresResults(t *testing.T) {
	var captured map[string]interface{}
	h := NewHandler(LoadConfig(), setupSource(t, http.StatusOK, searchHits, &captured), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Preferences: models.Preferences{Budget: 120000, MinBedrooms: 3, Location: "Charlotte"},
	})

	require.NoError(t, err)
	assert.Equal(t, QueryTypeSearch, out.QueryType)
	assert.Equal(t, 3, out.TotalFound)
	require.Len(t, out.Properties, 3)
	assert.Equal(t, "p2", out.Properties[0].ID)
	assert.Equal(t, float64(20), captured["size"])
}

func TestHandler_Execute_LimitTrimsScoredList(t *testing.T) {
	var captured map[string]interface{}
	h := NewHandler(LoadConfig(), setupSource(t, http.StatusOK, searchHits, &captured), logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, float64(2), captured["size"])
	assert.Len(t, out.Properties, 2)
	assert.Equal(t, 3, out.TotalFound)
}

func TestHandler_Execute_ByIDs(t *testing.T) {
	var captured map[string]interface{}
	h := NewHandler(LoadConfig(), setupSource(t, http.StatusOK, searchHits, &captured), logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{PropertyIDs: []string{"p1", "p2", "p3"}})

	require.NoError(t, err)
	assert.Equal(t, QueryTypeByIDs, out.QueryType)
	query, ok := captured["query"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, query, "ids")
}

func TestHandler_Execute_Errors(t *testing.T) {
	t.Run("limit above maximum", func(t *testing.T) {
		h := NewHandler(LoadConfig(), setupSource(t, http.StatusOK, searchHits, nil), logger.NewNoOpLogger())

		out, err := h.Execute(context.Background(), &Input{Limit: 500})

		assert.Nil(t, out)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	})

	t.Run("search failure", func(t *testing.T) {
		h := NewHandler(LoadConfig(), setupSource(t, http.StatusInternalServerError, `{"error":"boom"}`, nil), logger.NewNoOpLogger())

		out, err := h.Execute(context.Background(), &Input{})

		assert.Nil(t, out)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchQueryFailed))
	})
}
