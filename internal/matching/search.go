// internal/matching/search.go
package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

// SearchSource queries the Elasticsearch property index.
type SearchSource struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchSource(client *elasticsearch.Client, index string) *SearchSource {
	return &SearchSource{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Property `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// BuildSearchBody renders the bool query for prefs.
func BuildSearchBody(prefs models.Preferences, limit int) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"status": StatusAvailable}},
	}

	price := map[string]interface{}{}
	if prefs.MinPrice > 0 {
		price["gte"] = prefs.MinPrice
	}
	if ceiling := maxPrice(prefs); ceiling > 0 {
		price["lte"] = ceiling
	}
	if len(price) > 0 {
		filters = append(filters, map[string]interface{}{"range": map[string]interface{}{"list_price": price}})
	}

	beds := map[string]interface{}{}
	if prefs.MinBedrooms > 0 {
		beds["gte"] = prefs.MinBedrooms
	}
	if prefs.MaxBedrooms > 0 {
		beds["lte"] = prefs.MaxBedrooms
	}
	if len(beds) > 0 {
		filters = append(filters, map[string]interface{}{"range": map[string]interface{}{"bedrooms": beds}})
	}

	if prefs.MinBathrooms > 0 {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"bathrooms": map[string]interface{}{"gte": prefs.MinBathrooms}},
		})
	}

	if loc := strings.TrimSpace(prefs.Location); loc != "" {
		filters = append(filters, map[string]interface{}{
			"wildcard": map[string]interface{}{
				"city": map[string]interface{}{
					"value":            "*" + strings.ToLower(loc) + "*",
					"case_insensitive": true,
				},
			},
		})
	}

	if prefs.PropertyType != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"property_type": prefs.PropertyType}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": map[string]interface{}{"filter": filters}},
		"sort":  []interface{}{map[string]interface{}{"list_price": map[string]interface{}{"order": "asc"}}},
		"size":  limit,
	}
}

func (s *SearchSource) Search(ctx context.Context, prefs models.Preferences, limit int) ([]models.Property, error) {
	return s.search(ctx, "property_match", BuildSearchBody(prefs, limit))
}

func (s *SearchSource) GetByIDs(ctx context.Context, ids []string) ([]models.Property, error) {
	if len(ids) == 0 {
		return []models.Property{}, nil
	}
	body := map[string]interface{}{
		"query": map[string]interface{}{"ids": map[string]interface{}{"values": ids}},
		"size":  len(ids),
	}
	return s.search(ctx, "property_ids", body)
}

func (s *SearchSource) search(ctx context.Context, queryType string, body map[string]interface{}) ([]models.Property, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(queryType, err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(raw),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(queryType, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(queryType, fmt.Errorf("search failed: %s", res.String()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(queryType, err)
	}

	out := make([]models.Property, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}

// IndexProperty writes one property document keyed by its id.
func (s *SearchSource) IndexProperty(ctx context.Context, p models.Property) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(raw),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return apperrors.NewSearchQueryFailedError("index_property", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchQueryFailedError("index_property", fmt.Errorf("index failed: %s", res.String()))
	}
	return nil
}
