// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"usahud-crm/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// PropertyIndexMapping is applied when the property index is first created.
const PropertyIndexMapping = `{
  "mappings": {
    "properties": {
      "id":              {"type": "keyword"},
      "case_number":     {"type": "keyword"},
      "address":         {"type": "text"},
      "city":            {"type": "keyword", "normalizer": "lowercase"},
      "state":           {"type": "keyword", "normalizer": "lowercase"},
      "zip_code":        {"type": "keyword"},
      "list_price":      {"type": "double"},
      "estimated_value": {"type": "double"},
      "bedrooms":        {"type": "integer"},
      "bathrooms":       {"type": "float"},
      "sqft":            {"type": "integer"},
      "property_type":   {"type": "keyword"},
      "status":          {"type": "keyword", "normalizer": "lowercase"},
      "created_at":      {"type": "date"}
    }
  },
  "settings": {
    "analysis": {
      "normalizer": {
        "lowercase": {"type": "custom", "filter": ["lowercase"]}
      }
    }
  }
}`

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{Addresses: addresses}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates index with mapping unless it already exists.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index, mapping string) error {
	res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.Client.Indices.Create(index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
