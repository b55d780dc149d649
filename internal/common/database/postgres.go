// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"usahud-crm/internal/common/config"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Migrate creates the hosted tables (agent_applications, agents,
// referral_agreements, agent_verification_logs, consultations,
// consultation_events, properties) when they do not exist yet.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Schema returns the DDL applied by Migrate.
func Schema() string {
	return schemaSQL
}
