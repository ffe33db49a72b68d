package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements are idempotent so EnsureSchema can run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS person (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		pin VARCHAR(11) NOT NULL UNIQUE,
		sex TEXT NOT NULL CHECK (sex IN ('MALE', 'FEMALE')),
		version INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS person_email_addresses (
		person_id BIGINT NOT NULL REFERENCES person(id) ON DELETE CASCADE,
		email_address TEXT NOT NULL,
		PRIMARY KEY (person_id, email_address)
	)`,
	`CREATE TABLE IF NOT EXISTS person_phone_numbers (
		person_id BIGINT NOT NULL REFERENCES person(id) ON DELETE CASCADE,
		phone_number TEXT NOT NULL,
		PRIMARY KEY (person_id, phone_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_person_sex ON person (sex)`,
}

// EnsureSchema creates the person tables when they are missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
