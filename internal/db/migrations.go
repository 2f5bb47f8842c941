package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('draft', 'sent', 'completed', 'declined', 'expired');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'signer_status') THEN
			CREATE TYPE signer_status AS ENUM ('pending', 'sent', 'completed', 'declined');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		status contract_status NOT NULL DEFAULT 'draft',
		lock_order BOOLEAN NOT NULL DEFAULT FALSE,
		expiration_days INT NOT NULL DEFAULT 30,
		submission_id VARCHAR(64),
		submission_slug VARCHAR(128),
		sent_at TIMESTAMPTZ,
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS contract_documents (
		id BIGSERIAL PRIMARY KEY,
		contract_id BIGINT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		filename VARCHAR(255) NOT NULL,
		original_path VARCHAR(512) NOT NULL,
		sort_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS contract_signers (
		id BIGSERIAL PRIMARY KEY,
		contract_id BIGINT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(64),
		signer_type VARCHAR(32) NOT NULL DEFAULT 'signer',
		sort_order INT NOT NULL DEFAULT 0,
		status signer_status NOT NULL DEFAULT 'pending',
		submitter_id VARCHAR(64),
		submitter_slug VARCHAR(128)
	);`,
	`CREATE TABLE IF NOT EXISTS contract_fields (
		id BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES contract_documents(id) ON DELETE CASCADE,
		signer_id BIGINT REFERENCES contract_signers(id) ON DELETE SET NULL,
		field_type VARCHAR(32) NOT NULL,
		pages VARCHAR(64) NOT NULL DEFAULT '1',
		pos_x DOUBLE PRECISION NOT NULL,
		pos_y DOUBLE PRECISION NOT NULL,
		width DOUBLE PRECISION NOT NULL,
		height DOUBLE PRECISION NOT NULL,
		horizontal_adjust INT NOT NULL DEFAULT 0,
		vertical_adjust INT NOT NULL DEFAULT 0,
		content TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_documents_contract_id ON contract_documents (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_signers_contract_id ON contract_signers (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_fields_document_id ON contract_fields (document_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_fields_signer_id ON contract_fields (signer_id) WHERE signer_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts (status);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
