package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs. It reflects the state
// after all migrations; tests build their databases from it via GetSchemaSQL
// so repository code and schema cannot drift apart.
//
// When adding columns or tables, add a migration in migrations.go and update
// SchemaSQL here. TestSchemaMatchesMigrations compares the two.
//
// clearance_requests.status carries no CHECK constraint: upstream writers
// have historically stored mixed-case and legacy values, which the
// application normalises on read.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS personnel (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS equipment (
	id TEXT PRIMARY KEY,
	description TEXT,
	assigned_personnel_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_equipment_assigned ON equipment(assigned_personnel_id);

CREATE TABLE IF NOT EXISTS clearance_requests (
	id TEXT PRIMARY KEY,
	personnel_id TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	rejection_reason TEXT,
	approved_by TEXT,
	approved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_clearance_requests_status ON clearance_requests(status);
CREATE INDEX IF NOT EXISTS idx_clearance_requests_personnel ON clearance_requests(personnel_id);

CREATE TABLE IF NOT EXISTS clearance_lines (
	request_id TEXT NOT NULL,
	equipment_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (request_id, equipment_id),
	FOREIGN KEY (request_id) REFERENCES clearance_requests(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS accountability_records (
	id TEXT PRIMARY KEY,
	personnel_id TEXT NOT NULL,
	request_id TEXT,
	record_type TEXT NOT NULL CHECK(record_type IN ('damaged', 'lost')),
	is_settled INTEGER NOT NULL DEFAULT 0,
	equipment_returned INTEGER NOT NULL DEFAULT 0,
	settlement_date DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accountability_records_personnel ON accountability_records(personnel_id);

CREATE TABLE IF NOT EXISTS accountability_summaries (
	personnel_id TEXT NOT NULL,
	request_id TEXT NOT NULL,
	accountability_status TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (personnel_id, request_id)
);

CREATE TABLE IF NOT EXISTS inspection_schedules (
	id TEXT PRIMARY KEY,
	equipment_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	scheduled_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_inspection_schedules_equipment ON inspection_schedules(equipment_id);

CREATE TABLE IF NOT EXISTS clearance_decisions (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	outcome TEXT NOT NULL CHECK(outcome IN ('approved', 'rejected')),
	from_status TEXT NOT NULL,
	actor_id TEXT,
	reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (request_id) REFERENCES clearance_requests(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_clearance_decisions_request ON clearance_decisions(request_id);

CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	actor_id TEXT,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK(action IN ('create', 'update', 'delete')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);
`

// InitSchema creates the schema on a fresh database or migrates an existing one.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}
	if tableCount > 0 {
		return RunMigrations(db)
	}

	// A database that predates schema_version still has to be migrated.
	var existing int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='clearance_requests'").Scan(&existing)
	if err != nil {
		return err
	}
	if existing > 0 {
		return RunMigrations(db)
	}

	// Fresh install: create the current schema and mark every migration applied.
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(schemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	for _, m := range migrations {
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return tx.Commit()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
