package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_fact_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_decision_columns_to_clearance_requests",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "create_clearance_decisions",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "create_audit_logs",
		Up:      migrationV4,
	},
}

const schemaVersionSQL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// RunMigrations applies every migration newer than the recorded schema version.
// Each migration runs in its own transaction together with its version row.
func RunMigrations(db *sql.DB) error {
	if _, err := db.Exec(schemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}

func execAll(tx *sql.Tx, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrationV1 creates the tables owned by upstream systems.
func migrationV1(tx *sql.Tx) error {
	err := execAll(tx,
		`CREATE TABLE IF NOT EXISTS personnel (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS equipment (
			id TEXT PRIMARY KEY,
			description TEXT,
			assigned_personnel_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_equipment_assigned ON equipment(assigned_personnel_id)`,
		`CREATE TABLE IF NOT EXISTS clearance_requests (
			id TEXT PRIMARY KEY,
			personnel_id TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clearance_requests_status ON clearance_requests(status)`,
		`CREATE INDEX IF NOT EXISTS idx_clearance_requests_personnel ON clearance_requests(personnel_id)`,
		`CREATE TABLE IF NOT EXISTS clearance_lines (
			request_id TEXT NOT NULL,
			equipment_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (request_id, equipment_id),
			FOREIGN KEY (request_id) REFERENCES clearance_requests(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS accountability_records (
			id TEXT PRIMARY KEY,
			personnel_id TEXT NOT NULL,
			request_id TEXT,
			record_type TEXT NOT NULL CHECK(record_type IN ('damaged', 'lost')),
			is_settled INTEGER NOT NULL DEFAULT 0,
			equipment_returned INTEGER NOT NULL DEFAULT 0,
			settlement_date DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accountability_records_personnel ON accountability_records(personnel_id)`,
		`CREATE TABLE IF NOT EXISTS accountability_summaries (
			personnel_id TEXT NOT NULL,
			request_id TEXT NOT NULL,
			accountability_status TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (personnel_id, request_id)
		)`,
		`CREATE TABLE IF NOT EXISTS inspection_schedules (
			id TEXT PRIMARY KEY,
			equipment_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			scheduled_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inspection_schedules_equipment ON inspection_schedules(equipment_id)`,
	)
	if err != nil {
		return fmt.Errorf("failed to create fact tables: %w", err)
	}
	return nil
}

// migrationV2 records who decided a request and why it was rejected.
func migrationV2(tx *sql.Tx) error {
	err := execAll(tx,
		`ALTER TABLE clearance_requests ADD COLUMN rejection_reason TEXT`,
		`ALTER TABLE clearance_requests ADD COLUMN approved_by TEXT`,
		`ALTER TABLE clearance_requests ADD COLUMN approved_at DATETIME`,
	)
	if err != nil {
		return fmt.Errorf("failed to add decision columns: %w", err)
	}
	return nil
}

func migrationV3(tx *sql.Tx) error {
	err := execAll(tx,
		`CREATE TABLE IF NOT EXISTS clearance_decisions (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL,
			outcome TEXT NOT NULL CHECK(outcome IN ('approved', 'rejected')),
			from_status TEXT NOT NULL,
			actor_id TEXT,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (request_id) REFERENCES clearance_requests(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clearance_decisions_request ON clearance_decisions(request_id)`,
	)
	if err != nil {
		return fmt.Errorf("failed to create clearance_decisions table: %w", err)
	}
	return nil
}

func migrationV4(tx *sql.Tx) error {
	err := execAll(tx,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			actor_id TEXT,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL CHECK(action IN ('create', 'update', 'delete')),
			field_name TEXT,
			old_value TEXT,
			new_value TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp)`,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}
	return nil
}
