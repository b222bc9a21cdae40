// Package sqlite_test contains integration tests for SQLite repositories.
//
// All test setup goes through setupTestDB, which loads db.GetSchemaSQL() so
// tests run against the authoritative schema. Do not hardcode CREATE TABLE
// statements in test files; use setupTestDB and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	"github.com/example/clearance/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open(db.DriverName, "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// every connection to :memory: is a separate database
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedPersonnel inserts a test personnel row and returns its ID.
func seedPersonnel(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	if id == "" {
		id = "P-001"
	}
	_, err := db.Exec("INSERT INTO personnel (id, name) VALUES (?, ?)", id, "Test Person "+id)
	if err != nil {
		t.Fatalf("failed to seed personnel: %v", err)
	}
	return id
}

// seedEquipment inserts equipment assigned to personnelID (may be empty).
func seedEquipment(t *testing.T, db *sql.DB, id, personnelID string) string {
	t.Helper()
	var assigned any
	if personnelID != "" {
		assigned = personnelID
	}
	_, err := db.Exec("INSERT INTO equipment (id, description, assigned_personnel_id) VALUES (?, ?, ?)", id, "Item "+id, assigned)
	if err != nil {
		t.Fatalf("failed to seed equipment: %v", err)
	}
	return id
}

// seedRequest inserts a clearance request and returns its ID.
func seedRequest(t *testing.T, db *sql.DB, id, personnelID, reqType, status string) string {
	t.Helper()
	if id == "" {
		id = "CLR-001"
	}
	if personnelID == "" {
		personnelID = "P-001"
	}
	if reqType == "" {
		reqType = "retirement"
	}
	if status == "" {
		status = "pending"
	}
	_, err := db.Exec("INSERT INTO clearance_requests (id, personnel_id, type, status) VALUES (?, ?, ?, ?)", id, personnelID, reqType, status)
	if err != nil {
		t.Fatalf("failed to seed clearance request: %v", err)
	}
	return id
}

// seedLine inserts a clearance line.
func seedLine(t *testing.T, db *sql.DB, requestID, equipmentID, status string) {
	t.Helper()
	_, err := db.Exec("INSERT INTO clearance_lines (request_id, equipment_id, status) VALUES (?, ?, ?)", requestID, equipmentID, status)
	if err != nil {
		t.Fatalf("failed to seed clearance line: %v", err)
	}
}

// seedRecord inserts an accountability record.
func seedRecord(t *testing.T, db *sql.DB, id, personnelID, requestID, recordType string, settled bool) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO accountability_records (id, personnel_id, request_id, record_type, is_settled) VALUES (?, ?, ?, ?, ?)",
		id, personnelID, requestID, recordType, settled,
	)
	if err != nil {
		t.Fatalf("failed to seed accountability record: %v", err)
	}
}

// seedSummary inserts an accountability summary.
func seedSummary(t *testing.T, db *sql.DB, personnelID, requestID, status string) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO accountability_summaries (personnel_id, request_id, accountability_status) VALUES (?, ?, ?)",
		personnelID, requestID, status,
	)
	if err != nil {
		t.Fatalf("failed to seed accountability summary: %v", err)
	}
}

// seedInspection inserts an inspection schedule.
func seedInspection(t *testing.T, db *sql.DB, id, equipmentID, status string) {
	t.Helper()
	_, err := db.Exec("INSERT INTO inspection_schedules (id, equipment_id, status) VALUES (?, ?, ?)", id, equipmentID, status)
	if err != nil {
		t.Fatalf("failed to seed inspection schedule: %v", err)
	}
}
