package db

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixtures describes upstream facts to load into a database. Loading is
// idempotent: rows are upserted by primary key.
type Fixtures struct {
	Personnel   []PersonnelFixture  `yaml:"personnel"`
	Equipment   []EquipmentFixture  `yaml:"equipment"`
	Requests    []RequestFixture    `yaml:"requests"`
	Records     []RecordFixture     `yaml:"accountability_records"`
	Summaries   []SummaryFixture    `yaml:"accountability_summaries"`
	Inspections []InspectionFixture `yaml:"inspection_schedules"`
}

type PersonnelFixture struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type EquipmentFixture struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	AssignedTo  string `yaml:"assigned_to"`
}

type RequestFixture struct {
	ID          string        `yaml:"id"`
	PersonnelID string        `yaml:"personnel_id"`
	Type        string        `yaml:"type"`
	Status      string        `yaml:"status"`
	Lines       []LineFixture `yaml:"lines"`
}

type LineFixture struct {
	EquipmentID string `yaml:"equipment_id"`
	Status      string `yaml:"status"`
}

type RecordFixture struct {
	ID                string `yaml:"id"`
	PersonnelID       string `yaml:"personnel_id"`
	RequestID         string `yaml:"request_id"`
	Type              string `yaml:"type"`
	Settled           bool   `yaml:"settled"`
	EquipmentReturned bool   `yaml:"equipment_returned"`
}

type SummaryFixture struct {
	PersonnelID string `yaml:"personnel_id"`
	RequestID   string `yaml:"request_id"`
	Status      string `yaml:"status"`
}

type InspectionFixture struct {
	ID          string `yaml:"id"`
	EquipmentID string `yaml:"equipment_id"`
	Status      string `yaml:"status"`
}

// LoadFixtures parses a YAML fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures, rejecting unknown fields.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

// SeedFixtures writes fixtures to the database in a single transaction.
func SeedFixtures(database *sql.DB, f *Fixtures) error {
	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range f.Personnel {
		if _, err := tx.Exec(
			`INSERT INTO personnel (id, name) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			p.ID, p.Name,
		); err != nil {
			return fmt.Errorf("seed personnel %s: %w", p.ID, err)
		}
	}

	for _, e := range f.Equipment {
		if _, err := tx.Exec(
			`INSERT INTO equipment (id, description, assigned_personnel_id) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET description = excluded.description,
				assigned_personnel_id = excluded.assigned_personnel_id`,
			e.ID, nullable(e.Description), nullable(e.AssignedTo),
		); err != nil {
			return fmt.Errorf("seed equipment %s: %w", e.ID, err)
		}
	}

	for _, r := range f.Requests {
		status := r.Status
		if status == "" {
			status = "pending"
		}
		if _, err := tx.Exec(
			`INSERT INTO clearance_requests (id, personnel_id, type, status) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET personnel_id = excluded.personnel_id,
				type = excluded.type, status = excluded.status, updated_at = CURRENT_TIMESTAMP`,
			r.ID, r.PersonnelID, r.Type, status,
		); err != nil {
			return fmt.Errorf("seed request %s: %w", r.ID, err)
		}
		for _, l := range r.Lines {
			lineStatus := l.Status
			if lineStatus == "" {
				lineStatus = "pending"
			}
			if _, err := tx.Exec(
				`INSERT INTO clearance_lines (request_id, equipment_id, status) VALUES (?, ?, ?)
				 ON CONFLICT(request_id, equipment_id) DO UPDATE SET status = excluded.status,
					updated_at = CURRENT_TIMESTAMP`,
				r.ID, l.EquipmentID, lineStatus,
			); err != nil {
				return fmt.Errorf("seed line %s/%s: %w", r.ID, l.EquipmentID, err)
			}
		}
	}

	for _, a := range f.Records {
		if _, err := tx.Exec(
			`INSERT INTO accountability_records (id, personnel_id, request_id, record_type, is_settled, equipment_returned)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET personnel_id = excluded.personnel_id,
				request_id = excluded.request_id, record_type = excluded.record_type,
				is_settled = excluded.is_settled, equipment_returned = excluded.equipment_returned`,
			a.ID, a.PersonnelID, nullable(a.RequestID), a.Type, boolInt(a.Settled), boolInt(a.EquipmentReturned),
		); err != nil {
			return fmt.Errorf("seed accountability record %s: %w", a.ID, err)
		}
	}

	for _, s := range f.Summaries {
		if _, err := tx.Exec(
			`INSERT INTO accountability_summaries (personnel_id, request_id, accountability_status) VALUES (?, ?, ?)
			 ON CONFLICT(personnel_id, request_id) DO UPDATE SET
				accountability_status = excluded.accountability_status, updated_at = CURRENT_TIMESTAMP`,
			s.PersonnelID, s.RequestID, s.Status,
		); err != nil {
			return fmt.Errorf("seed accountability summary %s/%s: %w", s.PersonnelID, s.RequestID, err)
		}
	}

	for _, i := range f.Inspections {
		status := i.Status
		if status == "" {
			status = "pending"
		}
		if _, err := tx.Exec(
			`INSERT INTO inspection_schedules (id, equipment_id, status) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET equipment_id = excluded.equipment_id, status = excluded.status`,
			i.ID, i.EquipmentID, status,
		); err != nil {
			return fmt.Errorf("seed inspection %s: %w", i.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fixtures: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
