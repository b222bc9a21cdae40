package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturesYAML = `
personnel:
  - id: P-001
    name: Ada Reyes
equipment:
  - id: EQ-1
    description: Radio
    assigned_to: P-001
  - id: EQ-2
    assigned_to: P-001
requests:
  - id: CLR-001
    personnel_id: P-001
    type: retirement
    lines:
      - equipment_id: EQ-1
        status: cleared
      - equipment_id: EQ-2
        status: lost
accountability_records:
  - id: ACC-001
    personnel_id: P-001
    request_id: CLR-001
    type: lost
accountability_summaries:
  - personnel_id: P-001
    request_id: CLR-001
    status: Unsettled
inspection_schedules:
  - id: INS-001
    equipment_id: EQ-2
`

func TestParseFixtures(t *testing.T) {
	f, err := ParseFixtures([]byte(fixturesYAML))
	require.NoError(t, err)

	require.Len(t, f.Requests, 1)
	assert.Len(t, f.Requests[0].Lines, 2)
	assert.Equal(t, "P-001", f.Equipment[1].AssignedTo)
	assert.False(t, f.Records[0].Settled)
}

func TestParseFixtures_UnknownField(t *testing.T) {
	_, err := ParseFixtures([]byte("requests:\n  - id: CLR-001\n    owner: nobody\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse fixtures")
}

func TestSeedFixtures_Upserts(t *testing.T) {
	database := openRaw(t)
	require.NoError(t, InitSchema(database))

	f, err := ParseFixtures([]byte(fixturesYAML))
	require.NoError(t, err)
	require.NoError(t, SeedFixtures(database, f))

	var status string
	require.NoError(t, database.QueryRow(`SELECT status FROM clearance_requests WHERE id = 'CLR-001'`).Scan(&status))
	assert.Equal(t, "pending", status, "status defaults to pending")

	// re-seeding with a settled record updates in place
	f.Records[0].Settled = true
	require.NoError(t, SeedFixtures(database, f))

	var count, settled int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*), SUM(is_settled) FROM accountability_records`).Scan(&count, &settled))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, settled)

	var lines int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM clearance_lines WHERE request_id = 'CLR-001'`).Scan(&lines))
	assert.Equal(t, 2, lines)
}
