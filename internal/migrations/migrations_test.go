package migrations

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-api/pkg/groupname"
)

func newMigratorMock(t *testing.T) (*Migrator, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return NewMigrator(sqlx.NewDb(db, "sqlmock"), nil), mock, func() { db.Close() }
}

func TestFilesAreLexicographic(t *testing.T) {
	scripts, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, scripts)

	names := make([]string, len(scripts))
	for i, s := range scripts {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"001_extensions.sql",
		"010_users.sql",
		"020_weekday_schedule.sql",
		"030_weekly_edits.sql",
		"040_once_edits.sql",
		"050_date_schedule.sql",
	}, names)
}

var createStmt = regexp.MustCompile(`(?i)\bCREATE\s+(UNIQUE\s+)?(TABLE|INDEX|EXTENSION)\b(\s+IF\s+NOT\s+EXISTS)?`)

func TestSchemaScriptsAreGuarded(t *testing.T) {
	scripts, err := Files()
	require.NoError(t, err)

	for _, s := range scripts {
		matches := createStmt.FindAllStringSubmatch(s.Body, -1)
		require.NotEmpty(t, matches, s.Name)
		for _, m := range matches {
			assert.NotEmpty(t, m[3], "%s: %q lacks IF NOT EXISTS", s.Name, m[0])
		}
	}
}

var addColumnStmt = regexp.MustCompile(`(?i)\bADD\s+COLUMN\b(\s+IF\s+NOT\s+EXISTS)?`)

func TestColumnAdditionsAreGuarded(t *testing.T) {
	scripts, err := Files()
	require.NoError(t, err)

	found := 0
	for _, s := range scripts {
		for _, m := range addColumnStmt.FindAllStringSubmatch(s.Body, -1) {
			found++
			assert.NotEmpty(t, m[1], "%s: %q lacks IF NOT EXISTS", s.Name, m[0])
		}
	}
	assert.NotZero(t, found)
}

func TestSeedScriptsAreRerunnable(t *testing.T) {
	scripts, err := SeedFiles()
	require.NoError(t, err)
	require.NotEmpty(t, scripts)

	for _, s := range scripts {
		inserts := strings.Count(strings.ToUpper(s.Body), "INSERT INTO")
		conflicts := strings.Count(strings.ToUpper(s.Body), "ON CONFLICT")
		assert.Equal(t, inserts, conflicts, s.Name)
	}
}

func TestGeneratedColumnsMatchGoNormalization(t *testing.T) {
	scripts, err := Files()
	require.NoError(t, err)

	expr := groupname.SQLExpr("group_name")
	for _, s := range scripts {
		if strings.Contains(s.Body, "group_name_norm TEXT GENERATED") {
			assert.Contains(t, s.Body, expr, s.Name)
		}
	}
}

func TestBaseScheduleConstraints(t *testing.T) {
	scripts, err := Files()
	require.NoError(t, err)

	var body string
	for _, s := range scripts {
		if s.Name == "020_weekday_schedule.sql" {
			body = s.Body
		}
	}
	require.NotEmpty(t, body)
	assert.Contains(t, body, "CHECK (weekday BETWEEN 1 AND 7)")
	assert.Contains(t, body, "CHECK (pair_number BETWEEN 1 AND 20)")
	assert.Contains(t, body, "UNIQUE (group_name_norm, weekday, pair_number)")
}

func TestApplyTwiceRunsEveryScriptEachTime(t *testing.T) {
	m, mock, cleanup := newMigratorMock(t)
	defer cleanup()

	scripts, err := Files()
	require.NoError(t, err)
	for round := 0; round < 2; round++ {
		for _, s := range scripts {
			mock.ExpectBegin()
			mock.ExpectExec(s.Body).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectCommit()
		}
	}

	require.NoError(t, m.Apply(context.Background()))
	require.NoError(t, m.Apply(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStopsAndRollsBackOnFailure(t *testing.T) {
	m, mock, cleanup := newMigratorMock(t)
	defer cleanup()

	scripts, err := Files()
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectExec(scripts[0].Body).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(scripts[1].Body).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = m.Apply(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), scripts[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
