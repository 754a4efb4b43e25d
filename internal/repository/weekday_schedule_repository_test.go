package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var weekdayColumns = []string{"id", "group_name", "group_name_norm", "weekday", "pair_number", "time_start", "time_end", "subject", "session_type", "room", "teacher", "created_at", "updated_at"}

func TestWeekdayScheduleRepositoryListByGroupDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeekdayScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(weekdayColumns).
		AddRow(1, "ИСП-21", "исп21", 1, 1, "08:30", "10:00", "Математика", "лекция", "101", "Иванов И.И.", now, now).
		AddRow(2, "ИСП-21", "исп21", 1, 2, "10:10", "11:40", "Физика", "", "", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM weekday_schedule WHERE group_name_norm = $1 AND weekday = $2 ORDER BY pair_number")).
		WithArgs("исп21", 1).
		WillReturnRows(rows)

	entries, err := repo.ListByGroupDay(context.Background(), "исп21", 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "08:30", entries[0].TimeStart)
	assert.Equal(t, "Иванов И.И.", entries[0].Teacher)
	assert.Equal(t, 2, entries[1].PairNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekdayScheduleRepositoryListDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeekdayScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM weekday_schedule WHERE 1=1 AND group_name_norm = $1 AND weekday = $2 ORDER BY group_name_norm ASC, weekday ASC, pair_number ASC LIMIT 50 OFFSET 0")).
		WithArgs("исп21", 3).
		WillReturnRows(sqlmock.NewRows(weekdayColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM weekday_schedule WHERE 1=1 AND group_name_norm = $1 AND weekday = $2")).
		WithArgs("исп21", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	entries, total, err := repo.List(context.Background(), models.WeekdayScheduleFilter{Group: "исп21", Weekday: 3})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekdayScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeekdayScheduleRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO weekday_schedule").
		WithArgs("ИСП-21", 2, 3, "12:00", "13:30", "История", "", "204", "Петров").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_name_norm", "created_at", "updated_at"}).AddRow(7, "исп21", now, now))

	entry := &models.WeekdayScheduleEntry{GroupName: "ИСП-21", Weekday: 2, PairNumber: 3, TimeStart: "12:00", TimeEnd: "13:30", Subject: "История", Room: "204", Teacher: "Петров"}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, int64(7), entry.ID)
	assert.Equal(t, "исп21", entry.GroupNameNorm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekdayScheduleRepositoryCreateConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeekdayScheduleRepository(db)

	mock.ExpectQuery("INSERT INTO weekday_schedule").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uniq_weekday_schedule_group_day_pair"})

	err := repo.Create(context.Background(), &models.WeekdayScheduleEntry{GroupName: "ИСП-21", Weekday: 1, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestWeekdayScheduleRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeekdayScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM weekday_schedule WHERE id = $1 RETURNING group_name_norm")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"group_name_norm"}))

	_, err := repo.Delete(context.Background(), 99)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekdayScheduleRepositoryReplaceAllPages(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeekdayScheduleRepository(db)

	rows := []models.WeekdayScheduleEntry{
		{GroupName: "ИСП-21", Weekday: 1, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00"},
		{GroupName: "ИСП-21", Weekday: 1, PairNumber: 2, TimeStart: "10:10", TimeEnd: "11:40"},
		{GroupName: "КС-11", Weekday: 1, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("TRUNCATE weekday_schedule RESTART IDENTITY")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("($10, $11, $12, $13, $14, NULLIF($15, ''), NULLIF($16, ''), NULLIF($17, ''), NULLIF($18, '')) ON CONFLICT DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, '')) ON CONFLICT DO NOTHING")).
		WithArgs("КС-11", 1, 1, "08:30", "10:00", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	written, err := repo.ReplaceAll(context.Background(), rows, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekdayScheduleRepositoryReplaceAllRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeekdayScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("TRUNCATE weekday_schedule").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO weekday_schedule").WillReturnError(&pq.Error{Code: "23514", Constraint: "chk_weekday_schedule_time_order"})
	mock.ExpectRollback()

	_, err := repo.ReplaceAll(context.Background(), []models.WeekdayScheduleEntry{{GroupName: "A", Weekday: 1, PairNumber: 1, TimeStart: "10:00", TimeEnd: "09:00"}}, 100)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekdayScheduleRepositoryListGroupsByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeekdayScheduleRepository(db)

	mock.ExpectQuery("SELECT DISTINCT ON \\(group_name_norm\\) group_name FROM \\(").
		WithArgs("Иванов И.И.", "2024-09-02", "2024-09-08").
		WillReturnRows(sqlmock.NewRows([]string{"group_name"}).AddRow("ИСП-21").AddRow("КС-11"))

	groups, err := repo.ListGroupsByTeacher(context.Background(), "Иванов И.И.", "2024-09-02", "2024-09-08")
	require.NoError(t, err)
	assert.Equal(t, []string{"ИСП-21", "КС-11"}, groups)
	assert.NoError(t, mock.ExpectationsWereMet())
}
