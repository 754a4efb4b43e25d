package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

var weeklyColumns = []string{"id", "group_name", "group_name_norm", "day_of_week", "week_type", "pair_number", "time_start", "time_end", "subject", "session_type", "room", "teacher", "is_deleted", "created_at", "updated_at"}

var onceColumns = []string{"id", "group_name", "group_name_norm", "edit_date", "pair_number", "time_start", "time_end", "subject", "session_type", "room", "teacher", "is_deleted", "created_at", "updated_at"}

func TestWeeklyEditRepositoryListForDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyEditRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(weeklyColumns).
		AddRow(3, "ИСП-21", "исп21", 1, "odd", 2, nil, nil, "Химия", nil, "305", nil, false, now, now).
		AddRow(4, "ИСП-21", "исп21", 1, "all", 4, nil, nil, nil, nil, nil, nil, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM weekly_edits WHERE group_name_norm = $1 AND day_of_week = $2 AND week_type = ANY($3)")).
		WithArgs("исп21", 1, sqlmock.AnyArg()).
		WillReturnRows(rows)

	edits, err := repo.ListForDay(context.Background(), "исп21", 1, []models.WeekParity{models.WeekParityAll, models.WeekParityOdd})
	require.NoError(t, err)
	require.Len(t, edits, 2)
	assert.Equal(t, models.WeekParityOdd, edits[0].WeekType)
	require.NotNil(t, edits[0].Subject)
	assert.Equal(t, "Химия", *edits[0].Subject)
	assert.Nil(t, edits[0].TimeStart)
	assert.True(t, edits[1].IsDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyEditRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyEditRepository(db)

	now := time.Now()
	room := "410"
	mock.ExpectQuery(`ON CONFLICT \(group_name_norm, day_of_week, week_type, pair_number\) DO UPDATE SET[\s\S]*imported = FALSE`).
		WithArgs("ИСП-21", 2, "even", 1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_name_norm", "created_at", "updated_at"}).AddRow(11, "исп21", now, now))

	edit := &models.WeeklyEdit{GroupName: "ИСП-21", DayOfWeek: 2, WeekType: models.WeekParityEven, PairNumber: 1, LessonFields: models.LessonFields{Room: &room}}
	require.NoError(t, repo.Upsert(context.Background(), edit))
	assert.Equal(t, int64(11), edit.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyEditRepositoryUpsertInvalidParity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyEditRepository(db)

	mock.ExpectQuery("INSERT INTO weekly_edits").WillReturnError(&pq.Error{Code: "23514", Constraint: "weekly_edits_week_type_check"})

	err := repo.Upsert(context.Background(), &models.WeeklyEdit{GroupName: "ИСП-21", DayOfWeek: 2, WeekType: "sometimes", PairNumber: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWeeklyEditRepositoryReplaceImported(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyEditRepository(db)

	subject := "Физика"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weekly_edits WHERE imported")).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`INSERT INTO weekly_edits .*imported\)\s+VALUES .*TRUE\)\s+ON CONFLICT .* DO NOTHING`).
		WithArgs("ИСП-21", 1, "odd", 1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO weekly_edits").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	written, err := repo.ReplaceImported(context.Background(), []models.WeeklyEdit{
		{GroupName: "ИСП-21", DayOfWeek: 1, WeekType: models.WeekParityOdd, PairNumber: 1, LessonFields: models.LessonFields{Subject: &subject}},
		{GroupName: "ИСП 21", DayOfWeek: 1, WeekType: models.WeekParityOdd, PairNumber: 1, LessonFields: models.LessonFields{Subject: &subject}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOnceEditRepositoryListForRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOnceEditRepository(db)

	now := time.Now()
	date := time.Date(2024, 9, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM once_edits WHERE group_name_norm = $1 AND edit_date BETWEEN $2 AND $3")).
		WithArgs("исп21", "2024-09-02", "2024-09-08").
		WillReturnRows(sqlmock.NewRows(onceColumns).AddRow(5, "ИСП-21", "исп21", date, 3, "13:00", "14:30", "Экзамен", nil, "Актовый зал", nil, false, now, now))

	edits, err := repo.ListForRange(context.Background(), "исп21", "2024-09-02", "2024-09-08")
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "2024-09-04", edits[0].EditDate.Format(models.DateLayout))
	assert.Equal(t, "13:00", *edits[0].TimeStart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOnceEditRepositoryUpsertFormatsDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOnceEditRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (group_name_norm, edit_date, pair_number) DO UPDATE SET")).
		WithArgs("КС-11", "2024-09-05", 2, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_name_norm", "created_at", "updated_at"}).AddRow(8, "кс11", now, now))

	edit := &models.OnceEdit{GroupName: "КС-11", EditDate: time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC), PairNumber: 2, IsDeleted: true}
	require.NoError(t, repo.Upsert(context.Background(), edit))
	assert.Equal(t, "кс11", edit.GroupNameNorm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOnceEditRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOnceEditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM once_edits WHERE 1=1 AND group_name_norm = $1 AND edit_date >= $2 ORDER BY edit_date")).
		WithArgs("кс11", "2024-09-01").
		WillReturnRows(sqlmock.NewRows(onceColumns))

	edits, err := repo.List(context.Background(), models.EditFilter{Group: "кс11", From: "2024-09-01"})
	require.NoError(t, err)
	assert.Empty(t, edits)
	assert.NoError(t, mock.ExpectationsWereMet())
}
