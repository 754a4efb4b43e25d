package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-api/internal/dto"
	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/groupname"
)

type fakeWeeklyStore struct {
	byID    map[int64]*models.WeeklyEdit
	nextID  int64
	upserts int
	filter  models.EditFilter
}

func newFakeWeeklyStore() *fakeWeeklyStore {
	return &fakeWeeklyStore{byID: map[int64]*models.WeeklyEdit{}, nextID: 1}
}

func (f *fakeWeeklyStore) List(ctx context.Context, filter models.EditFilter) ([]models.WeeklyEdit, error) {
	f.filter = filter
	return nil, nil
}

func (f *fakeWeeklyStore) FindByID(ctx context.Context, id int64) (*models.WeeklyEdit, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeWeeklyStore) Upsert(ctx context.Context, edit *models.WeeklyEdit) error {
	f.upserts++
	for _, e := range f.byID {
		if e.GroupNameNorm == edit.GroupNameNorm && e.DayOfWeek == edit.DayOfWeek && e.WeekType == edit.WeekType && e.PairNumber == edit.PairNumber {
			edit.ID = e.ID
			f.byID[e.ID] = edit
			return nil
		}
	}
	edit.ID = f.nextID
	f.nextID++
	f.byID[edit.ID] = edit
	return nil
}

func (f *fakeWeeklyStore) Update(ctx context.Context, edit *models.WeeklyEdit) error {
	if _, ok := f.byID[edit.ID]; !ok {
		return sql.ErrNoRows
	}
	f.byID[edit.ID] = edit
	return nil
}

func (f *fakeWeeklyStore) Delete(ctx context.Context, id int64) (string, error) {
	e, ok := f.byID[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	delete(f.byID, id)
	return e.GroupNameNorm, nil
}

type fakeOnceStore struct {
	byID        map[int64]*models.OnceEdit
	purgeBefore string
}

func (f *fakeOnceStore) List(ctx context.Context, filter models.EditFilter) ([]models.OnceEdit, error) {
	return nil, nil
}

func (f *fakeOnceStore) FindByID(ctx context.Context, id int64) (*models.OnceEdit, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOnceStore) Upsert(ctx context.Context, edit *models.OnceEdit) error {
	edit.ID = int64(len(f.byID) + 1)
	f.byID[edit.ID] = edit
	return nil
}

func (f *fakeOnceStore) Update(ctx context.Context, edit *models.OnceEdit) error {
	if _, ok := f.byID[edit.ID]; !ok {
		return sql.ErrNoRows
	}
	f.byID[edit.ID] = edit
	return nil
}

func (f *fakeOnceStore) Delete(ctx context.Context, id int64) (string, error) {
	e, ok := f.byID[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	delete(f.byID, id)
	return e.GroupNameNorm, nil
}

func (f *fakeOnceStore) PurgeBefore(ctx context.Context, date string) (int64, error) {
	f.purgeBefore = date
	return 3, nil
}

func newEditServiceForTest() (*EditService, *fakeWeeklyStore, *fakeOnceStore, *memoryCache) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	weekly := newFakeWeeklyStore()
	once := &fakeOnceStore{byID: map[int64]*models.OnceEdit{}}
	return NewEditService(weekly, once, cache, nil, nil), weekly, once, store
}

func TestEditServicePutWeeklyNormalizesAndInvalidates(t *testing.T) {
	svc, weekly, _, store := newEditServiceForTest()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, DayCacheKey("исп21", "2024-09-02"), "x", 0))
	require.NoError(t, store.Set(ctx, WeekCacheKey("кс11", "2024-09-02"), "y", 0))

	edit, err := svc.PutWeekly(ctx, dto.WeeklyEditRequest{
		GroupName: " ИСП-21 ", DayOfWeek: 1, WeekType: "odd", PairNumber: 2,
		LessonOverride: dto.LessonOverride{TimeStart: strPtr("9:00"), TimeEnd: strPtr("10:30"), Room: strPtr(" 305 ")},
	})
	require.NoError(t, err)
	assert.Equal(t, "ИСП-21", edit.GroupName)
	assert.Equal(t, groupname.Normalize("ИСП-21"), edit.GroupNameNorm)
	assert.Equal(t, "09:00", *edit.TimeStart)
	assert.Equal(t, "305", *edit.Room)
	assert.Equal(t, models.WeekParityOdd, edit.WeekType)
	assert.Equal(t, []string{WeekCacheKey("кс11", "2024-09-02")}, store.keys())

	again, err := svc.PutWeekly(ctx, dto.WeeklyEditRequest{GroupName: "исп 21", DayOfWeek: 1, WeekType: "odd", PairNumber: 2, IsDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, edit.ID, again.ID, "same slot replaces the previous edit")
	assert.Equal(t, 2, weekly.upserts)
}

func TestEditServicePutWeeklyDefaultsToAllWeeks(t *testing.T) {
	svc, _, _, _ := newEditServiceForTest()
	edit, err := svc.PutWeekly(context.Background(), dto.WeeklyEditRequest{GroupName: "КС-11", DayOfWeek: 5, PairNumber: 1, LessonOverride: dto.LessonOverride{Subject: strPtr("Сети")}})
	require.NoError(t, err)
	assert.Equal(t, models.WeekParityAll, edit.WeekType)
}

func TestEditServiceValidation(t *testing.T) {
	svc, _, _, _ := newEditServiceForTest()
	ctx := context.Background()

	cases := []dto.WeeklyEditRequest{
		{GroupName: "КС-11", DayOfWeek: 8, PairNumber: 1, IsDeleted: true},
		{GroupName: "КС-11", DayOfWeek: 1, PairNumber: 21, IsDeleted: true},
		{GroupName: "КС-11", DayOfWeek: 1, PairNumber: 1, WeekType: "sometimes", IsDeleted: true},
		{GroupName: "КС-11", DayOfWeek: 1, PairNumber: 1},
		{GroupName: "КС-11", DayOfWeek: 1, PairNumber: 1, LessonOverride: dto.LessonOverride{TimeStart: strPtr("11:00"), TimeEnd: strPtr("10:00")}},
		{GroupName: "КС-11", DayOfWeek: 1, PairNumber: 1, LessonOverride: dto.LessonOverride{TimeStart: strPtr("25:00")}},
		{GroupName: "", DayOfWeek: 1, PairNumber: 1, IsDeleted: true},
	}
	for i, req := range cases {
		_, err := svc.PutWeekly(ctx, req)
		require.Error(t, err, "case %d", i)
		assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status, "case %d", i)
	}
}

func TestEditServiceUpdateAndDeleteWeekly(t *testing.T) {
	svc, weekly, _, _ := newEditServiceForTest()
	ctx := context.Background()

	_, err := svc.UpdateWeekly(ctx, 42, dto.WeeklyEditRequest{GroupName: "КС-11", DayOfWeek: 1, PairNumber: 1, IsDeleted: true})
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	created, err := svc.PutWeekly(ctx, dto.WeeklyEditRequest{GroupName: "КС-11", DayOfWeek: 1, PairNumber: 1, IsDeleted: true})
	require.NoError(t, err)

	updated, err := svc.UpdateWeekly(ctx, created.ID, dto.WeeklyEditRequest{GroupName: "КС-11", DayOfWeek: 2, PairNumber: 1, LessonOverride: dto.LessonOverride{Room: strPtr("1")}})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.DayOfWeek)
	assert.False(t, weekly.byID[created.ID].IsDeleted)

	require.NoError(t, svc.DeleteWeekly(ctx, created.ID))
	err = svc.DeleteWeekly(ctx, created.ID)
	assert.Equal(t, "weekly edit not found", appErrors.FromError(err).Message)
}

func TestEditServiceListWeeklyFoldsGroup(t *testing.T) {
	svc, weekly, _, _ := newEditServiceForTest()
	edits, err := svc.ListWeekly(context.Background(), models.EditFilter{Group: "ИСП-21"})
	require.NoError(t, err)
	assert.NotNil(t, edits)
	assert.Equal(t, "исп21", weekly.filter.Group)
}

func TestEditServiceOnceLifecycle(t *testing.T) {
	svc, _, once, store := newEditServiceForTest()
	ctx := context.Background()

	_, err := svc.PutOnce(ctx, dto.OnceEditRequest{GroupName: "ИСП-21", EditDate: "2024-13-01", PairNumber: 1, IsDeleted: true})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	edit, err := svc.PutOnce(ctx, dto.OnceEditRequest{GroupName: "ИСП-21", EditDate: "2024-09-04", PairNumber: 1, IsDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, "2024-09-04", edit.EditDate.Format(models.DateLayout))

	_, err = svc.ListOnce(ctx, models.EditFilter{From: "yesterday"})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	require.NoError(t, store.Set(ctx, DayCacheKey("исп21", "2024-08-30"), models.DaySchedule{}, 0))
	require.NoError(t, store.Set(ctx, WeekCacheKey("кс11", "2024-08-26"), models.WeekSchedule{}, 0))
	removed, err := svc.PurgeOnce(ctx, "2024-09-01")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Equal(t, "2024-09-01", once.purgeBefore)
	assert.Empty(t, store.keys(), "purge must drop cached schedules of every group")

	require.NoError(t, svc.DeleteOnce(ctx, edit.ID))
	_, err = svc.GetOnce(ctx, edit.ID)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}
