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

type fakeBaseStore struct {
	entries   map[int64]*models.WeekdayScheduleEntry
	filter    models.WeekdayScheduleFilter
	createErr error
}

func (f *fakeBaseStore) List(ctx context.Context, filter models.WeekdayScheduleFilter) ([]models.WeekdayScheduleEntry, int, error) {
	f.filter = filter
	return nil, 0, nil
}

func (f *fakeBaseStore) FindByID(ctx context.Context, id int64) (*models.WeekdayScheduleEntry, error) {
	if e, ok := f.entries[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeBaseStore) Create(ctx context.Context, entry *models.WeekdayScheduleEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	entry.ID = int64(len(f.entries) + 1)
	entry.GroupNameNorm = groupname.Normalize(entry.GroupName)
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeBaseStore) Update(ctx context.Context, entry *models.WeekdayScheduleEntry) error {
	entry.GroupNameNorm = groupname.Normalize(entry.GroupName)
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeBaseStore) Delete(ctx context.Context, id int64) (string, error) {
	e, ok := f.entries[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	delete(f.entries, id)
	return e.GroupNameNorm, nil
}

func newBaseServiceForTest() (*BaseScheduleService, *fakeBaseStore, *memoryCache) {
	store := newMemoryCache()
	repo := &fakeBaseStore{entries: map[int64]*models.WeekdayScheduleEntry{}}
	return NewBaseScheduleService(repo, NewCacheService(store, nil, time.Minute, nil, true), nil, nil), repo, store
}

func TestBaseScheduleServiceCreate(t *testing.T) {
	svc, _, store := newBaseServiceForTest()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, DayCacheKey("кс11", "2024-09-02"), 1, 0))

	entry, err := svc.Create(ctx, dto.BaseEntryRequest{GroupName: "KC-11", Weekday: 1, PairNumber: 1, TimeStart: "8:30", TimeEnd: "10:00", Subject: " Сети "})
	require.NoError(t, err)
	assert.Equal(t, "08:30", entry.TimeStart)
	assert.Equal(t, "Сети", entry.Subject)
	assert.Equal(t, "кс11", entry.GroupNameNorm)
	assert.Empty(t, store.keys(), "latin KC-11 folds onto кс11 and drops its cache")
}

func TestBaseScheduleServiceCreateValidation(t *testing.T) {
	svc, _, _ := newBaseServiceForTest()
	ctx := context.Background()

	bad := []dto.BaseEntryRequest{
		{GroupName: "КС-11", Weekday: 0, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00"},
		{GroupName: "КС-11", Weekday: 1, PairNumber: 0, TimeStart: "08:30", TimeEnd: "10:00"},
		{GroupName: "КС-11", Weekday: 1, PairNumber: 1, TimeStart: "10:00", TimeEnd: "08:30"},
		{GroupName: "КС-11", Weekday: 1, PairNumber: 1, TimeStart: "half past eight", TimeEnd: "10:00"},
	}
	for i, req := range bad {
		_, err := svc.Create(ctx, req)
		assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status, "case %d", i)
	}
}

func TestBaseScheduleServiceCreateConflictPassesThrough(t *testing.T) {
	svc, repo, _ := newBaseServiceForTest()
	repo.createErr = appErrors.Clone(appErrors.ErrConflict, "group already has a lesson in this weekday and pair")

	_, err := svc.Create(context.Background(), dto.BaseEntryRequest{GroupName: "КС-11", Weekday: 1, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00"})
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
}

func TestBaseScheduleServiceUpdateAndDelete(t *testing.T) {
	svc, _, _ := newBaseServiceForTest()
	ctx := context.Background()

	_, err := svc.Update(ctx, 9, dto.BaseEntryRequest{GroupName: "КС-11", Weekday: 1, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00"})
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	created, err := svc.Create(ctx, dto.BaseEntryRequest{GroupName: "КС-11", Weekday: 1, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00"})
	require.NoError(t, err)
	updated, err := svc.Update(ctx, created.ID, dto.BaseEntryRequest{GroupName: "КС-12", Weekday: 2, PairNumber: 3, TimeStart: "12:00", TimeEnd: "13:30"})
	require.NoError(t, err)
	assert.Equal(t, "кс12", updated.GroupNameNorm)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(svc.Delete(ctx, created.ID)).Status)
}

func TestBaseScheduleServiceListPagination(t *testing.T) {
	svc, repo, _ := newBaseServiceForTest()
	entries, page, err := svc.List(context.Background(), models.WeekdayScheduleFilter{Group: "ИСП-21", Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.PageSize)
	assert.Equal(t, "исп21", repo.filter.Group)
}
