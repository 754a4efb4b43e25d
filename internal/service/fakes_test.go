package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

type fakeBaseRepo struct {
	rows          []models.WeekdayScheduleEntry
	groups        []string
	teacherGroups []string
	err           error
	calls         int
}

func (f *fakeBaseRepo) ListByGroupDay(ctx context.Context, norm string, weekday int) ([]models.WeekdayScheduleEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.WeekdayScheduleEntry
	for _, r := range f.rows {
		if r.GroupNameNorm == norm && r.Weekday == weekday {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBaseRepo) ListByGroup(ctx context.Context, norm string) ([]models.WeekdayScheduleEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.WeekdayScheduleEntry
	for _, r := range f.rows {
		if r.GroupNameNorm == norm {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBaseRepo) ListGroups(ctx context.Context) ([]string, error) {
	return f.groups, f.err
}

func (f *fakeBaseRepo) ListGroupsByTeacher(ctx context.Context, teacher, from, to string) ([]string, error) {
	return f.teacherGroups, f.err
}

type fakeWeeklyRepo struct {
	edits []models.WeeklyEdit
	err   error
}

func (f *fakeWeeklyRepo) ListForDay(ctx context.Context, norm string, weekday int, parities []models.WeekParity) ([]models.WeeklyEdit, error) {
	all, err := f.ListForGroup(ctx, norm, parities)
	var out []models.WeeklyEdit
	for _, e := range all {
		if e.DayOfWeek == weekday {
			out = append(out, e)
		}
	}
	return out, err
}

func (f *fakeWeeklyRepo) ListForGroup(ctx context.Context, norm string, parities []models.WeekParity) ([]models.WeeklyEdit, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.WeeklyEdit
	for _, e := range f.edits {
		if e.GroupNameNorm != norm {
			continue
		}
		for _, p := range parities {
			if e.WeekType == p {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

type fakeOnceRepo struct {
	edits []models.OnceEdit
	err   error
}

func (f *fakeOnceRepo) ListForRange(ctx context.Context, norm, from, to string) ([]models.OnceEdit, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.OnceEdit
	for _, e := range f.edits {
		d := e.EditDate.Format(models.DateLayout)
		if e.GroupNameNorm == norm && d >= from && d <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeLegacyRepo struct {
	rows []models.DateScheduleEntry
}

func (f *fakeLegacyRepo) ListByGroupDate(ctx context.Context, norm, date string) ([]models.DateScheduleEntry, error) {
	return f.rows, nil
}

// memoryCache is a CacheRepository keeping JSON payloads in a map.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
			removed++
		}
	}
	return removed, nil
}

func (m *memoryCache) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	return out
}
