package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/schedule-api/internal/models"
)

const weekdayScheduleColumns = `id, group_name, group_name_norm, weekday, pair_number,
        to_char(time_start, 'HH24:MI') AS time_start, to_char(time_end, 'HH24:MI') AS time_end,
        COALESCE(subject, '') AS subject, COALESCE(session_type, '') AS session_type,
        COALESCE(room, '') AS room, COALESCE(teacher, '') AS teacher, created_at, updated_at`

// insert columns, group_name_norm is generated
const weekdayScheduleInsertColumns = 9

// maxBulkParams keeps a single INSERT below the Postgres bind parameter limit.
const maxBulkParams = 65535

// WeekdayScheduleRepository persists the base weekday timetable.
type WeekdayScheduleRepository struct {
	db *sqlx.DB
}

// NewWeekdayScheduleRepository constructs a WeekdayScheduleRepository.
func NewWeekdayScheduleRepository(db *sqlx.DB) *WeekdayScheduleRepository {
	return &WeekdayScheduleRepository{db: db}
}

// List returns base entries matching the filter with the total count.
func (r *WeekdayScheduleRepository) List(ctx context.Context, filter models.WeekdayScheduleFilter) ([]models.WeekdayScheduleEntry, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Group != "" {
		conditions = append(conditions, fmt.Sprintf("group_name_norm = $%d", len(args)+1))
		args = append(args, filter.Group)
	}
	if filter.Teacher != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(teacher) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Teacher)+"%")
	}
	if filter.Weekday > 0 {
		conditions = append(conditions, fmt.Sprintf("weekday = $%d", len(args)+1))
		args = append(args, filter.Weekday)
	}
	if filter.Room != "" {
		conditions = append(conditions, fmt.Sprintf("room = $%d", len(args)+1))
		args = append(args, filter.Room)
	}

	base := "FROM weekday_schedule WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"group_name":  "group_name_norm",
		"weekday":     "weekday",
		"pair_number": "pair_number",
		"teacher":     "teacher",
		"created_at":  "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "group_name_norm"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, weekday ASC, pair_number ASC LIMIT %d OFFSET %d", weekdayScheduleColumns, base, column, order, size, offset)

	var entries []models.WeekdayScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list weekday schedule: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count weekday schedule: %w", err)
	}
	return entries, total, nil
}

// ListByGroupDay returns the base pairs of a group on an ISO weekday ordered by pair.
func (r *WeekdayScheduleRepository) ListByGroupDay(ctx context.Context, norm string, weekday int) ([]models.WeekdayScheduleEntry, error) {
	query := "SELECT " + weekdayScheduleColumns + " FROM weekday_schedule WHERE group_name_norm = $1 AND weekday = $2 ORDER BY pair_number"
	var entries []models.WeekdayScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, norm, weekday); err != nil {
		return nil, fmt.Errorf("list weekday schedule by day: %w", err)
	}
	return entries, nil
}

// ListByGroup returns the whole base week of a group.
func (r *WeekdayScheduleRepository) ListByGroup(ctx context.Context, norm string) ([]models.WeekdayScheduleEntry, error) {
	query := "SELECT " + weekdayScheduleColumns + " FROM weekday_schedule WHERE group_name_norm = $1 ORDER BY weekday, pair_number"
	var entries []models.WeekdayScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, norm); err != nil {
		return nil, fmt.Errorf("list weekday schedule by group: %w", err)
	}
	return entries, nil
}

// FindByID returns a base entry or sql.ErrNoRows.
func (r *WeekdayScheduleRepository) FindByID(ctx context.Context, id int64) (*models.WeekdayScheduleEntry, error) {
	query := "SELECT " + weekdayScheduleColumns + " FROM weekday_schedule WHERE id = $1"
	var entry models.WeekdayScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find weekday schedule: %w", err)
	}
	return &entry, nil
}

// Create inserts a base entry and fills the generated columns back.
func (r *WeekdayScheduleRepository) Create(ctx context.Context, entry *models.WeekdayScheduleEntry) error {
	const query = `INSERT INTO weekday_schedule (group_name, weekday, pair_number, time_start, time_end, subject, session_type, room, teacher)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''))
        RETURNING id, group_name_norm, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, entry.GroupName, entry.Weekday, entry.PairNumber, entry.TimeStart, entry.TimeEnd,
		entry.Subject, entry.SessionType, entry.Room, entry.Teacher)
	if err := row.Scan(&entry.ID, &entry.GroupNameNorm, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return mapPQError("create weekday schedule", err)
	}
	return nil
}

// Update overwrites a base entry by ID. Returns sql.ErrNoRows when it does not exist.
func (r *WeekdayScheduleRepository) Update(ctx context.Context, entry *models.WeekdayScheduleEntry) error {
	const query = `UPDATE weekday_schedule SET group_name = $2, weekday = $3, pair_number = $4, time_start = $5, time_end = $6,
        subject = NULLIF($7, ''), session_type = NULLIF($8, ''), room = NULLIF($9, ''), teacher = NULLIF($10, ''), updated_at = now()
        WHERE id = $1
        RETURNING group_name_norm, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, entry.ID, entry.GroupName, entry.Weekday, entry.PairNumber, entry.TimeStart, entry.TimeEnd,
		entry.Subject, entry.SessionType, entry.Room, entry.Teacher)
	if err := row.Scan(&entry.GroupNameNorm, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return mapPQError("update weekday schedule", err)
	}
	return nil
}

// Delete removes a base entry and returns the folded group name it belonged to.
func (r *WeekdayScheduleRepository) Delete(ctx context.Context, id int64) (string, error) {
	var norm string
	if err := r.db.GetContext(ctx, &norm, "DELETE FROM weekday_schedule WHERE id = $1 RETURNING group_name_norm", id); err != nil {
		return "", mapPQError("delete weekday schedule", err)
	}
	return norm, nil
}

// ListGroups returns one display name per folded group, sorted by the folded form.
func (r *WeekdayScheduleRepository) ListGroups(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT ON (group_name_norm) group_name FROM weekday_schedule ORDER BY group_name_norm, group_name`
	var groups []string
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// ListGroupsByTeacher returns the groups a teacher appears in across the base
// timetable, weekly edits and the once edits dated within [from, to].
func (r *WeekdayScheduleRepository) ListGroupsByTeacher(ctx context.Context, teacher, from, to string) ([]string, error) {
	const query = `SELECT DISTINCT ON (group_name_norm) group_name FROM (
            SELECT group_name, group_name_norm FROM weekday_schedule WHERE LOWER(teacher) = LOWER($1)
            UNION SELECT group_name, group_name_norm FROM weekly_edits WHERE LOWER(teacher) = LOWER($1) AND NOT is_deleted
            UNION SELECT group_name, group_name_norm FROM once_edits WHERE LOWER(teacher) = LOWER($1) AND NOT is_deleted AND edit_date BETWEEN $2 AND $3
        ) g ORDER BY group_name_norm, group_name`
	var groups []string
	if err := r.db.SelectContext(ctx, &groups, query, teacher, from, to); err != nil {
		return nil, fmt.Errorf("list groups by teacher: %w", err)
	}
	return groups, nil
}

// ReplaceAll truncates the base timetable and bulk inserts rows in pages inside one
// transaction. Duplicate slots are skipped. Returns the number of rows written.
func (r *WeekdayScheduleRepository) ReplaceAll(ctx context.Context, rows []models.WeekdayScheduleEntry, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = 2000
	}
	if limit := maxBulkParams / weekdayScheduleInsertColumns; pageSize > limit {
		pageSize = limit
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace weekday schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "TRUNCATE weekday_schedule RESTART IDENTITY"); err != nil {
		return 0, fmt.Errorf("truncate weekday schedule: %w", err)
	}

	written := 0
	for start := 0; start < len(rows); start += pageSize {
		end := start + pageSize
		if end > len(rows) {
			end = len(rows)
		}
		query, args := bulkInsertWeekday(rows[start:end])
		var res sql.Result
		res, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			err = mapPQError("insert weekday schedule page", err)
			return 0, err
		}
		affected, _ := res.RowsAffected()
		written += int(affected)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace weekday schedule: %w", err)
	}
	return written, nil
}

func bulkInsertWeekday(rows []models.WeekdayScheduleEntry) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("INSERT INTO weekday_schedule (group_name, weekday, pair_number, time_start, time_end, subject, session_type, room, teacher) VALUES ")
	args := make([]interface{}, 0, len(rows)*weekdayScheduleInsertColumns)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, NULLIF($%d, ''), NULLIF($%d, ''), NULLIF($%d, ''), NULLIF($%d, ''))",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)
		args = append(args, row.GroupName, row.Weekday, row.PairNumber, row.TimeStart, row.TimeEnd,
			row.Subject, row.SessionType, row.Room, row.Teacher)
	}
	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String(), args
}
