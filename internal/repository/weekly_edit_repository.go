package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/schedule-api/internal/models"
)

const weeklyEditColumns = `id, group_name, group_name_norm, day_of_week, week_type, pair_number,
        to_char(time_start, 'HH24:MI') AS time_start, to_char(time_end, 'HH24:MI') AS time_end,
        subject, session_type, room, teacher, is_deleted, imported, created_at, updated_at`

// WeeklyEditRepository persists recurring overrides of the base timetable.
type WeeklyEditRepository struct {
	db *sqlx.DB
}

// NewWeeklyEditRepository constructs a WeeklyEditRepository.
func NewWeeklyEditRepository(db *sqlx.DB) *WeeklyEditRepository {
	return &WeeklyEditRepository{db: db}
}

// ListForGroup returns the edits of a group for the given parities, deleted rows included
// because they suppress base pairs.
func (r *WeeklyEditRepository) ListForGroup(ctx context.Context, norm string, parities []models.WeekParity) ([]models.WeeklyEdit, error) {
	query := "SELECT " + weeklyEditColumns + " FROM weekly_edits WHERE group_name_norm = $1 AND week_type = ANY($2) ORDER BY day_of_week, pair_number, week_type"
	var edits []models.WeeklyEdit
	if err := r.db.SelectContext(ctx, &edits, query, norm, pq.Array(parityStrings(parities))); err != nil {
		return nil, fmt.Errorf("list weekly edits: %w", err)
	}
	return edits, nil
}

// ListForDay is ListForGroup narrowed to one ISO weekday.
func (r *WeeklyEditRepository) ListForDay(ctx context.Context, norm string, weekday int, parities []models.WeekParity) ([]models.WeeklyEdit, error) {
	query := "SELECT " + weeklyEditColumns + " FROM weekly_edits WHERE group_name_norm = $1 AND day_of_week = $2 AND week_type = ANY($3) ORDER BY pair_number, week_type"
	var edits []models.WeeklyEdit
	if err := r.db.SelectContext(ctx, &edits, query, norm, weekday, pq.Array(parityStrings(parities))); err != nil {
		return nil, fmt.Errorf("list weekly edits for day: %w", err)
	}
	return edits, nil
}

// List returns weekly edits for administration.
func (r *WeeklyEditRepository) List(ctx context.Context, filter models.EditFilter) ([]models.WeeklyEdit, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Group != "" {
		conditions = append(conditions, fmt.Sprintf("group_name_norm = $%d", len(args)+1))
		args = append(args, filter.Group)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	query := fmt.Sprintf("SELECT %s FROM weekly_edits WHERE %s ORDER BY group_name_norm, day_of_week, pair_number, week_type",
		weeklyEditColumns, strings.Join(conditions, " AND "))
	var edits []models.WeeklyEdit
	if err := r.db.SelectContext(ctx, &edits, query, args...); err != nil {
		return nil, fmt.Errorf("list weekly edits: %w", err)
	}
	return edits, nil
}

// FindByID returns a weekly edit or sql.ErrNoRows.
func (r *WeeklyEditRepository) FindByID(ctx context.Context, id int64) (*models.WeeklyEdit, error) {
	var edit models.WeeklyEdit
	if err := r.db.GetContext(ctx, &edit, "SELECT "+weeklyEditColumns+" FROM weekly_edits WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find weekly edit: %w", err)
	}
	return &edit, nil
}

// Upsert writes the edit for its slot, replacing any existing edit of the same
// group, weekday, parity and pair.
func (r *WeeklyEditRepository) Upsert(ctx context.Context, edit *models.WeeklyEdit) error {
	const query = `INSERT INTO weekly_edits (group_name, day_of_week, week_type, pair_number, time_start, time_end, subject, session_type, room, teacher, is_deleted)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (group_name_norm, day_of_week, week_type, pair_number) DO UPDATE SET
            group_name = EXCLUDED.group_name, time_start = EXCLUDED.time_start, time_end = EXCLUDED.time_end,
            subject = EXCLUDED.subject, session_type = EXCLUDED.session_type, room = EXCLUDED.room,
            teacher = EXCLUDED.teacher, is_deleted = EXCLUDED.is_deleted, imported = FALSE, updated_at = now()
        RETURNING id, group_name_norm, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, edit.GroupName, edit.DayOfWeek, string(edit.WeekType), edit.PairNumber,
		edit.TimeStart, edit.TimeEnd, edit.Subject, edit.SessionType, edit.Room, edit.Teacher, edit.IsDeleted)
	if err := row.Scan(&edit.ID, &edit.GroupNameNorm, &edit.CreatedAt, &edit.UpdatedAt); err != nil {
		return mapPQError("upsert weekly edit", err)
	}
	return nil
}

// Update rewrites an edit by ID. Returns sql.ErrNoRows when it does not exist.
func (r *WeeklyEditRepository) Update(ctx context.Context, edit *models.WeeklyEdit) error {
	const query = `UPDATE weekly_edits SET group_name = $2, day_of_week = $3, week_type = $4, pair_number = $5,
            time_start = $6, time_end = $7, subject = $8, session_type = $9, room = $10, teacher = $11,
            is_deleted = $12, imported = FALSE, updated_at = now()
        WHERE id = $1
        RETURNING group_name_norm, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, edit.ID, edit.GroupName, edit.DayOfWeek, string(edit.WeekType), edit.PairNumber,
		edit.TimeStart, edit.TimeEnd, edit.Subject, edit.SessionType, edit.Room, edit.Teacher, edit.IsDeleted)
	if err := row.Scan(&edit.GroupNameNorm, &edit.CreatedAt, &edit.UpdatedAt); err != nil {
		return mapPQError("update weekly edit", err)
	}
	return nil
}

// Delete removes an edit so the base pair shows through again. Returns the folded
// group name of the removed row.
func (r *WeeklyEditRepository) Delete(ctx context.Context, id int64) (string, error) {
	var norm string
	if err := r.db.GetContext(ctx, &norm, "DELETE FROM weekly_edits WHERE id = $1 RETURNING group_name_norm", id); err != nil {
		return "", mapPQError("delete weekly edit", err)
	}
	return norm, nil
}

// ReplaceImported drops the edits a previous import produced and inserts the new
// ones in one transaction. Edits made by hand are never touched and win over an
// imported row for the same slot. Editing an imported row by hand adopts it.
func (r *WeeklyEditRepository) ReplaceImported(ctx context.Context, edits []models.WeeklyEdit) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace weekly edits: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM weekly_edits WHERE imported"); err != nil {
		return 0, fmt.Errorf("clear imported weekly edits: %w", err)
	}

	const query = `INSERT INTO weekly_edits (group_name, day_of_week, week_type, pair_number, time_start, time_end, subject, session_type, room, teacher, imported)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
        ON CONFLICT (group_name_norm, day_of_week, week_type, pair_number) DO NOTHING`
	written := 0
	for _, edit := range edits {
		var res sql.Result
		res, err = tx.ExecContext(ctx, query, edit.GroupName, edit.DayOfWeek, string(edit.WeekType), edit.PairNumber,
			edit.TimeStart, edit.TimeEnd, edit.Subject, edit.SessionType, edit.Room, edit.Teacher)
		if err != nil {
			err = mapPQError("insert imported weekly edit", err)
			return 0, err
		}
		affected, _ := res.RowsAffected()
		written += int(affected)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace weekly edits: %w", err)
	}
	return written, nil
}

func parityStrings(parities []models.WeekParity) []string {
	out := make([]string, 0, len(parities))
	for _, p := range parities {
		out = append(out, string(p))
	}
	return out
}
