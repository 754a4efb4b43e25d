package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/schedule-api/internal/models"
)

const onceEditColumns = `id, group_name, group_name_norm, edit_date, pair_number,
        to_char(time_start, 'HH24:MI') AS time_start, to_char(time_end, 'HH24:MI') AS time_end,
        subject, session_type, room, teacher, is_deleted, created_at, updated_at`

// OnceEditRepository persists date-specific overrides.
type OnceEditRepository struct {
	db *sqlx.DB
}

// NewOnceEditRepository constructs a OnceEditRepository.
func NewOnceEditRepository(db *sqlx.DB) *OnceEditRepository {
	return &OnceEditRepository{db: db}
}

// ListForRange returns the edits of a group dated within [from, to], deleted rows included.
func (r *OnceEditRepository) ListForRange(ctx context.Context, norm, from, to string) ([]models.OnceEdit, error) {
	query := "SELECT " + onceEditColumns + " FROM once_edits WHERE group_name_norm = $1 AND edit_date BETWEEN $2 AND $3 ORDER BY edit_date, pair_number"
	var edits []models.OnceEdit
	if err := r.db.SelectContext(ctx, &edits, query, norm, from, to); err != nil {
		return nil, fmt.Errorf("list once edits: %w", err)
	}
	return edits, nil
}

// List returns once edits for administration.
func (r *OnceEditRepository) List(ctx context.Context, filter models.EditFilter) ([]models.OnceEdit, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Group != "" {
		conditions = append(conditions, fmt.Sprintf("group_name_norm = $%d", len(args)+1))
		args = append(args, filter.Group)
	}
	if filter.From != "" {
		conditions = append(conditions, fmt.Sprintf("edit_date >= $%d", len(args)+1))
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conditions = append(conditions, fmt.Sprintf("edit_date <= $%d", len(args)+1))
		args = append(args, filter.To)
	}
	query := fmt.Sprintf("SELECT %s FROM once_edits WHERE %s ORDER BY edit_date, group_name_norm, pair_number",
		onceEditColumns, strings.Join(conditions, " AND "))
	var edits []models.OnceEdit
	if err := r.db.SelectContext(ctx, &edits, query, args...); err != nil {
		return nil, fmt.Errorf("list once edits: %w", err)
	}
	return edits, nil
}

// FindByID returns a once edit or sql.ErrNoRows.
func (r *OnceEditRepository) FindByID(ctx context.Context, id int64) (*models.OnceEdit, error) {
	var edit models.OnceEdit
	if err := r.db.GetContext(ctx, &edit, "SELECT "+onceEditColumns+" FROM once_edits WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find once edit: %w", err)
	}
	return &edit, nil
}

// Upsert writes the edit for its group, date and pair.
func (r *OnceEditRepository) Upsert(ctx context.Context, edit *models.OnceEdit) error {
	const query = `INSERT INTO once_edits (group_name, edit_date, pair_number, time_start, time_end, subject, session_type, room, teacher, is_deleted)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (group_name_norm, edit_date, pair_number) DO UPDATE SET
            group_name = EXCLUDED.group_name, time_start = EXCLUDED.time_start, time_end = EXCLUDED.time_end,
            subject = EXCLUDED.subject, session_type = EXCLUDED.session_type, room = EXCLUDED.room,
            teacher = EXCLUDED.teacher, is_deleted = EXCLUDED.is_deleted, updated_at = now()
        RETURNING id, group_name_norm, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, edit.GroupName, edit.EditDate.Format(models.DateLayout), edit.PairNumber,
		edit.TimeStart, edit.TimeEnd, edit.Subject, edit.SessionType, edit.Room, edit.Teacher, edit.IsDeleted)
	if err := row.Scan(&edit.ID, &edit.GroupNameNorm, &edit.CreatedAt, &edit.UpdatedAt); err != nil {
		return mapPQError("upsert once edit", err)
	}
	return nil
}

// Update rewrites an edit by ID. Returns sql.ErrNoRows when it does not exist.
func (r *OnceEditRepository) Update(ctx context.Context, edit *models.OnceEdit) error {
	const query = `UPDATE once_edits SET group_name = $2, edit_date = $3, pair_number = $4,
            time_start = $5, time_end = $6, subject = $7, session_type = $8, room = $9, teacher = $10,
            is_deleted = $11, updated_at = now()
        WHERE id = $1
        RETURNING group_name_norm, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, edit.ID, edit.GroupName, edit.EditDate.Format(models.DateLayout), edit.PairNumber,
		edit.TimeStart, edit.TimeEnd, edit.Subject, edit.SessionType, edit.Room, edit.Teacher, edit.IsDeleted)
	if err := row.Scan(&edit.GroupNameNorm, &edit.CreatedAt, &edit.UpdatedAt); err != nil {
		return mapPQError("update once edit", err)
	}
	return nil
}

// Delete removes an edit and returns the folded group name of the removed row.
func (r *OnceEditRepository) Delete(ctx context.Context, id int64) (string, error) {
	var norm string
	if err := r.db.GetContext(ctx, &norm, "DELETE FROM once_edits WHERE id = $1 RETURNING group_name_norm", id); err != nil {
		return "", mapPQError("delete once edit", err)
	}
	return norm, nil
}

// PurgeBefore drops once edits older than the given date and returns how many went.
func (r *OnceEditRepository) PurgeBefore(ctx context.Context, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM once_edits WHERE edit_date < $1", date)
	if err != nil {
		return 0, fmt.Errorf("purge once edits: %w", err)
	}
	return res.RowsAffected()
}
