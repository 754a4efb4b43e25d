package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/schedule-api/internal/models"
)

// DateScheduleRepository reads the legacy per-date timetable.
type DateScheduleRepository struct {
	db *sqlx.DB
}

// NewDateScheduleRepository constructs a DateScheduleRepository.
func NewDateScheduleRepository(db *sqlx.DB) *DateScheduleRepository {
	return &DateScheduleRepository{db: db}
}

// ListByGroupDate returns the stored pairs of a group on a date ordered by pair.
func (r *DateScheduleRepository) ListByGroupDate(ctx context.Context, norm, date string) ([]models.DateScheduleEntry, error) {
	const query = `SELECT id, group_name, group_name_norm, date, pair_number,
        to_char(time_start, 'HH24:MI') AS time_start, to_char(time_end, 'HH24:MI') AS time_end,
        COALESCE(subject, '') AS subject, COALESCE(session_type, '') AS session_type,
        COALESCE(room, '') AS room, COALESCE(teacher, '') AS teacher
        FROM date_schedule WHERE group_name_norm = $1 AND date = $2 ORDER BY pair_number`
	var entries []models.DateScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, norm, date); err != nil {
		return nil, fmt.Errorf("list date schedule: %w", err)
	}
	return entries, nil
}
