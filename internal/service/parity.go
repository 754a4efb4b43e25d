package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/schedule-api/internal/models"
)

// WeekAnchor fixes which teaching weeks are odd. The zero value means no anchor.
type WeekAnchor struct {
	monday time.Time
	set    bool
}

// ParseWeekAnchor reads a YYYY-MM-DD date inside an odd week. Any day of that week
// is accepted and snapped to its Monday. Blank input yields an unset anchor.
func ParseWeekAnchor(raw string) (WeekAnchor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return WeekAnchor{}, nil
	}
	date, err := ParseDate(raw)
	if err != nil {
		return WeekAnchor{}, fmt.Errorf("odd week anchor: %w", err)
	}
	return WeekAnchor{monday: MondayOf(date), set: true}, nil
}

// IsSet reports whether an anchor was configured.
func (a WeekAnchor) IsSet() bool {
	return a.set
}

// ParityFor classifies the week containing date. Weeks are counted from the anchor
// week, which is odd; weeks before the anchor alternate the same way.
func (a WeekAnchor) ParityFor(date time.Time) (models.WeekParity, bool) {
	if !a.set {
		return "", false
	}
	days := daysBetween(a.monday, date)
	if floorDiv(days, 7)%2 == 0 {
		return models.WeekParityOdd, true
	}
	return models.WeekParityEven, true
}

// parities returns the weekly edit scopes that apply in a week of the given parity.
func parities(parity models.WeekParity) []models.WeekParity {
	if parity == "" {
		return []models.WeekParity{models.WeekParityAll}
	}
	return []models.WeekParity{models.WeekParityAll, parity}
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, strings.TrimSpace(raw), time.UTC)
}

// ISOWeekday maps Monday to 1 and Sunday to 7.
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MondayOf returns the Monday starting the ISO week of date.
func MondayOf(date time.Time) time.Time {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, 1-ISOWeekday(day))
}

func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// floorDiv rounds toward negative infinity so dates before the anchor keep alternating.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
