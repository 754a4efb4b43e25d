package service

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/schedule-api/internal/models"
)

const (
	importFormatStructured = "structured"
	importFormatLegacy     = "legacy"
)

var weekdayNames = map[string]int{
	"понедельник": 1,
	"вторник":     2,
	"среда":       3,
	"четверг":     4,
	"пятница":     5,
	"суббота":     6,
	"воскресенье": 7,
}

const (
	colGroup       = "группа"
	colDay         = "день недели"
	colPair        = "номер пары"
	colStart       = "время начала"
	colEnd         = "время окончания"
	colSubject     = "название предмета"
	colTeacher     = "преподаватель"
	colRoom        = "аудитория"
	colWeekType    = "тип недели"
	colSessionType = "вид занятия"
)

var structuredColumns = []string{colGroup, colDay, colPair, colStart, colEnd, colSubject, colTeacher, colRoom, colWeekType}

var (
	timeRangeRe  = regexp.MustCompile(`(\d{1,2})[.:](\d{2})\s*[-–]\s*(\d{1,2})[.:](\d{2})`)
	clockRe      = regexp.MustCompile(`^(\d{1,2})[.:](\d{2})(?::\d{2})?$`)
	roomHeaderRe = regexp.MustCompile(`(Ауд|ауд|^[0-9A-Za-zА-Яа-я\-]+$)`)
	groupTokenRe = regexp.MustCompile(`[A-Za-zА-Яа-яёЁ0-9/.\-]{3,}`)
	personNameRe = regexp.MustCompile(`[А-ЯЁ][а-яё]+(?:\s+[А-ЯЁ][а-яё]+){0,2}`)
)

// legacyTimeCol bounds the leading columns searched for the time column.
const legacyTimeCol = 5

// ScheduleRow is one lesson read from a schedule workbook.
type ScheduleRow struct {
	GroupName   string
	Weekday     int
	PairNumber  int
	TimeStart   string
	TimeEnd     string
	Subject     string
	SessionType string
	Room        string
	Teacher     string
	WeekType    models.WeekParity
}

// ParsedSchedule is the outcome of reading a workbook.
type ParsedSchedule struct {
	Format  string
	Rows    []ScheduleRow
	Skipped int
}

// TeacherLogin is one row of the teacher credentials workbook.
type TeacherLogin struct {
	FullName string
	Username string
	Password string
}

// ParseScheduleWorkbook reads a structured workbook (one sheet with named columns)
// and falls back to the legacy layout with one sheet per weekday.
func ParseScheduleWorkbook(r io.Reader) (*ParsedSchedule, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	first, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if parsed, ok := parseStructured(first); ok {
		return parsed, nil
	}

	parsed := &ParsedSchedule{Format: importFormatLegacy}
	for _, name := range sheets {
		weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		parsed.Rows = append(parsed.Rows, parseLegacySheet(rows, weekday)...)
	}
	return parsed, nil
}

func parseStructured(rows [][]string) (*ParsedSchedule, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	index := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	for _, col := range structuredColumns {
		if _, ok := index[col]; !ok {
			return nil, false
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	parsed := &ParsedSchedule{Format: importFormatStructured}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		group := cell(row, colGroup)
		weekday := weekdayNames[strings.ToLower(cell(row, colDay))]
		pair := parseCellInt(cell(row, colPair))
		if group == "" || strings.EqualFold(group, "nan") || weekday == 0 || pair <= 0 {
			parsed.Skipped++
			continue
		}

		subject := cell(row, colSubject)
		start, end := lessonTimes(cell(row, colStart), cell(row, colEnd), subject)
		if start == "" || end == "" {
			parsed.Skipped++
			continue
		}

		weekType, ok := models.ParseWeekParity(cell(row, colWeekType))
		if !ok {
			weekType = models.WeekParityAll
		}

		parsed.Rows = append(parsed.Rows, ScheduleRow{
			GroupName:   group,
			Weekday:     weekday,
			PairNumber:  pair,
			TimeStart:   start,
			TimeEnd:     end,
			Subject:     subject,
			SessionType: cell(row, colSessionType),
			Room:        cell(row, colRoom),
			Teacher:     cell(row, colTeacher),
			WeekType:    weekType,
		})
	}
	return parsed, true
}

// lessonTimes accepts a "08:20-09:50" range in the start cell, two separate clock
// cells, or as a last resort a range written into the subject.
func lessonTimes(startCell, endCell, subject string) (string, string) {
	if start, end, ok := timeRange(startCell); ok {
		return start, end
	}
	start, _ := parseClockCell(startCell)
	end, _ := parseClockCell(endCell)
	if start == "" || end == "" {
		if s, e, ok := timeRange(subject); ok {
			if start == "" {
				start = s
			}
			if end == "" {
				end = e
			}
		}
	}
	return start, end
}

func timeRange(raw string) (string, string, bool) {
	m := timeRangeRe.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	start, ok1 := clock(m[1], m[2])
	end, ok2 := clock(m[3], m[4])
	if !ok1 || !ok2 {
		return "", "", false
	}
	return start, end, true
}

// parseClockCell reads H:MM, H.MM, H:MM:SS or an Excel day fraction such as 0.347222.
func parseClockCell(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if m := clockRe.FindStringSubmatch(raw); m != nil {
		return clock(m[1], m[2])
	}
	if frac, err := strconv.ParseFloat(raw, 64); err == nil && frac > 0 && frac < 1 {
		minutes := int(math.Round(frac * 24 * 60))
		return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), true
	}
	return "", false
}

func clock(h, m string) (string, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func parseCellInt(raw string) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) {
		return int(f)
	}
	return 0
}

func parseLegacySheet(rows [][]string, weekday int) []ScheduleRow {
	at := func(r, c int) string {
		if r >= len(rows) || c >= len(rows[r]) {
			return ""
		}
		return strings.TrimSpace(rows[r][c])
	}

	headerRow := 0
	for r := 0; r < len(rows) && r < 5; r++ {
		if rowContains(rows[r], "Ауд") {
			headerRow = r
			break
		}
	}
	timeCol := legacyTimeColumn(rows)

	rooms := make(map[int]string)
	for r := headerRow; r < headerRow+3 && r < len(rows); r++ {
		for c := range rows[r] {
			if c == timeCol {
				continue
			}
			if val := at(r, c); val != "" && roomHeaderRe.MatchString(val) {
				rooms[c] = val
			}
		}
	}

	var out []ScheduleRow
	pair := 0
	for r := headerRow + 1; r < len(rows); r++ {
		start, end, ok := timeRange(at(r, timeCol))
		if !ok {
			continue
		}
		pair++
		for c := range rows[r] {
			if c == timeCol {
				continue
			}
			text := at(r, c)
			if text == "" || strings.EqualFold(text, "nan") {
				continue
			}
			teacher := personName(text)
			for _, group := range legacyGroups(text) {
				out = append(out, ScheduleRow{
					GroupName:  group,
					Weekday:    weekday,
					PairNumber: pair,
					TimeStart:  start,
					TimeEnd:    end,
					Room:       rooms[c],
					Teacher:    teacher,
					WeekType:   models.WeekParityAll,
				})
			}
		}
	}
	return out
}

// legacyGroups returns the group-like tokens of a cell. Tokens without a digit
// are parts of a teacher name or a subject.
func legacyGroups(text string) []string {
	var out []string
	for _, token := range groupTokenRe.FindAllString(text, -1) {
		if strings.IndexFunc(token, unicode.IsDigit) >= 0 {
			out = append(out, token)
		}
	}
	return out
}

// legacyTimeColumn is the first of the leading columns holding a time range in
// the top rows of the sheet.
func legacyTimeColumn(rows [][]string) int {
	for c := 0; c < legacyTimeCol; c++ {
		for r := 0; r < len(rows) && r < 8; r++ {
			if c < len(rows[r]) && timeRangeRe.MatchString(rows[r][c]) {
				return c
			}
		}
	}
	return 0
}

// personName extracts the first capitalised Cyrillic name of up to three words
// that starts a word. Cells without one are returned whole.
func personName(text string) string {
	for _, loc := range personNameRe.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) || prev == '_' {
				continue
			}
		}
		if loc[1] < len(text) {
			next, _ := utf8.DecodeRuneInString(text[loc[1]:])
			if unicode.IsLetter(next) || unicode.IsDigit(next) || next == '_' {
				continue
			}
		}
		return strings.TrimSpace(text[loc[0]:loc[1]])
	}
	return text
}

func rowContains(row []string, needle string) bool {
	for _, cell := range row {
		if strings.Contains(cell, needle) {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseTeacherWorkbook reads the teacher logins sheet. Rows missing any of the
// three values are counted as skipped.
func ParseTeacherWorkbook(r io.Reader) ([]TeacherLogin, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("teacher sheet is empty")
	}

	index := map[string]int{}
	for i, header := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}
	nameCol, okName := index["фио сотрудника"]
	userCol, okUser := index["логин в stud_8"]
	passCol, okPass := index["пароль в stud_8"]
	if !okName || !okUser || !okPass {
		return nil, 0, fmt.Errorf("missing columns: 'ФИО сотрудника', 'Логин в stud_8', 'Пароль в stud_8'")
	}

	get := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var logins []TeacherLogin
	skipped := 0
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		login := TeacherLogin{FullName: get(row, nameCol), Username: get(row, userCol), Password: get(row, passCol)}
		if login.FullName == "" || login.Username == "" || login.Password == "" {
			skipped++
			continue
		}
		logins = append(logins, login)
	}
	return logins, skipped, nil
}
