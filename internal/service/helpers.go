package service

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

// repoError maps repository failures: missing rows become 404, typed errors pass
// through, anything else is an internal error with the given message.
func repoError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		message = message + ": " + strings.ToLower(fe.Field()) + " failed " + fe.Tag()
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// normalizeClock canonicalises H:MM or HH:MM to HH:MM.
func normalizeClock(raw string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return t.Format("15:04"), nil
}

// clockRange canonicalises both bounds and checks that end is after start.
func clockRange(start, end string) (string, string, error) {
	s, err := normalizeClock(start)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "time_start must be HH:MM")
	}
	e, err := normalizeClock(end)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "time_end must be HH:MM")
	}
	if e <= s {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "time_end must be after time_start")
	}
	return s, e, nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
