package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

// Postgres SQLSTATE codes surfaced to callers.
const (
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
	pqNotNullViolation    = "23502"
	pqInvalidText         = "22P02"
	pqInvalidDatetime     = "22007"
	pqDatetimeOutOfRange  = "22008"
	pqStringTooLong       = "22001"
	pqNumericOutOfRange   = "22003"
	pqGeneratedAlwaysCode = "428C9"
)

// mapPQError turns constraint violations into typed errors and wraps anything else
// with the operation name. sql.ErrNoRows is returned untouched.
func mapPQError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflictMessage(pqErr))
		case pqCheckViolation, pqNotNullViolation, pqInvalidText, pqInvalidDatetime, pqDatetimeOutOfRange,
			pqStringTooLong, pqNumericOutOfRange, pqGeneratedAlwaysCode:
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(pqErr))
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func conflictMessage(err *pq.Error) string {
	switch err.Constraint {
	case "uniq_weekday_schedule_group_day_pair":
		return "group already has a lesson in this weekday and pair"
	case "uniq_weekly_edits_slot":
		return "weekly edit already exists for this slot"
	case "uniq_once_edits_slot":
		return "edit already exists for this date and pair"
	case "users_username_key":
		return "username already taken"
	}
	return "record already exists"
}

func validationMessage(err *pq.Error) string {
	if err.Constraint != "" {
		return fmt.Sprintf("value violates %s", err.Constraint)
	}
	return "invalid value"
}
