// Package repository defines the data access layer and the sentinel errors
// shared across repositories. Handlers translate these into transport errors.
package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrDoctorEmailTaken = errors.New("doctor email already exists")
	ErrMappingNotFound  = errors.New("mapping not found")
	ErrMappingExists    = errors.New("mapping already exists")
	// ErrInvalidReference is returned when a write references a row that
	// does not exist (foreign key violation).
	ErrInvalidReference = errors.New("referenced record does not exist")
	ErrTokenNotFound    = errors.New("refresh token not found")
)

// isUniqueViolation reports whether err is a duplicate-key error from either
// supported driver.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

// isForeignKeyViolation reports whether err is a missing-parent error.
func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1452
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		if se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		return strings.Contains(se.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// fromMillis restores a stored timestamp in UTC.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// now is the clock used for server-assigned timestamps, truncated to the
// stored precision so returned records match what a later read yields.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
