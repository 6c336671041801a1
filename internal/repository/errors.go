// Package repository holds the MySQL data access code. Each repository wraps
// a *sql.DB; sentinel errors let handlers map failures to status codes
// without inspecting driver errors themselves.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when an operation cannot proceed because of the
// current state of related rows, such as moving the first FAQ entry up.
var ErrConflict = errors.New("conflict")

// ErrInUse is returned when a row cannot be deleted because other rows still
// reference it: a city with events, an event linked to a tour. Handlers
// translate it into an HTTP 409 response.
var ErrInUse = errors.New("record is referenced by other records")

// ErrDuplicate is returned on a unique key violation.
var ErrDuplicate = errors.New("duplicate record")

// ErrInvalidReference is returned when a foreign key points at a row that
// does not exist, for example an event created with an unknown city id.
var ErrInvalidReference = errors.New("referenced record does not exist")

// MySQL server error numbers.
const (
	errDupEntry          = 1062
	errRowIsReferenced   = 1451
	errNoReferencedRow   = 1452
	errRowIsReferenced2  = 1217
	errNoReferencedRow2  = 1216
	errDupEntryWithKey   = 1586
	errDupUnknownInIndex = 1859
)

func mysqlNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool {
	switch mysqlNumber(err) {
	case errDupEntry, errDupEntryWithKey, errDupUnknownInIndex:
		return true
	}
	return false
}

func isReferenced(err error) bool {
	n := mysqlNumber(err)
	return n == errRowIsReferenced || n == errRowIsReferenced2
}

func isMissingParent(err error) bool {
	n := mysqlNumber(err)
	return n == errNoReferencedRow || n == errNoReferencedRow2
}

// translate maps driver errors to the package sentinels and leaves other
// errors untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case isDuplicate(err):
		return ErrDuplicate
	case isReferenced(err):
		return ErrInUse
	case isMissingParent(err):
		return ErrInvalidReference
	}
	return err
}
