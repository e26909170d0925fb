//go:build cgo

package violation

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

func init() {
	extractors = append(extractors, mattnName)
}

func mattnName(err error) (string, bool) {
	var e sqlite3.Error
	if !errors.As(err, &e) {
		return "", false
	}
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintUnique:
		return nameFromText(e.Error())
	}
	return "", true
}
