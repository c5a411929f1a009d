package dao

import (
	"errors"
	"strings"
)

// ErrNotFound is wrapped by every DAO lookup or update that matched no row
var ErrNotFound = errors.New("not found")

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// containsPattern builds a LIKE pattern, to be used with ESCAPE '!', matching values containing s
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
