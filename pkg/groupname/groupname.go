// Package groupname folds student group names into the lookup key stored in the
// group_name_norm generated columns.
//
// The Go and SQL versions must stay identical:
//
//	regexp_replace(
//	  lower(translate(group_name, 'ABCEHKMOPTXYabcehkmoptxy', 'АВСЕНКМОРТХУавсенкмортху')),
//	  '[^0-9a-zа-яё]+', '', 'g')
package groupname

import (
	"strings"
	"unicode"
)

const (
	latinLookalikes = "ABCEHKMOPTXYabcehkmoptxy"
	cyrillicTwins   = "АВСЕНКМОРТХУавсенкмортху"
)

// SQLExpr renders the normalization over a column or placeholder.
func SQLExpr(arg string) string {
	return "regexp_replace(lower(translate(" + arg + ", '" + latinLookalikes + "', '" + cyrillicTwins + "')), '[^0-9a-zа-яё]+', '', 'g')"
}

var twins = func() map[rune]rune {
	from := []rune(latinLookalikes)
	to := []rune(cyrillicTwins)
	m := make(map[rune]rune, len(from))
	for i := range from {
		m[from[i]] = to[i]
	}
	return m
}()

// Normalize returns the lookup key for a group name.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if t, ok := twins[r]; ok {
			r = t
		}
		r = unicode.ToLower(r)
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Equal reports whether two spellings address the same group.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func keep(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'а' && r <= 'я':
		return true
	case r == 'ё':
		return true
	}
	return false
}
