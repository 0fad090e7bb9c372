package resolver

import (
	"strings"

	"github.com/skx/animationled-compiler/symtab"
)

// paramLetter is the per-parameter-type mangling letter of spec.md §4.3.
func paramLetter(t symtab.Type) byte {
	switch t {
	case symtab.Int:
		return 'i'
	case symtab.Mat:
		return 'm'
	case symtab.Bool:
		return 'b'
	case symtab.List:
		return 'l'
	case symtab.Float:
		return 'f'
	default:
		return '?'
	}
}

// escapeIdent applies the two fixed substitutions word-char identifiers
// may contain: '@' -> "$a$", '?' -> "$q$".
func escapeIdent(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		switch c {
		case '@':
			b.WriteString("$a$")
		case '?':
			b.WriteString("$q$")
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Mangle computes the external symbol for a procedure overload: `user_`
// plus the escaped lower-cased name, plus (if there are parameters) `$$`
// followed by one letter per parameter type. A global variable mangles
// with an empty parameter list, i.e. just `user_<name>`.
func Mangle(name string, paramTypes []symtab.Type) string {
	sym := "user_" + escapeIdent(name)
	if len(paramTypes) == 0 {
		return sym
	}
	letters := make([]byte, len(paramTypes))
	for i, t := range paramTypes {
		letters[i] = paramLetter(t)
	}
	return sym + "$$" + string(letters)
}
