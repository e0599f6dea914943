package gen

import (
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// initialisms are kept upper case in Go identifiers.
var initialisms = map[string]bool{
	"api":  true,
	"http": true,
	"id":   true,
	"json": true,
	"sql":  true,
	"url":  true,
	"uuid": true,
}

// words splits a name written in camel, pascal or snake case.
func words(s string) []string {
	return strings.FieldsFunc(strcase.ToSnake(s), func(r rune) bool { return r == '_' })
}

// pascal maps "foundedYear" to "FoundedYear" and "user_id" to "UserID".
// A Caser is stateful, so one is created per call.
func pascal(s string) string {
	title := cases.Title(language.English)
	var b strings.Builder
	for _, w := range words(s) {
		if initialisms[w] {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		b.WriteString(title.String(w))
	}
	return b.String()
}

// lowerCamel maps "FoundedYear" to "foundedYear" and "ID" to "id".
func lowerCamel(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return ""
	}
	return ws[0] + pascal(strings.Join(ws[1:], "_"))
}

// snake maps "ChannelMember" to "channel_member".
func snake(s string) string {
	return strcase.ToSnake(s)
}

// enumConst returns the constant name of an enum value: "TEAM" of
// SportType is SportTypeTeam.
func enumConst(enum, value string) string {
	return enum + pascal(cases.Lower(language.Und).String(value))
}
