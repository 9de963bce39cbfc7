package present

import (
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/lestrrat-go/strftime"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTimeFormat is used when a configured pattern cannot be rendered.
const DefaultTimeFormat = "%Y-%m-%d %H:%M"

// TimeFormats are the patterns offered when choosing a time format.
var TimeFormats = []string{
	DefaultTimeFormat,
	"%A, %B %d, %Y %I:%M%p",
	"%a, %d %b %Y %H:%M",
	"%I:%M%p on %m/%d/%Y",
	"%d.%m.%Y %H:%M",
	"%d/%m/%Y %H:%M",
}

// Capitalize upper-cases the first letter of s and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	_, n := utf8.DecodeRuneInString(s)
	// Casers carry state and are not shared between goroutines.
	return cases.Upper(language.Und).String(s[:n]) + cases.Lower(language.Und).String(s[n:])
}

// FormatTime renders t with a strftime pattern.
func FormatTime(pattern string, t time.Time) string {
	out, err := strftime.Format(pattern, t)
	if err != nil {
		log.Printf("ERROR: bad time format %q: %v", pattern, err)
		out, _ = strftime.Format(DefaultTimeFormat, t)
	}
	return out
}

// Plural formats n with unit, adding an "s" unless n is 1.
func Plural(n int, unit string) string {
	s := fmt.Sprintf("%d %s", n, unit)
	if n != 1 {
		s += "s"
	}
	return s
}
