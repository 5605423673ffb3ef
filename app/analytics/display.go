package analytics

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okatenko/channelpulse/app/platform"
)

var handleLikePattern = regexp.MustCompile(`^[a-z0-9._]+$`)

var titleCaser = cases.Title(language.English)

// DisplayTitle prettifies handle-like TikTok names for channel lists:
// "some.handle" becomes "Some Handle". Titles that already look like real
// names pass through untouched, as does every other platform.
func DisplayTitle(title string, p platform.Platform) string {
	if p != platform.TikTok {
		return title
	}
	trimmed := strings.TrimPrefix(strings.TrimSpace(title), "@")
	if trimmed == "" || !handleLikePattern.MatchString(trimmed) {
		return title
	}
	words := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '.' || r == '_'
	})
	if len(words) == 0 {
		return title
	}
	return titleCaser.String(strings.Join(words, " "))
}
