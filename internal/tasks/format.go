package tasks

import (
	"fmt"
	"strings"

	"roomkeeper/internal/dates"
)

// Default birthday announcement pieces, used when a guild has no custom
// templates configured.
const (
	defaultHeader = "🎉 **Happy Birthday** 🎉\n\nToday we celebrate:"
	defaultFooter = "\nEveryone wish them a happy birthday! 🎂🎈"
)

// ApplyTemplate substitutes {user}, {mention}, {date} and {age} placeholders
// and converts literal \n sequences into real newlines.
func ApplyTemplate(template, user, mention, date, age string) string {
	r := strings.NewReplacer(
		"{user}", user,
		"{mention}", mention,
		"{date}", date,
		"{age}", age,
	)
	return processNewlines(r.Replace(template))
}

// processNewlines converts literal \n (as typed in a config surface) into
// actual newlines.
func processNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// AgeInfo renders the " (turning N)" suffix, or "" when the birth year is
// unknown.
func AgeInfo(birthYear, currentYear int) string {
	if birthYear == 0 {
		return ""
	}
	return fmt.Sprintf(" (turning %d)", dates.Age(birthYear, currentYear))
}

// extractAgeValue pulls the bare number back out of an AgeInfo string so
// templates can place it anywhere.
func extractAgeValue(ageInfo string) string {
	s := strings.TrimPrefix(ageInfo, " (turning ")
	return strings.TrimSuffix(s, ")")
}

// BuildEntry renders one birthday line. Custom templates win over the
// defaults; which template applies depends on whether an age is known.
func BuildEntry(user, mention, ageInfo, tmplWithAge, tmplNoAge, date string) string {
	if ageInfo != "" {
		if tmplWithAge != "" {
			return ApplyTemplate(tmplWithAge, user, mention, date, extractAgeValue(ageInfo))
		}
		return fmt.Sprintf("• %s%s!", mention, ageInfo)
	}
	if tmplNoAge != "" {
		return ApplyTemplate(tmplNoAge, user, mention, date, "")
	}
	return fmt.Sprintf("• %s!", mention)
}

// CombineMessage stitches header, entry list and footer into the single
// announcement message.
func CombineMessage(header, body, footer string) string {
	return fmt.Sprintf("%s\n%s\n%s", header, body, footer)
}

// headerOr returns the custom header (with newline processing) or the default.
func headerOr(custom string) string {
	if custom != "" {
		return processNewlines(custom)
	}
	return defaultHeader
}

func footerOr(custom string) string {
	if custom != "" {
		return processNewlines(custom)
	}
	return defaultFooter
}

func mention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}
