package pubtree

import (
	"fmt"
	"time"
)

var swedishMonths = [...]string{
	"januari", "februari", "mars", "april", "maj", "juni",
	"juli", "augusti", "september", "oktober", "november", "december",
}

// FormatSwedishDate formats t as "11 juni 2025".
func FormatSwedishDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), swedishMonths[t.Month()-1], t.Year())
}

// FormatSwedishDateWithComma formats t as "11 juni, 2025", used next to the author line.
func FormatSwedishDateWithComma(t time.Time) string {
	return fmt.Sprintf("%d %s, %d", t.Day(), swedishMonths[t.Month()-1], t.Year())
}

// ShouldShowUpdated reports whether updated is more than a day after published.
func ShouldShowUpdated(published, updated time.Time) bool {
	return updated.Sub(published) > 24*time.Hour
}

// ArticleDateDisplay returns the date line shown on an article.
func ArticleDateDisplay(published, updated time.Time) string {
	if ShouldShowUpdated(published, updated) {
		return "Uppdaterad: " + FormatSwedishDate(updated)
	}
	return FormatSwedishDate(published)
}
