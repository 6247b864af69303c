package sources

import (
	"regexp"
	"strconv"
	"strings"
)

// DateHint is the coarse publication date found in a search result.
// Month is 0 when only the year is known.
type DateHint struct {
	Year  int    `json:"year"`
	Month int    `json:"month,omitempty"`
	Match string `json:"match"`
}

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	yearMonthRe  = regexp.MustCompile(`\b((?:19|20)\d{2})[-/.](0?[1-9]|1[0-2])\b`)
	monthYearRe  = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(?:\d{1,2}(?:st|nd|rd|th)?,?\s+)?((?:19|20)\d{2})\b`)
	quarterRe    = regexp.MustCompile(`(?i)\bQ([1-4])\s*[-/]?\s*((?:19|20)\d{2})\b|\b((?:19|20)\d{2})\s*[-/]?\s*Q([1-4])\b`)
	monthRangeRe = regexp.MustCompile(`(?i)\b` + monthPattern + `\s*(?:-|–|to)\s*` + monthPattern + `,?\s+((?:19|20)\d{2})\b`)
	bareYearRe   = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

func parseMonth(name string) int {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0
	}
	return monthIndex[name[:3]]
}

// ExtractDateHint finds a date signal in free text. Patterns are tried in
// priority order: year-month, month+year, quarter, month range+year, bare year.
// Quarters and month ranges resolve to their last month.
func ExtractDateHint(text string) *DateHint {
	if text == "" {
		return nil
	}

	if m := yearMonthRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return &DateHint{Year: year, Month: month, Match: m[0]}
	}

	if m := monthYearRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[2])
		return &DateHint{Year: year, Month: parseMonth(m[1]), Match: m[0]}
	}

	if m := quarterRe.FindStringSubmatch(text); m != nil {
		q, yearStr := m[1], m[2]
		if q == "" {
			yearStr, q = m[3], m[4]
		}
		year, _ := strconv.Atoi(yearStr)
		quarter, _ := strconv.Atoi(q)
		return &DateHint{Year: year, Month: quarter * 3, Match: m[0]}
	}

	if m := monthRangeRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[3])
		return &DateHint{Year: year, Month: parseMonth(m[2]), Match: m[0]}
	}

	if m := bareYearRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		return &DateHint{Year: year, Match: m[0]}
	}

	return nil
}

// ExtractFirstDateHint tries each field in order and returns the first hit.
func ExtractFirstDateHint(fields ...string) *DateHint {
	for _, f := range fields {
		if h := ExtractDateHint(f); h != nil {
			return h
		}
	}
	return nil
}
