package event

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// isoLayout is the rendering used for the cache and the report.
const isoLayout = "2006-01-02"

// months maps the 3-letter month abbreviations used by the listing pages.
// Matching is exact and case-sensitive.
var months = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

// Date is a calendar date without time of day. The zero value is not a
// valid date; values are built by ParseDate, ParseISODate or NewDate.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Dates must render as four-digit years to read back from the cache.
const (
	minYear = 1
	maxYear = 9999
)

// NewDate returns the Date for year, month and day, or an error if that day
// does not exist.
func NewDate(year int, month time.Month, day int) (Date, error) {
	if year < minYear || year > maxYear {
		return Date{}, fmt.Errorf("year %d out of range %d-%d", year, minYear, maxYear)
	}
	if month < time.January || month > time.December {
		return Date{}, fmt.Errorf("month %d out of range", month)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("%04d-%02d-%02d is not a calendar date", year, month, day)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmp.Compare(d.Year, other.Year)
	case d.Month != other.Month:
		return cmp.Compare(d.Month, other.Month)
	default:
		return cmp.Compare(d.Day, other.Day)
	}
}

// Before reports whether d comes strictly before other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseISODate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseISODate parses a strict YYYY-MM-DD string, as written to the cache.
func ParseISODate(text string) (Date, error) {
	t, err := time.Parse(isoLayout, text)
	if err != nil {
		return Date{}, &DateFormatError{Text: text, Err: err}
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ParseDate converts any of the date notations found on listing pages into a
// Date. Supported forms:
//
//	2024-01-10T22:00          ISO timestamp, time portion dropped
//	Mon 26 Dec                year defaults to referenceYear
//	Mon 26 Dec 2024
//	Sat, Feb 11, 2023
//	Mon, 26 Dec               year defaults to referenceYear
//
// The weekday is never checked against the resulting date.
func ParseDate(text string, referenceYear int) (Date, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Date{}, &DateFormatError{Text: text}
	}

	var (
		d   Date
		err error
	)
	switch {
	case raw[0] >= '0' && raw[0] <= '9':
		datePart, _, _ := strings.Cut(raw, "T")
		d, err = ParseISODate(datePart)
	case strings.Contains(raw, ","):
		d, err = parseCommaDate(raw, referenceYear)
	default:
		d, err = parseTokenDate(raw, referenceYear)
	}
	if err != nil {
		if dfe, ok := err.(*DateFormatError); ok {
			dfe.Text = text
			return Date{}, dfe
		}
		return Date{}, &DateFormatError{Text: text, Err: err}
	}
	return d, nil
}

// parseTokenDate handles "Mon 26 Dec" and "Mon 26 Dec 2024".
func parseTokenDate(raw string, referenceYear int) (Date, error) {
	fields := strings.Fields(raw)
	switch len(fields) {
	case 3:
		return buildDate(referenceYear, fields[2], fields[1])
	case 4:
		year, err := parseYear(fields[3])
		if err != nil {
			return Date{}, err
		}
		return buildDate(year, fields[2], fields[1])
	default:
		return Date{}, fmt.Errorf("expected 3 or 4 tokens, got %d", len(fields))
	}
}

// parseCommaDate handles "Sat, Feb 11, 2023" and "Mon, 26 Dec".
func parseCommaDate(raw string, referenceYear int) (Date, error) {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 2:
		// "<Weekday>, <Day> <Month>"
		fields := strings.Fields(parts[1])
		if len(fields) != 2 {
			return Date{}, fmt.Errorf("expected \"<day> <month>\", got %q", parts[1])
		}
		return buildDate(referenceYear, fields[1], fields[0])
	case 3:
		// "<Weekday>, <Month> <Day>, <Year>"
		fields := strings.Fields(parts[1])
		if len(fields) != 2 {
			return Date{}, fmt.Errorf("expected \"<month> <day>\", got %q", parts[1])
		}
		year, err := parseYear(parts[2])
		if err != nil {
			return Date{}, err
		}
		return buildDate(year, fields[0], fields[1])
	default:
		return Date{}, fmt.Errorf("unexpected comma layout")
	}
}

func buildDate(year int, monthText, dayText string) (Date, error) {
	month, ok := months[monthText]
	if !ok {
		return Date{}, fmt.Errorf("unknown month %q", monthText)
	}
	day, err := parseDigits(dayText, 1, 2)
	if err != nil {
		return Date{}, fmt.Errorf("day %q: %w", dayText, err)
	}
	return NewDate(year, month, day)
}

func parseYear(text string) (int, error) {
	year, err := parseDigits(text, 4, 4)
	if err != nil {
		return 0, fmt.Errorf("year %q: %w", text, err)
	}
	return year, nil
}

// parseDigits accepts only unsigned decimal tokens of minLen to maxLen digits.
func parseDigits(text string, minLen, maxLen int) (int, error) {
	if len(text) < minLen || len(text) > maxLen {
		return 0, fmt.Errorf("want %d to %d digits", minLen, maxLen)
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a decimal number")
		}
	}
	return strconv.Atoi(text)
}
