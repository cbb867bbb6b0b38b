package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTime marks a value-level temporal parse failure. Callers drop
// the single value and keep the surrounding claim.
var ErrMalformedTime = errors.New("malformed temporal value")

// Calendar model identifiers used by the Wikidata export.
const (
	CalendarGregorian = "Q1985727"
	CalendarJulian    = "Q1985786"
)

// TimeInput is a raw temporal payload: an astronomical time string with a
// mandatory sign and up to 16 year digits, a precision from 0 (billions of
// years) to 14 (seconds), a calendar model, optional before/after
// uncertainty widths in units of the precision, and a timezone offset in
// minutes.
type TimeInput struct {
	Time        string
	Precision   int
	Calendar    string
	Before      int
	After       int
	TimezoneMin int
}

// Anything other than a trailing Z (including textual offsets) is malformed.
var timePattern = regexp.MustCompile(`^([+-])(\d{1,16})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})Z$`)

// Julian civil dates map onto the proleptic Gregorian calendar by ordinal-day
// arithmetic with the 1582 ten-day displacement.
const julianOrdinalShift = 10

// Time arithmetic (month/day shifts) is only attempted for years the time
// package can hold comfortably; deep-time precisions never reach it.
const maxArithmeticYear = 1_000_000

// FormatTime renders a raw temporal payload as a single display string.
// Empty or unparseable input returns ErrMalformedTime; the zero string is
// never a valid result.
func FormatTime(in TimeInput, loc Locale, labels Labeler) (string, error) {
	m := timePattern.FindStringSubmatch(in.Time)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedTime, in.Time)
	}
	if in.Precision < 0 || in.Precision > 14 {
		return "", fmt.Errorf("%w: precision %d", ErrMalformedTime, in.Precision)
	}

	year, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: year %q", ErrMalformedTime, m[2])
	}
	if m[1] == "-" {
		year = -year
	}
	month, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[4])
	hour, _ := strconv.Atoi(m[5])
	minute, _ := strconv.Atoi(m[6])
	second, _ := strconv.Atoi(m[7])

	cal := in.Calendar
	if cal == "" {
		cal = CalendarGregorian
	}

	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	if cal == CalendarJulian && year > 1 && year <= 9999 {
		y, mo, d, err := julianToGregorian(int(year), month, day)
		if err != nil {
			return "", err
		}
		year, month, day = int64(y), mo, d
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("%w: month %d", ErrMalformedTime, month)
	}

	var out string
	switch {
	case in.Precision <= 5:
		out = deepTime(year, loc)
	case in.Precision <= 8:
		out = bucketedYears(year, in.Precision, in.Before, in.After, loc)
	case in.Precision == 9:
		out = yearOnly(year, in.Before, in.After, loc)
	case in.Precision == 10:
		out = monthYear(year, month, in.Before, in.After, loc)
	case in.Precision == 11:
		out = fullDate(year, month, day, in.Before, in.After, loc)
	default:
		out = dateTime(year, month, day, hour, minute, second, in, loc)
	}

	if cal != CalendarGregorian {
		if name := calendarName(cal, loc, labels); name != "" {
			out += " (" + name + ")"
		}
	}
	return out, nil
}

func calendarName(cal string, loc Locale, labels Labeler) string {
	if name, ok := loc.Calendars[cal]; ok && name != "" {
		return name
	}
	if labels != nil {
		return labels.Label(cal)
	}
	return ""
}

func julianToGregorian(y, m, d int) (int, int, int, error) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes impossible civil dates (Feb 30 -> Mar 2); a
	// round-trip mismatch means the input was not a real date.
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return 0, 0, 0, fmt.Errorf("%w: invalid calendar date %04d-%02d-%02d", ErrMalformedTime, y, m, d)
	}
	t = t.AddDate(0, 0, julianOrdinalShift)
	return t.Year(), int(t.Month()), t.Day(), nil
}

// humanYear displaces astronomical years onto the no-year-zero convention:
// astronomical 0 is 1 BC, -1 is 2 BC.
func humanYear(year int64) (int64, bool) {
	if year <= 0 {
		return 1 - year, true
	}
	return year, false
}

func era(bce bool, loc Locale) string {
	if bce {
		return loc.EraBCE
	}
	return loc.EraCE
}

// Deep time (precision 0-5): a year count divisible by a composite unit
// renders with that unit's label. Exactly one hundred thousand years falls
// through to the bare year count.
func deepTime(year int64, loc Locale) string {
	abs := year
	if abs < 0 {
		abs = -abs
	}
	suffix := era(year <= 0, loc)

	if abs != 100_000 {
		switch {
		case abs != 0 && abs%1_000_000_000 == 0:
			return fmt.Sprintf("%d %s %s", abs/1_000_000_000, loc.YearsUnit.Billion, suffix)
		case abs != 0 && abs%1_000_000 == 0:
			return fmt.Sprintf("%d %s %s", abs/1_000_000, loc.YearsUnit.Million, suffix)
		case abs != 0 && abs%100_000 == 0:
			return fmt.Sprintf("%d %s %s", abs/100_000, loc.YearsUnit.HundredThousand, suffix)
		}
	}
	return fmt.Sprintf("%d %s", abs, suffix)
}

// Millennium, century and decade buckets (precision 6-8). Uncertainty widens
// the bucket by whole bucket-widths per side and switches to a year range.
func bucketedYears(year int64, precision, before, after int, loc Locale) string {
	h, bce := humanYear(year)
	suffix := era(bce, loc)

	var width int64
	switch precision {
	case 6:
		width = 1000
	case 7:
		width = 100
	default:
		width = 10
	}

	if before == 0 && after == 0 {
		if precision == 8 {
			return fmt.Sprintf("%ds %s", h/10*10, suffix)
		}
		n := (h-1)/width + 1
		unit := loc.Millennium
		if precision == 7 {
			unit = loc.Century
		}
		return fmt.Sprintf("%s %s %s", ordinal(n), unit, suffix)
	}

	var start, end int64
	if precision == 8 {
		start = h / 10 * 10
		end = start + 9
	} else {
		start = (h-1)/width*width + 1
		end = start + width - 1
	}
	start -= int64(before) * width
	end += int64(after) * width
	return fmt.Sprintf("%d–%d %s", start, end, suffix)
}

func yearOnly(year int64, before, after int, loc Locale) string {
	h, bce := humanYear(year)
	suffix := era(bce, loc)
	if before == 0 && after == 0 {
		return fmt.Sprintf("%d %s", h, suffix)
	}
	return fmt.Sprintf("%d–%d %s", h-int64(before), h+int64(after), suffix)
}

func monthYear(year int64, month, before, after int, loc Locale) string {
	h, bce := humanYear(year)
	point := fmt.Sprintf("%s %d", loc.Month(month), h)
	if bce {
		point += " " + loc.EraBCE
	}
	if before == 0 && after == 0 {
		return point
	}
	start := shiftMonth(year, month, -before)
	end := shiftMonth(year, month, after)
	return formatMonthYear(start.y, start.m, loc) + "–" + formatMonthYear(end.y, end.m, loc)
}

type yearMonth struct {
	y int64
	m int
}

func shiftMonth(year int64, month, delta int) yearMonth {
	total := year*12 + int64(month-1) + int64(delta)
	y := total / 12
	m := int(total%12) + 1
	if m < 1 {
		m += 12
		y--
	}
	return yearMonth{y: y, m: m}
}

func formatMonthYear(year int64, month int, loc Locale) string {
	h, bce := humanYear(year)
	s := fmt.Sprintf("%s %d", loc.Month(month), h)
	if bce {
		s += " " + loc.EraBCE
	}
	return s
}

func fullDate(year int64, month, day, before, after int, loc Locale) string {
	if before == 0 && after == 0 || year > maxArithmeticYear || year < -maxArithmeticYear {
		return formatDay(year, month, day, loc)
	}
	base := time.Date(int(year), time.Month(month), day, 0, 0, 0, 0, time.UTC)
	start := base.AddDate(0, 0, -before)
	end := base.AddDate(0, 0, after)
	return formatDay(int64(start.Year()), int(start.Month()), start.Day(), loc) +
		"–" + formatDay(int64(end.Year()), int(end.Month()), end.Day(), loc)
}

func formatDay(year int64, month, day int, loc Locale) string {
	h, bce := humanYear(year)
	s := fmt.Sprintf("%d %s %d", day, loc.Month(month), h)
	if bce {
		s += " " + loc.EraBCE
	}
	return s
}

// Sub-day precisions (12-14): full date plus the time of day truncated to
// the precision unit, with a UTC offset suffix when the offset is non-zero.
func dateTime(year int64, month, day, hour, minute, second int, in TimeInput, loc Locale) string {
	var out string
	if (in.Before == 0 && in.After == 0) || year > maxArithmeticYear || year < -maxArithmeticYear {
		// Format components directly; years this deep overflow time.Time.
		out = formatDay(year, month, day, loc) + " " + clock(hour, minute, second, in.Precision)
	} else {
		unit := time.Hour
		switch in.Precision {
		case 13:
			unit = time.Minute
		case 14:
			unit = time.Second
		}
		render := func(t time.Time) string {
			return formatDay(int64(t.Year()), int(t.Month()), t.Day(), loc) +
				" " + clock(t.Hour(), t.Minute(), t.Second(), in.Precision)
		}
		base := time.Date(int(year), time.Month(month), day, hour, minute, second, 0, time.UTC)
		out = render(base.Add(-time.Duration(in.Before)*unit)) + "–" + render(base.Add(time.Duration(in.After)*unit))
	}

	if in.TimezoneMin != 0 {
		out += " " + utcOffset(in.TimezoneMin)
	}
	return out
}

func clock(hour, minute, second, precision int) string {
	switch precision {
	case 12:
		return fmt.Sprintf("%02d:00", hour)
	case 13:
		return fmt.Sprintf("%02d:%02d", hour, minute)
	default:
		return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
	}
}

func utcOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, minutes/60, minutes%60)
}

func ordinal(n int64) string {
	s := strconv.FormatInt(n, 10)
	if strings.HasSuffix(s, "11") || strings.HasSuffix(s, "12") || strings.HasSuffix(s, "13") {
		return s + "th"
	}
	switch n % 10 {
	case 1:
		return s + "st"
	case 2:
		return s + "nd"
	case 3:
		return s + "rd"
	default:
		return s + "th"
	}
}
