package valuetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dfirlabs/ewfcore/config"
	"github.com/dfirlabs/ewfcore/ewferr"
)

// Date conversion (§4.E.4) is grounded on
// original_source/libewf/libewf_date_time.c's old/new/ctime parsers and
// date_time_values_copy_to_string generators. Go's time.Time is the
// natural representation for the decomposed/reassembled local-time value
// the source keeps in a struct tm; no example repo in the corpus ships a
// calendar library and every corpus repo that touches wall-clock time
// (laenix-ewfgo's own header timestamps among them) reaches for time.Time
// directly, so this is one
// part that stays on the standard library by necessity, not by default.

const ctimeLayout = "Mon Jan  2 15:04:05 2006"

// ParseOld parses the "old" header date form: "YYYY M D h m s", fields
// separated by single spaces, in local time.
func ParseOld(s string) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return time.Time{}, fmt.Errorf("valuetable.ParseOld: %w: expected 6 fields, got %d", ewferr.ErrUnsupportedFormat, len(fields))
	}
	nums := make([]int, 6)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, fmt.Errorf("valuetable.ParseOld: %w: field %q not numeric", ewferr.ErrCorruptData, f)
		}
		nums[i] = n
	}
	year, month, day, hour, minute, second := nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 60 {
		return time.Time{}, fmt.Errorf("valuetable.ParseOld: %w: component out of range", ewferr.ErrCorruptData)
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), nil
}

// ParseUnix parses the "new" header2 form: a decimal Unix timestamp.
func ParseUnix(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("valuetable.ParseUnix: %w: %v", ewferr.ErrCorruptData, err)
	}
	return time.Unix(secs, 0).Local(), nil
}

// ParseCTime parses the xheader ctime form: "DoW Mon DD hh:mm:ss YYYY TZ".
// The trailing timezone abbreviation is returned separately, as in the
// source the field comes from tzname[0] and is not itself parsed as an
// offset.
func ParseCTime(s string) (time.Time, string, error) {
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return time.Time{}, "", fmt.Errorf("valuetable.ParseCTime: %w: expected 6 fields, got %d", ewferr.ErrUnsupportedFormat, len(fields))
	}
	tz := fields[5]
	without := strings.Join(fields[:5], " ")
	t, err := time.ParseInLocation(ctimeLayout, without, time.Local)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("valuetable.ParseCTime: %w: %v", ewferr.ErrCorruptData, err)
	}
	return t, tz, nil
}

// Format renders t according to format (§4.E.4 output forms). DST is
// never consulted: the conversion is a pure local-time decomposition and
// reassembly, matching the source's tm_isdst = -1 discipline.
func Format(t time.Time, format config.DateFormat) (string, error) {
	layout, ok := dateLayouts[format]
	if !ok {
		return "", fmt.Errorf("valuetable.Format: %w: date format %d", ewferr.ErrUnsupportedFormat, format)
	}
	return t.Format(layout), nil
}

// dateLayouts maps each config.DateFormat to its time.Parse/Format layout,
// shared between Format and its inverse ParseFormatted.
var dateLayouts = map[config.DateFormat]string{
	config.DateFormatCTime:    ctimeLayout,
	config.DateFormatMonthDay: "01/02/2006 15:04:05",
	config.DateFormatDayMonth: "02/01/2006 15:04:05",
	config.DateFormatISO8601:  "2006-01-02T15:04:05",
}

// ParseFormatted is the inverse of Format: it recovers the time.Time a
// canonical date string of the given format encodes. Header generation
// uses this to re-derive the on-disk native encoding (old-form or
// decimal-timestamp) from a value table's already-canonicalized date
// string, which is what makes parse-then-generate round-trip (§8).
func ParseFormatted(s string, format config.DateFormat) (time.Time, error) {
	layout, ok := dateLayouts[format]
	if !ok {
		return time.Time{}, fmt.Errorf("valuetable.ParseFormatted: %w: date format %d", ewferr.ErrUnsupportedFormat, format)
	}
	t, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("valuetable.ParseFormatted: %w: %v", ewferr.ErrCorruptData, err)
	}
	return t, nil
}

// FormatOld renders t in the "old" header input form, used when
// round-tripping a parsed old-style timestamp back to a generated header.
func FormatOld(t time.Time) string {
	return fmt.Sprintf("%d %d %d %d %d %d", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// FormatUnix renders t as a decimal Unix timestamp, the header2 form.
func FormatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// ParseHeaderDate dispatches on whether s contains a space: with a space
// it is the "old" form, otherwise the "new" decimal-timestamp form,
// per §4.E.3's parse rule for the m/u field codes.
func ParseHeaderDate(s string) (time.Time, error) {
	if strings.Contains(strings.TrimSpace(s), " ") {
		return ParseOld(s)
	}
	return ParseUnix(s)
}
