// Package dostime decodes the packed MS-DOS date/time fields found in ZIP local and central directory file
// headers.
//
// Every field is validated explicitly rather than handed to time.Date, which would silently normalize an
// out-of-range field (e.g. day 32) into a different, valid date instead of rejecting it.
package dostime

import (
	"fmt"

	"github.com/kairos-oss/zipcore/internal/zerr"
)

// DateTime is a decoded MS-DOS date/time value.
//
// Month is zero-based (0 = January) and Second has already been clamped to the exFAT-compatible maximum of 58,
// matching the behavior of every other field in this struct: it reflects what the archive meant, not the raw
// packed bits.
type DateTime struct {
	Second int
	Minute int
	Hour   int
	Day    int
	Month  int
	Year   int
}

// daysInMonth returns the number of days in the given zero-based month of the given year, using the same
// leap-year rule as FromDOS.
func daysInMonth(year, month int) int {
	const (
		jan = iota
		feb
		mar
		apr
		may
		jun
		jul
		aug
		sep
		octMonth
		nov
		dec
	)

	switch month {
	case jan, mar, may, jul, aug, octMonth, dec:
		return 31
	case apr, jun, sep, nov:
		return 30
	case feb:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

// isLeapYear implements the leap-year rule in the form (y%4==0) && (y%25!=0 || y%16==0), kept verbatim.
// For a year divisible by 4 and 25 (that is, by 100), y%16==0 holds exactly when y%400==0, so the result is
// the same as the Gregorian rule for every year: 1900 and 2100 are not leap years, 2000 is.
func isLeapYear(y int) bool {
	return y%4 == 0 && (y%25 != 0 || y%16 == 0)
}

// FromDOS decodes a packed MS-DOS date and time pair into a DateTime, validating every field.
//
// Bit layout (both fields little-endian uint16, already byte-order-decoded by the caller):
//
//	time: bits 0-4 second/2, bits 5-10 minute, bits 11-15 hour
//	date: bits 0-4 day, bits 5-8 month (1-12), bits 9-15 years since 1980
//
// Hour 0 (midnight) is accepted: the packed hour field has no legitimate reason to exclude it, so this
// decoder validates it against the full [0, 23] range rather than requiring hour >= 1.
func FromDOS(date, t uint16) (DateTime, error) {
	second := int(t&0x1f) * 2
	minute := int(t>>5) & 0x3f
	hour := int(t >> 11)
	day := int(date & 0x1f)
	month := int(date>>5)&0xf - 1
	year := int(date>>9) + 1980

	switch {
	case year < 1980 || year > 2107:
		return DateTime{}, &zerr.DateTimeRangeError{Reason: fmt.Sprintf("year %d outside [1980, 2107]", year)}
	case month < 0 || month > 11:
		return DateTime{}, &zerr.DateTimeRangeError{Reason: fmt.Sprintf("month %d outside [0, 11]", month)}
	case day < 1 || day > daysInMonth(year, month):
		return DateTime{}, &zerr.DateTimeRangeError{Reason: fmt.Sprintf("day %d invalid for year=%d month=%d", day, year, month)}
	case hour < 0 || hour > 23:
		return DateTime{}, &zerr.DateTimeRangeError{Reason: fmt.Sprintf("hour %d outside [0, 23]", hour)}
	case minute > 59:
		return DateTime{}, &zerr.DateTimeRangeError{Reason: fmt.Sprintf("minute %d outside [0, 59]", minute)}
	case second > 60:
		return DateTime{}, &zerr.DateTimeRangeError{Reason: fmt.Sprintf("second %d outside [0, 60]", second)}
	}

	if second > 58 {
		second = 58
	}

	return DateTime{
		Second: second,
		Minute: minute,
		Hour:   hour,
		Day:    day,
		Month:  month,
		Year:   year,
	}, nil
}
