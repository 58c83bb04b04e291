package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// ErrMalformedDate is returned when a value is not a recognizable date
var ErrMalformedDate = errors.New("malformed date")

// Date is a calendar date that remembers its precision. Day == 0 means the
// source only specified year and month.
type Date struct {
	Year  int
	Month int
	Day   int
}

// HasDay reports whether the date carries day precision
func (d Date) HasDay() bool {
	return d.Day > 0
}

// String returns the canonical form: 2006-01-02 or 2006-01
func (d Date) String() string {
	if d.HasDay() {
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

// Equal compares two dates at the coarser of their precisions
func (d Date) Equal(o Date) bool {
	return d.Compare(o) == 0
}

// Compare orders two dates at the coarser of their precisions
func (d Date) Compare(o Date) int {
	a := d.Year*100 + d.Month
	b := o.Year*100 + o.Month
	if a == b && d.HasDay() && o.HasDay() {
		a, b = d.Day, o.Day
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

var (
	excelTimeSuffix = regexp.MustCompile(`[ T]\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?$`)

	cnDateExact  = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(?:(\d{1,2})[日号])?$`)
	sepDateExact = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})(?:[-/.](\d{1,2}))?$`)
	compactDate  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	numeralDate  = regexp.MustCompile(`^([〇零○一二三四五六七八九]{4})年([一二三四五六七八九十]{1,3})月(?:([一二三四五六七八九十]{1,3})[日号])?$`)

	// dateToken finds date tokens inside prose
	dateToken = regexp.MustCompile(
		`\d{4}年\d{1,2}月(?:\d{1,2}[日号])?` +
			`|\d{4}[-/.]\d{1,2}(?:[-/.]\d{1,2})?` +
			`|[〇零○一二三四五六七八九]{4}年[一二三四五六七八九十]{1,3}月(?:[一二三四五六七八九十]{1,3}[日号])?`)
)

// FoldWidth converts full-width digits and punctuation to their ASCII forms
func FoldWidth(s string) string {
	return width.Narrow.String(s)
}

// ParseDate canonicalizes a date cell or token. Accepted forms include
// 2025年3月20日, 2025年3月, 2025-03-20, 2025/3/20, 2025/3, 2025.3.20,
// 20250320, Excel exports with a time part and Chinese-numeral dates.
func ParseDate(s string) (Date, error) {
	raw := s
	s = FoldWidth(CleanCell(s))
	s = StripSpaceKeepTime(s)
	s = excelTimeSuffix.ReplaceAllString(s, "")
	s = StripSpace(s)

	if s == "" {
		return Date{}, fmt.Errorf("%w: empty value", ErrMalformedDate)
	}

	var y, m, d int
	var err error

	switch {
	case cnDateExact.MatchString(s):
		y, m, d, err = atoiParts(cnDateExact.FindStringSubmatch(s))
	case sepDateExact.MatchString(s):
		y, m, d, err = atoiParts(sepDateExact.FindStringSubmatch(s))
	case compactDate.MatchString(s):
		y, m, d, err = atoiParts(compactDate.FindStringSubmatch(s))
	case numeralDate.MatchString(s):
		parts := numeralDate.FindStringSubmatch(s)
		y = numeralYear(parts[1])
		m = numeralSmall(parts[2])
		if parts[3] != "" {
			d = numeralSmall(parts[3])
			if d == 0 {
				err = fmt.Errorf("bad day %q", parts[3])
			}
		}
	default:
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: %v", ErrMalformedDate, raw, err)
	}

	date := Date{Year: y, Month: m, Day: d}
	if !valid(date) {
		return Date{}, fmt.Errorf("%w: %q out of range", ErrMalformedDate, raw)
	}
	return date, nil
}

// FindDate returns the first date token in text
func FindDate(text string) (Date, bool) {
	text = FoldWidth(text)
	for _, tok := range dateToken.FindAllString(text, -1) {
		if d, err := ParseDate(tok); err == nil {
			return d, true
		}
	}
	return Date{}, false
}

// StripSpaceKeepTime collapses runs of whitespace to a single space so an
// Excel time suffix stays recognizable
func StripSpaceKeepTime(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func atoiParts(parts []string) (y, m, d int, err error) {
	if y, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, err
	}
	if m, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, err
	}
	if len(parts) > 3 && parts[3] != "" {
		if d, err = strconv.Atoi(parts[3]); err != nil {
			return 0, 0, 0, err
		}
		if d == 0 {
			return 0, 0, 0, errors.New("day is zero")
		}
	}
	return y, m, d, nil
}

func valid(d Date) bool {
	if d.Year < 1900 || d.Year > 2200 || d.Month < 1 || d.Month > 12 {
		return false
	}
	if !d.HasDay() {
		return true
	}
	last := time.Date(d.Year, time.Month(d.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return d.Day <= last
}

var numeralDigits = map[rune]int{
	'〇': 0, '零': 0, '○': 0,
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

// numeralYear reads a year written digit by digit (二〇二五)
func numeralYear(s string) int {
	y := 0
	for _, r := range s {
		y = y*10 + numeralDigits[r]
	}
	return y
}

// numeralSmall reads a month or day number (三, 十, 十二, 二十, 二十一, 三十一)
func numeralSmall(s string) int {
	runes := []rune(s)
	ten := -1
	for i, r := range runes {
		if r == '十' {
			ten = i
			break
		}
	}
	if ten < 0 {
		if len(runes) != 1 {
			return 0
		}
		return numeralDigits[runes[0]]
	}

	tens, ones := 1, 0
	if ten > 0 {
		if ten != 1 {
			return 0
		}
		tens = numeralDigits[runes[0]]
	}
	switch rest := runes[ten+1:]; len(rest) {
	case 0:
	case 1:
		ones = numeralDigits[rest[0]]
	default:
		return 0
	}
	return tens*10 + ones
}
