package collector

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var digitReplacer = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
)

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// ParseNumber accepts ASCII and Arabic-Indic digits, with either a dot, a
// comma or the Arabic decimal separator. Only plain decimals pass: no
// exponents, hex, NaN or infinities.
func ParseNumber(s string) (float64, error) {
	s = digitReplacer.Replace(strings.TrimSpace(s))
	s = strings.NewReplacer("٬", "", " ", "", "\u00a0", "", "٫", ".", ",", ".").Replace(s)
	if s == "" {
		return 0, errors.New("empty number")
	}
	if !decimalPattern.MatchString(s) {
		return 0, errors.New("not a decimal number")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errors.New("number out of range")
	}
	return n, nil
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04",
	DateTimeLayout,
	"2006-01-02T15:04:05",
	"02.01.2006",
	"02/01/2006",
	"2006/01/02",
	"2.1.2006",
	"2/1/2006",
}

var todayWords = map[string]bool{
	"today":   true,
	"сегодня": true,
	"اليوم":   true,
}

var nowWords = map[string]bool{
	"now":    true,
	"сейчас": true,
	"الآن":   true,
	"الان":   true,
}

// ParseDate reads a user supplied date. The caller decides whether the time
// of day is kept.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = digitReplacer.Replace(strings.TrimSpace(s))
	lower := strings.ToLower(s)
	if todayWords[lower] || nowWords[lower] {
		return now, nil
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, now.Location())
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised date")
}
